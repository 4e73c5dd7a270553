package evaluator

import (
	"fmt"
	"io"
	"reflect"
)

// Observation is the outcome of one model request made by a project.
type Observation struct {
	Model string
	// Call is the 1-based index of the request within its consume block.
	Call  int
	Value string
	Err   error
}

// ProjectReport collects the observations of one project.
type ProjectReport struct {
	Name         string
	Path         string
	Observations []Observation
	// Err is the first failure of the project, if any.
	Err error
}

// Report is the outcome of evaluating all projects, ordered by project path.
type Report struct {
	Projects []ProjectReport
}

// Failed reports whether any project failed.
func (r *Report) Failed() bool {
	return r.FailedCount() > 0
}

// FailedCount returns the number of failed projects.
func (r *Report) FailedCount() int {
	n := 0
	for _, p := range r.Projects {
		if p.Err != nil {
			n++
		}
	}
	return n
}

// Print writes one line per observation.
func (r *Report) Print(w io.Writer) error {
	for _, p := range r.Projects {
		for _, o := range p.Observations {
			var err error
			if o.Err != nil {
				_, err = fmt.Fprintf(w, "[%s] %s #%d: error: %v\n", p.Path, o.Model, o.Call, o.Err)
			} else {
				_, err = fmt.Fprintf(w, "[%s] %s #%d: %s\n", p.Path, o.Model, o.Call, o.Value)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// render formats a model value for a report, following pointers.
func render(v any) string {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return "<nil>"
	}
	return fmt.Sprintf("%v", rv.Interface())
}
