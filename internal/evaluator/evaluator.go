package evaluator

import (
	"context"
	"fmt"
	"reflect"
	"runtime"

	"github.com/specialistvlad/buildmodels/internal/config"
	"github.com/specialistvlad/buildmodels/internal/ctxlog"
	"github.com/specialistvlad/buildmodels/internal/modelkey"
	"github.com/specialistvlad/buildmodels/internal/router"
	"github.com/specialistvlad/buildmodels/internal/scope"
	"golang.org/x/sync/errgroup"
)

// Evaluator runs the consume blocks of projects against a router.
type Evaluator struct {
	router    *router.Router
	converter config.Converter
	workers   int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithWorkers limits the number of projects evaluated at once. Values below
// one mean runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(e *Evaluator) { e.workers = n }
}

// New creates an evaluator. conv maps consume types to the Go types used in
// model keys.
func New(r *router.Router, conv config.Converter, opts ...Option) *Evaluator {
	e := &Evaluator{router: r, converter: conv}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = runtime.NumCPU()
	}
	return e
}

// Evaluate runs all projects and returns their report. Project failures are
// recorded in the report; the returned error is non-nil only when ctx ends
// before every project was evaluated.
func (e *Evaluator) Evaluate(ctx context.Context, projects []*config.Project) (*Report, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Evaluating projects.", "count", len(projects), "workers", e.workers)

	reports := make([]ProjectReport, len(projects))
	var g errgroup.Group
	g.SetLimit(e.workers)

	for i, p := range projects {
		if err := ctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			reports[i] = e.evaluateProject(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("project evaluation interrupted: %w", err)
	}

	report := &Report{Projects: reports}
	logger.Debug("Projects evaluated.", "failed", report.FailedCount())
	return report, nil
}

func (e *Evaluator) evaluateProject(ctx context.Context, p *config.Project) ProjectReport {
	ctx, logger := ctxlog.With(ctx, "project", p.Path)
	pr := ProjectReport{Name: p.Name, Path: p.Path}

	sc, err := scope.ParseProject(p.Path)
	if err != nil {
		pr.Err = err
		return pr
	}

	for _, c := range p.Consumes {
		if err := e.consume(ctx, sc, c, &pr); err != nil {
			logger.Debug("Project failed.", "model", c.Model, "error", err)
			pr.Err = err
			return pr
		}
	}
	return pr
}

func (e *Evaluator) consume(ctx context.Context, sc scope.Project, c *config.Consume, pr *ProjectReport) error {
	rt, err := e.converter.GoType(c.Type)
	if err != nil {
		return fmt.Errorf("consume %q: %w", c.Model, err)
	}
	h := e.router.GetBuildModel(modelkey.New(c.Model, modelkey.TypeOf(rt)))

	for call := 1; call <= c.Times; call++ {
		v, err := h.Get(ctx, sc)
		if err == nil && c.Mutate {
			err = mutate(v, sc.Name())
		}
		if err != nil {
			pr.Observations = append(pr.Observations, Observation{Model: c.Model, Call: call, Err: err})
			return err
		}
		pr.Observations = append(pr.Observations, Observation{Model: c.Model, Call: call, Value: render(v)})
	}
	return nil
}

// mutate adds name to a project's copy of a model: appended to a list of
// strings, or inserted as a key of a map of strings.
func mutate(v any, name string) error {
	rv := reflect.ValueOf(v)
	switch {
	case rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() == reflect.Slice &&
		rv.Elem().Type().Elem().Kind() == reflect.String:
		list := rv.Elem()
		list.Set(reflect.Append(list, reflect.ValueOf(name).Convert(list.Type().Elem())))
		return nil
	case rv.Kind() == reflect.Map && !rv.IsNil() && rv.Type().Elem().Kind() == reflect.String:
		rv.SetMapIndex(reflect.ValueOf(name), reflect.ValueOf(name).Convert(rv.Type().Elem()))
		return nil
	default:
		return fmt.Errorf("cannot mutate a value of type %T: only lists and maps of strings can be mutated", v)
	}
}
