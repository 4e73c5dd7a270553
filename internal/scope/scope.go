package scope

import (
	"fmt"
	"regexp"
	"strings"
)

// Scope is a stable, comparable identity supplied by a consumer.
type Scope interface {
	// ScopeID returns the identity the registry caches isolated copies under.
	// Two scopes with the same ID are the same scope.
	ScopeID() string
}

// ID is an ad-hoc scope identified by an arbitrary non-empty string.
type ID string

// ScopeID implements Scope.
func (id ID) ScopeID() string { return string(id) }

const separator = ":"

// segmentRegex validates a single project path segment.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// isValidSegmentName rejects names that are valid by pattern but confusing.
func isValidSegmentName(name string) bool {
	if name == "." || name == ".." || name == "-" {
		return false
	}
	return true
}

// Project is the scope of one project, identified by its canonical path.
type Project struct {
	path string
}

// Root returns the scope of the root project, `:`.
func Root() Project {
	return Project{path: separator}
}

// ParseProject parses a project path such as `:`, `:a` or `:a:b`.
func ParseProject(raw string) (Project, error) {
	if raw == "" {
		return Project{}, fmt.Errorf("project path cannot be empty")
	}
	if raw == separator {
		return Root(), nil
	}
	if !strings.HasPrefix(raw, separator) {
		return Project{}, fmt.Errorf("project path %q must start with %q", raw, separator)
	}

	for _, segment := range strings.Split(raw[1:], separator) {
		if segment == "" {
			return Project{}, fmt.Errorf("project path %q contains an empty segment", raw)
		}
		if !segmentRegex.MatchString(segment) || !isValidSegmentName(segment) {
			return Project{}, fmt.Errorf("invalid project name %q in path %q", segment, raw)
		}
	}
	return Project{path: raw}, nil
}

// MustProject is like ParseProject but panics on an invalid path.
func MustProject(raw string) Project {
	p, err := ParseProject(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// ScopeID implements Scope.
func (p Project) ScopeID() string { return p.path }

// String returns the canonical path.
func (p Project) String() string { return p.path }

// IsRoot reports whether p is the root project.
func (p Project) IsRoot() bool { return p.path == separator }

// Segments returns the project names along the path, empty for the root.
func (p Project) Segments() []string {
	if p.path == "" || p.IsRoot() {
		return nil
	}
	return strings.Split(p.path[1:], separator)
}

// Name returns the last path segment, or "root" for the root project.
func (p Project) Name() string {
	segments := p.Segments()
	if len(segments) == 0 {
		return "root"
	}
	return segments[len(segments)-1]
}

// Child returns the scope of a direct child project.
func (p Project) Child(name string) (Project, error) {
	if p.IsRoot() {
		return ParseProject(separator + name)
	}
	return ParseProject(p.path + separator + name)
}

// Parent returns the enclosing project; false for the root.
func (p Project) Parent() (Project, bool) {
	segments := p.Segments()
	switch len(segments) {
	case 0:
		return Project{}, false
	case 1:
		return Root(), true
	default:
		return Project{path: separator + strings.Join(segments[:len(segments)-1], separator)}, true
	}
}
