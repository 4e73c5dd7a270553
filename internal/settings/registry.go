package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/specialistvlad/buildmodels/internal/ctxlog"
	"github.com/specialistvlad/buildmodels/internal/router"
)

// Plugin posts models to a router.
type Plugin interface {
	Name() string
	Apply(ctx context.Context, r *router.Router) error
}

// Module is the interface that all compiled-in modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry stores plugins in registration order.
type Registry struct {
	plugins []Plugin
	byName  map[string]Plugin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Plugin)}
}

// Register adds p. It panics when a plugin with the same name exists.
func (r *Registry) Register(p Plugin) {
	name := p.Name()
	if _, exists := r.byName[name]; exists {
		panic(fmt.Sprintf("settings plugin with name '%s' already registered", name))
	}
	slog.Debug("Registering settings plugin.", "name", name)
	r.byName[name] = p
	r.plugins = append(r.plugins, p)
}

// Names returns the plugin names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.plugins))
	for _, p := range r.plugins {
		names = append(names, p.Name())
	}
	return names
}

// Lookup returns the plugin named name.
func (r *Registry) Lookup(name string) (Plugin, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Apply runs every plugin not named in disabled against rt, in registration
// order. A failing plugin does not prevent the others from running; all
// failures are returned joined.
func (r *Registry) Apply(ctx context.Context, rt *router.Router, disabled ...string) error {
	logger := ctxlog.FromContext(ctx)
	skip := make(map[string]struct{}, len(disabled))
	for _, name := range disabled {
		if _, ok := r.byName[name]; !ok {
			return fmt.Errorf("cannot disable unknown settings plugin %q", name)
		}
		skip[name] = struct{}{}
	}

	var errs []error
	for _, p := range r.plugins {
		if _, ok := skip[p.Name()]; ok {
			logger.Debug("Settings plugin disabled.", "plugin", p.Name())
			continue
		}
		logger.Debug("Applying settings plugin.", "plugin", p.Name())
		if err := p.Apply(ctx, rt); err != nil {
			errs = append(errs, fmt.Errorf("settings plugin %q: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
