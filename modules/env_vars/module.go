package env_vars

import (
	"context"
	"os"
	"strings"

	"github.com/specialistvlad/buildmodels/internal/router"
	"github.com/specialistvlad/buildmodels/internal/settings"
)

// ModelName is the name the environment is posted under.
const ModelName = "env"

// Module implements the settings.Module interface for this package.
type Module struct {
	// Environ lists the environment as KEY=VALUE pairs. Defaults to os.Environ.
	Environ func() []string
}

// Register registers the plugin with the settings registry.
func (m *Module) Register(r *settings.Registry) {
	r.Register(&plugin{environ: m.Environ})
}

type plugin struct {
	environ func() []string
}

func (p *plugin) Name() string { return "env_vars" }

// Apply posts the `env` model. The environment is read when a project first
// asks for it, not when the plugin is applied.
func (p *plugin) Apply(ctx context.Context, r *router.Router) error {
	environ := p.environ
	if environ == nil {
		environ = os.Environ
	}
	_, err := router.Post(ctx, r, ModelName, func(context.Context) (map[string]string, error) {
		envMap := make(map[string]string)
		for _, e := range environ() {
			pair := strings.SplitN(e, "=", 2)
			if len(pair) == 2 {
				envMap[pair[0]] = pair[1]
			}
		}
		return envMap, nil
	})
	return err
}
