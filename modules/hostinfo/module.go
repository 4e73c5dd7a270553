// Package hostinfo posts a model describing the machine running the build.
package hostinfo

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/specialistvlad/buildmodels/internal/router"
	"github.com/specialistvlad/buildmodels/internal/settings"
)

// ModelName is the name the host description is posted under.
const ModelName = "host"

// Module implements the settings.Module interface for this package.
type Module struct {
	// Hostname defaults to os.Hostname.
	Hostname func() (string, error)
}

// Register registers the plugin with the settings registry.
func (m *Module) Register(r *settings.Registry) {
	r.Register(&plugin{hostname: m.Hostname})
}

type plugin struct {
	hostname func() (string, error)
}

func (p *plugin) Name() string { return "hostinfo" }

func (p *plugin) Apply(ctx context.Context, r *router.Router) error {
	hostname := p.hostname
	if hostname == nil {
		hostname = os.Hostname
	}
	_, err := router.Post(ctx, r, ModelName, func(context.Context) (map[string]string, error) {
		name, err := hostname()
		if err != nil {
			return nil, fmt.Errorf("failed to read hostname: %w", err)
		}
		return map[string]string{
			"hostname": name,
			"os":       runtime.GOOS,
			"arch":     runtime.GOARCH,
			"cpus":     strconv.Itoa(runtime.NumCPU()),
		}, nil
	})
	return err
}
