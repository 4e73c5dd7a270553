package settings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/specialistvlad/buildmodels/internal/config"
	"github.com/specialistvlad/buildmodels/internal/modelkey"
	"github.com/specialistvlad/buildmodels/internal/router"
)

// DescriptionPluginName is the name of the plugin posting the models of the
// build description.
const DescriptionPluginName = "build_description"

// DescriptionPlugin posts the models declared in a build description. Their
// values are evaluated by the description's Converter on first demand.
type DescriptionPlugin struct {
	models    []*config.ModelDefinition
	converter config.Converter
	out       io.Writer
	outMu     *sync.Mutex
}

// NewDescriptionPlugin creates the plugin. Markers are written to out, one
// per line; outMu serializes those writes with other users of out and may be
// nil.
func NewDescriptionPlugin(model *config.Model, conv config.Converter, out io.Writer, outMu *sync.Mutex) *DescriptionPlugin {
	if outMu == nil {
		outMu = &sync.Mutex{}
	}
	return &DescriptionPlugin{models: model.Models, converter: conv, out: out, outMu: outMu}
}

// Name implements Plugin.
func (p *DescriptionPlugin) Name() string { return DescriptionPluginName }

// Apply implements Plugin.
func (p *DescriptionPlugin) Apply(ctx context.Context, r *router.Router) error {
	var errs []error
	for _, def := range p.models {
		rt, err := p.converter.GoType(def.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("model %q: %w", def.Name, err))
			continue
		}
		key := modelkey.New(def.Name, modelkey.TypeOf(rt))
		if err := r.PostModel(ctx, key, p.work(def)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *DescriptionPlugin) work(def *config.ModelDefinition) router.Work {
	return func(ctx context.Context) (any, error) {
		if def.Marker != "" && p.out != nil {
			p.outMu.Lock()
			fmt.Fprintln(p.out, def.Marker)
			p.outMu.Unlock()
		}
		return p.converter.Evaluate(ctx, def)
	}
}
