package hcl

import (
	"context"
	"fmt"
	"os"
	"reflect"

	"github.com/specialistvlad/buildmodels/internal/config"
	"github.com/specialistvlad/buildmodels/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Converter is the HCL-specific implementation of the config.Converter interface.
type Converter struct {
	lookupEnv func(string) (string, bool)
}

// NewConverter creates a converter whose env functions read from lookupEnv,
// or from the process environment when lookupEnv is nil.
func NewConverter(lookupEnv func(string) (string, bool)) *Converter {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	return &Converter{lookupEnv: lookupEnv}
}

// GoType implements config.Converter.
func (c *Converter) GoType(t cty.Type) (reflect.Type, error) {
	return goType(t, true)
}

// Evaluate implements config.Converter.
func (c *Converter) Evaluate(ctx context.Context, def *config.ModelDefinition) (any, error) {
	logger := ctxlog.FromContext(ctx).With("model", def.Name)
	logger.Debug("Evaluating model value.", "type", def.Type.FriendlyName())

	rt, err := c.GoType(def.Type)
	if err != nil {
		return nil, err
	}

	val, diags := def.Value.Value(newEvalContext(c.lookupEnv))
	if diags.HasErrors() {
		return nil, diags
	}
	val, err = convert.Convert(val, def.Type)
	if err != nil {
		return nil, fmt.Errorf("value does not match type %s: %w", def.Type.FriendlyName(), err)
	}
	if val.IsNull() {
		return nil, fmt.Errorf("value is null")
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}

	target := rt
	if rt.Kind() == reflect.Pointer {
		target = rt.Elem()
	}
	ptr := reflect.New(target)
	if err := gocty.FromCtyValue(val, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("failed to convert value to %s: %w", rt, err)
	}

	if rt.Kind() == reflect.Pointer {
		return ptr.Interface(), nil
	}
	return ptr.Elem().Interface(), nil
}

var _ config.Converter = (*Converter)(nil)
