package config

import (
	"context"
	"reflect"

	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific build description loader.
type Loader interface {
	// Load reads the description from the given paths, translates it into the
	// format-agnostic model, and returns a matching Converter.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// Converter is the interface for a format-specific evaluation of model values.
type Converter interface {
	// GoType returns the Go type a model of type t is published as.
	GoType(t cty.Type) (reflect.Type, error)

	// Evaluate computes the value of def as a Go value of GoType(def.Type).
	// It is called from the model's work, so only on first demand.
	Evaluate(ctx context.Context, def *ModelDefinition) (any, error)
}
