package router

import (
	"context"
	"fmt"

	"github.com/specialistvlad/buildmodels/internal/modelkey"
	"github.com/specialistvlad/buildmodels/internal/scope"
)

// NewWork wraps a computation that needs no context.
func NewWork(fn func() (any, error)) Work {
	return func(context.Context) (any, error) { return fn() }
}

// WorkOf adapts a typed computation.
func WorkOf[T any](fn func(ctx context.Context) (T, error)) Work {
	return func(ctx context.Context) (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Post posts fn under a key named name with declared type T and returns the key.
func Post[T any](ctx context.Context, r *Router, name string, fn func(ctx context.Context) (T, error)) (modelkey.Key, error) {
	key := modelkey.Of[T](name)
	return key, r.PostModel(ctx, key, WorkOf(fn))
}

// Get fetches sc's copy of the model named name, requested as type T.
func Get[T any](ctx context.Context, r *Router, name string, sc scope.Scope) (T, error) {
	var zero T
	v, err := r.GetBuildModel(modelkey.Of[T](name)).Get(ctx, sc)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("model %q has value of type %T, not %s", name, v, modelkey.TypeFor[T]())
	}
	return t, nil
}
