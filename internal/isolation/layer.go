package isolation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/buildmodels/internal/ctxlog"
	"github.com/specialistvlad/buildmodels/internal/modelerr"
	"github.com/specialistvlad/buildmodels/internal/modelkey"
	"github.com/specialistvlad/buildmodels/internal/scope"
	"golang.org/x/sync/singleflight"
)

// Observer receives copy notifications. Implementations must be safe for
// concurrent use.
type Observer interface {
	CopyCreated(key modelkey.Key, scopeID string)
	CopyReused(key modelkey.Key, scopeID string)
	CopyFailed(key modelkey.Key, scopeID string, err error)
}

// CopyFunc produces an independent copy of a value.
type CopyFunc func(v any) (any, error)

// Layer caches one isolated copy per (model name, scope).
type Layer struct {
	copies    sync.Map // Key: cache key, Value: isolated copy
	group     singleflight.Group
	copyFn    CopyFunc
	observers []Observer
}

// Option configures a Layer.
type Option func(*Layer)

// WithObserver attaches an observer to the layer. It may be given more than
// once.
func WithObserver(o Observer) Option {
	return func(l *Layer) { l.observers = append(l.observers, o) }
}

// WithCopyFunc replaces the structural copier.
func WithCopyFunc(fn CopyFunc) Option {
	return func(l *Layer) { l.copyFn = fn }
}

// New creates an empty layer.
func New(opts ...Option) *Layer {
	l := &Layer{copyFn: Copy}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func cacheKey(name, scopeID string) string {
	return name + "\x00" + scopeID
}

// Isolate returns the copy of value owned by sc, creating it on first request.
// value must be the canonical value of key; it is only read.
func (l *Layer) Isolate(ctx context.Context, key modelkey.Key, sc scope.Scope, value any) (any, error) {
	if sc == nil {
		return nil, modelerr.Isolation(key, "", errors.New("consumer scope is nil"))
	}
	scopeID := sc.ScopeID()
	if scopeID == "" {
		return nil, modelerr.Isolation(key, "", errors.New("consumer scope has an empty identity"))
	}
	ck := cacheKey(key.Name(), scopeID)

	if cp, ok := l.copies.Load(ck); ok {
		l.reused(key, scopeID)
		return cp, nil
	}

	// created is only set by the caller whose function ran and made the copy.
	created := false
	cp, err, _ := l.group.Do(ck, func() (any, error) {
		if cp, ok := l.copies.Load(ck); ok {
			return cp, nil
		}
		cp, err := l.copyFn(value)
		if err == nil && !key.Type().Accepts(cp) {
			err = fmt.Errorf("%w: copy has type %T", ErrUncopyable, cp)
		}
		if err != nil {
			return nil, modelerr.Isolation(key, scopeID, err)
		}
		l.copies.Store(ck, cp)
		created = true
		ctxlog.FromContext(ctx).Debug("Isolated copy created.", "key", key.Name(), "scope", scopeID)
		for _, o := range l.observers {
			o.CopyCreated(key, scopeID)
		}
		return cp, nil
	})
	if err != nil {
		ctxlog.FromContext(ctx).Debug("Isolation failed.", "key", key.Name(), "scope", scopeID, "error", err)
		for _, o := range l.observers {
			o.CopyFailed(key, scopeID, err)
		}
		return nil, err
	}
	if !created {
		l.reused(key, scopeID)
	}
	return cp, nil
}

func (l *Layer) reused(key modelkey.Key, scopeID string) {
	for _, o := range l.observers {
		o.CopyReused(key, scopeID)
	}
}

// Len returns the number of cached copies.
func (l *Layer) Len() int {
	n := 0
	l.copies.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
