package canonical

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/buildmodels/internal/ctxlog"
	"github.com/specialistvlad/buildmodels/internal/modelerr"
	"github.com/specialistvlad/buildmodels/internal/modelkey"
)

// Work is a deferred computation producing the value of one model.
type Work func(ctx context.Context) (any, error)

// Observer receives lifecycle notifications. Implementations must be safe
// for concurrent use.
type Observer interface {
	ModelPosted(key modelkey.Key)
	RealizationFinished(key modelkey.Key, elapsed time.Duration, err error)
}

type entry struct {
	key   modelkey.Key
	work  Work
	state atomic.Int32
	// done is closed once value or err is final.
	done  chan struct{}
	value any
	err   error
}

func (e *entry) getState() State {
	return State(e.state.Load())
}

// Registry stores one entry per posted model name.
type Registry struct {
	entries   sync.Map // Key: model name, Value: *entry
	observers []Observer
}

// Option configures a Registry.
type Option func(*Registry)

// WithObserver attaches an observer to the registry. It may be given more
// than once.
func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observers = append(r.observers, o) }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Post registers work under key without running it.
func (r *Registry) Post(ctx context.Context, key modelkey.Key, work Work) error {
	if key.IsZero() {
		return modelerr.InvalidKey(key)
	}
	if work == nil {
		return fmt.Errorf("cannot post %s: work is nil", key)
	}

	e := &entry{key: key, work: work, done: make(chan struct{})}
	if existing, loaded := r.entries.LoadOrStore(key.Name(), e); loaded {
		return modelerr.DuplicateKey(key, existing.(*entry).key)
	}

	ctxlog.FromContext(ctx).Debug("Model posted.", "key", key.Name(), "type", key.Type().String())
	for _, o := range r.observers {
		o.ModelPosted(key)
	}
	return nil
}

// lookup finds the entry for key and checks the declared type.
func (r *Registry) lookup(key modelkey.Key) (*entry, error) {
	v, ok := r.entries.Load(key.Name())
	if !ok {
		return nil, modelerr.UnknownKey(key)
	}
	e := v.(*entry)
	if e.key != key {
		return nil, modelerr.TypeMismatch(key, e.key)
	}
	return e, nil
}

// Realize returns the canonical value of key, running its work on first demand.
func (r *Registry) Realize(ctx context.Context, key modelkey.Key) (any, error) {
	if key.IsZero() {
		return nil, modelerr.InvalidKey(key)
	}
	e, err := r.lookup(key)
	if err != nil {
		return nil, err
	}

	if e.state.CompareAndSwap(int32(Pending), int32(Computing)) {
		r.compute(ctx, e)
	}

	select {
	case <-e.done:
		return e.value, e.err
	default:
	}

	ctxlog.FromContext(ctx).Debug("Waiting for model computation.", "key", key.Name())
	select {
	case <-e.done:
		return e.value, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// compute runs the work of e and publishes its outcome. Only the caller that
// won the Pending to Computing transition may call it.
func (r *Registry) compute(ctx context.Context, e *entry) {
	logger := ctxlog.FromContext(ctx).With("key", e.key.Name(), "type", e.key.Type().String())
	logger.Debug("Computing model.")

	start := time.Now()
	value, err := runWork(context.WithoutCancel(ctx), e.work)
	if err == nil && !e.key.Type().Accepts(value) {
		err = fmt.Errorf("%w: work returned %T", modelerr.ErrTypeMismatch, value)
	}
	elapsed := time.Since(start)

	if err != nil {
		e.err = modelerr.ComputationFailed(e.key, err)
		e.state.Store(int32(Failed))
		logger.Debug("Model computation failed.", "error", err, "elapsed", elapsed)
	} else {
		e.value = value
		e.state.Store(int32(Realized))
		logger.Debug("Model realized.", "elapsed", elapsed)
	}
	close(e.done)

	for _, o := range r.observers {
		o.RealizationFinished(e.key, elapsed, e.err)
	}
}

// runWork calls w, converting a panic into an error.
func runWork(ctx context.Context, w Work) (value any, err error) {
	defer func() {
		if p := recover(); p != nil {
			value = nil
			err = fmt.Errorf("work panicked: %v", p)
		}
	}()
	return w(ctx)
}

// State returns the state of the model posted under key's name.
func (r *Registry) State(key modelkey.Key) (State, bool) {
	v, ok := r.entries.Load(key.Name())
	if !ok {
		return Pending, false
	}
	return v.(*entry).getState(), true
}

// Keys returns all posted keys sorted by name.
func (r *Registry) Keys() []modelkey.Key {
	var keys []modelkey.Key
	r.entries.Range(func(_, v any) bool {
		keys = append(keys, v.(*entry).key)
		return true
	})
	sort.Slice(keys, func(i, j int) bool { return keys[i].Name() < keys[j].Name() })
	return keys
}

// Stats counts the posted entries per state.
func (r *Registry) Stats() Stats {
	var s Stats
	r.entries.Range(func(_, v any) bool {
		switch v.(*entry).getState() {
		case Pending:
			s.Pending++
		case Computing:
			s.Computing++
		case Realized:
			s.Realized++
		case Failed:
			s.Failed++
		}
		return true
	})
	return s
}
