package router

import (
	"context"

	"github.com/specialistvlad/buildmodels/internal/canonical"
	"github.com/specialistvlad/buildmodels/internal/ctxlog"
	"github.com/specialistvlad/buildmodels/internal/isolation"
	"github.com/specialistvlad/buildmodels/internal/metrics"
	"github.com/specialistvlad/buildmodels/internal/modelerr"
	"github.com/specialistvlad/buildmodels/internal/modelkey"
	"github.com/specialistvlad/buildmodels/internal/scope"
)

// Work is a deferred computation producing the value of one model.
type Work = canonical.Work

// Observer is notified of registry and isolation activity.
type Observer interface {
	canonical.Observer
	isolation.Observer
}

// Router combines the canonical registry and the isolation layer.
type Router struct {
	buildID   string
	metrics   *metrics.Metrics
	observers []Observer
	copyFn    isolation.CopyFunc
	registry  *canonical.Registry
	layer     *isolation.Layer
}

// Option configures a Router.
type Option func(*Router)

// WithMetrics records registry activity on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// WithObserver forwards registry and isolation notifications to o.
func WithObserver(o Observer) Option {
	return func(r *Router) { r.observers = append(r.observers, o) }
}

// WithBuildID tags the router's log lines with id.
func WithBuildID(id string) Option {
	return func(r *Router) { r.buildID = id }
}

// WithCopyFunc replaces the structural copier used for isolation.
func WithCopyFunc(fn isolation.CopyFunc) Option {
	return func(r *Router) { r.copyFn = fn }
}

// New creates an empty router.
func New(opts ...Option) *Router {
	r := &Router{}
	for _, opt := range opts {
		opt(r)
	}

	observers := r.observers
	if r.metrics != nil {
		observers = append([]Observer{r.metrics}, observers...)
	}
	var regOpts []canonical.Option
	var isoOpts []isolation.Option
	for _, o := range observers {
		regOpts = append(regOpts, canonical.WithObserver(o))
		isoOpts = append(isoOpts, isolation.WithObserver(o))
	}
	if r.copyFn != nil {
		isoOpts = append(isoOpts, isolation.WithCopyFunc(r.copyFn))
	}
	r.registry = canonical.New(regOpts...)
	r.layer = isolation.New(isoOpts...)
	return r
}

// BuildID returns the build ID the router was created with.
func (r *Router) BuildID() string { return r.buildID }

func (r *Router) logContext(ctx context.Context) context.Context {
	if r.buildID == "" {
		return ctx
	}
	ctx, _ = ctxlog.With(ctx, "build_id", r.buildID)
	return ctx
}

// PostModel registers work under key. The work is not run.
func (r *Router) PostModel(ctx context.Context, key modelkey.Key, work Work) error {
	return r.registry.Post(r.logContext(ctx), key, work)
}

// GetBuildModel returns a handle for key. It never fails and never computes;
// lookup errors surface from Handle.Get.
func (r *Router) GetBuildModel(key modelkey.Key) *Handle {
	return &Handle{router: r, key: key}
}

// State reports the evaluation state of the model posted under key's name.
func (r *Router) State(key modelkey.Key) (canonical.State, bool) {
	return r.registry.State(key)
}

// Keys returns all posted keys sorted by name.
func (r *Router) Keys() []modelkey.Key {
	return r.registry.Keys()
}

// Summary describes the contents of a router.
type Summary struct {
	canonical.Stats
	IsolatedCopies int
}

// Summary counts canonical entries per state and the isolated copies.
func (r *Router) Summary() Summary {
	return Summary{Stats: r.registry.Stats(), IsolatedCopies: r.layer.Len()}
}

// Handle is a lazy reference to one model.
type Handle struct {
	router *Router
	key    modelkey.Key
}

// Key returns the key the handle refers to.
func (h *Handle) Key() modelkey.Key { return h.key }

// Get realizes the model if needed and returns sc's isolated copy of it.
func (h *Handle) Get(ctx context.Context, sc scope.Scope) (any, error) {
	v, err := h.get(ctx, sc)
	if h.router.metrics != nil {
		h.router.metrics.RequestFinished(h.key, err)
	}
	return v, err
}

func (h *Handle) get(ctx context.Context, sc scope.Scope) (any, error) {
	if h.key.IsZero() {
		return nil, modelerr.InvalidKey(h.key)
	}
	ctx = h.router.logContext(ctx)

	value, err := h.router.registry.Realize(ctx, h.key)
	if err != nil {
		return nil, err
	}
	return h.router.layer.Isolate(ctx, h.key, sc, value)
}
