// Package buildsession creates and manages the lifetime of one build: a fresh
// router with its own metrics, tagged with a unique build ID.
package buildsession

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/buildmodels/internal/ctxlog"
	"github.com/specialistvlad/buildmodels/internal/events"
	"github.com/specialistvlad/buildmodels/internal/metrics"
	"github.com/specialistvlad/buildmodels/internal/router"
)

// Factory creates build sessions. Different implementations can back a
// session with different registries.
type Factory interface {
	NewSession(ctx context.Context) (Session, error)
}

// Session represents a single build and owns its model registry.
type Session interface {
	ID() string
	Router() *router.Router
	Metrics() *metrics.Metrics
	// Close ends the build. The router must not be used afterwards.
	Close(ctx context.Context) error
}

// EventsFactory is a Factory whose sessions can stream build events.
type EventsFactory interface {
	Factory
	// WithEvents returns a factory like the receiver whose sessions publish
	// to sink.
	WithEvents(sink events.Sink) Factory
}

// LocalFactory implements Factory for in-process builds.
type LocalFactory struct {
	// NewID generates build IDs. Defaults to random UUIDs.
	NewID func() string
	// Events, when set, receives the session's build events.
	Events events.Sink
}

// WithEvents implements EventsFactory. The receiver is not modified.
func (f *LocalFactory) WithEvents(sink events.Sink) Factory {
	cp := *f
	cp.Events = sink
	return &cp
}

// NewSession creates a session with an empty router.
func (f *LocalFactory) NewSession(ctx context.Context) (Session, error) {
	newID := f.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	id := newID()

	m := metrics.New(id)
	opts := []router.Option{router.WithBuildID(id), router.WithMetrics(m)}
	var pub *events.Publisher
	if f.Events != nil {
		pub = events.NewPublisher(f.Events, id)
		opts = append(opts, router.WithObserver(pub))
	}

	ctxlog.FromContext(ctx).Debug("Build session created.", "build_id", id, "events", pub != nil)
	return &LocalSession{
		id:        id,
		router:    router.New(opts...),
		metrics:   m,
		publisher: pub,
		started:   time.Now(),
	}, nil
}

// LocalSession implements Session.
type LocalSession struct {
	id        string
	router    *router.Router
	metrics   *metrics.Metrics
	publisher *events.Publisher
	started   time.Time

	mu      sync.Mutex
	closed  bool
	summary router.Summary
}

// ID returns the build ID.
func (s *LocalSession) ID() string { return s.id }

// Router returns the build's router.
func (s *LocalSession) Router() *router.Router { return s.router }

// Metrics returns the build's collectors.
func (s *LocalSession) Metrics() *metrics.Metrics { return s.metrics }

// Summary returns the router summary captured at Close, or the live one
// before that.
func (s *LocalSession) Summary() router.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.summary
	}
	return s.router.Summary()
}

// Close flushes pending build events and logs a summary of the build. It is
// safe to call more than once.
func (s *LocalSession) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.summary = s.router.Summary()

	var err error
	if s.publisher != nil {
		if err = s.publisher.Close(ctx); err != nil {
			err = fmt.Errorf("failed to flush build events: %w", err)
		}
	}

	ctxlog.FromContext(ctx).Info("Build session closed.",
		"build_id", s.id,
		"models", s.summary.Total(),
		"realized", s.summary.Realized,
		"failed", s.summary.Failed,
		"pending", s.summary.Pending,
		"isolated_copies", s.summary.IsolatedCopies,
		"elapsed", time.Since(s.started),
	)
	return err
}
