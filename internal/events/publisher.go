package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/buildmodels/internal/ctxlog"
	"github.com/specialistvlad/buildmodels/internal/metrics"
	"github.com/specialistvlad/buildmodels/internal/modelkey"
)

const defaultBuffer = 256

// Sink delivers one encoded event. Send is only ever called from one
// goroutine at a time.
type Sink interface {
	Send(name string, payload map[string]any) error
}

// Publisher turns registry and isolation notifications into events.
type Publisher struct {
	buildID string
	sink    Sink
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	done   chan struct{}

	sent    atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithBuffer sets how many events may wait for delivery.
func WithBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.queue = make(chan Event, n)
		}
	}
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

// NewPublisher starts delivering events for buildID to sink.
func NewPublisher(sink Sink, buildID string, opts ...Option) *Publisher {
	p := &Publisher{
		buildID: buildID,
		sink:    sink,
		now:     time.Now,
		queue:   make(chan Event, defaultBuffer),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	go p.run()
	return p
}

func (p *Publisher) run() {
	defer close(p.done)
	for ev := range p.queue {
		if err := p.sink.Send(EventName, ev.Payload()); err != nil {
			p.failed.Add(1)
			continue
		}
		p.sent.Add(1)
	}
}

func (p *Publisher) publish(ev Event) {
	ev.BuildID = p.buildID
	ev.Time = p.now()

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped.Add(1)
		return
	}
	select {
	case p.queue <- ev:
	default:
		p.dropped.Add(1)
	}
}

// Sent returns the number of delivered events.
func (p *Publisher) Sent() int64 { return p.sent.Load() }

// Failed returns the number of events the sink rejected.
func (p *Publisher) Failed() int64 { return p.failed.Load() }

// Dropped returns the number of events discarded because the queue was full
// or the publisher was closed.
func (p *Publisher) Dropped() int64 { return p.dropped.Load() }

// Close stops accepting events and waits for queued ones to be delivered or
// for ctx to end. It is safe to call more than once.
func (p *Publisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	ctxlog.FromContext(ctx).Debug("Event publisher closed.", "build_id", p.buildID, "sent", p.Sent(), "failed", p.Failed(), "dropped", p.Dropped())
	return nil
}

func modelEvent(kind Kind, key modelkey.Key) Event {
	return Event{Kind: kind, Model: key.Name(), Type: key.Type().String()}
}

// ModelPosted implements canonical.Observer.
func (p *Publisher) ModelPosted(key modelkey.Key) {
	p.publish(modelEvent(KindModelPosted, key))
}

// RealizationFinished implements canonical.Observer.
func (p *Publisher) RealizationFinished(key modelkey.Key, elapsed time.Duration, err error) {
	ev := modelEvent(KindModelRealized, key)
	ev.Elapsed = elapsed
	ev.Outcome = metrics.Outcome(err)
	if err != nil {
		ev.Error = err.Error()
	}
	p.publish(ev)
}

// CopyCreated implements isolation.Observer.
func (p *Publisher) CopyCreated(key modelkey.Key, scopeID string) {
	ev := modelEvent(KindCopyCreated, key)
	ev.Scope = scopeID
	p.publish(ev)
}

// CopyReused implements isolation.Observer.
func (p *Publisher) CopyReused(key modelkey.Key, scopeID string) {
	ev := modelEvent(KindCopyReused, key)
	ev.Scope = scopeID
	p.publish(ev)
}

// CopyFailed implements isolation.Observer.
func (p *Publisher) CopyFailed(key modelkey.Key, scopeID string, err error) {
	ev := modelEvent(KindCopyFailed, key)
	ev.Scope = scopeID
	ev.Outcome = metrics.Outcome(err)
	ev.Error = err.Error()
	p.publish(ev)
}
