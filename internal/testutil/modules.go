package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/buildmodels/internal/router"
	"github.com/specialistvlad/buildmodels/internal/settings"
)

// CountingModule posts one model of type T and counts how often its work
// runs. Sleep delays the work, widening the window for concurrent demand.
type CountingModule[T any] struct {
	Model string
	Value func() (T, error)
	Sleep time.Duration

	calls atomic.Int32
	mu    sync.Mutex
	runs  []ExecutionRecord
}

// ExecutionRecord holds the start and end times of one work execution.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Register registers the module's plugin, named after the model.
func (m *CountingModule[T]) Register(r *settings.Registry) {
	r.Register(&countingPlugin[T]{m: m})
}

// Calls returns how many times the work ran.
func (m *CountingModule[T]) Calls() int {
	return int(m.calls.Load())
}

// Runs returns the recorded executions.
func (m *CountingModule[T]) Runs() []ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutionRecord(nil), m.runs...)
}

type countingPlugin[T any] struct {
	m *CountingModule[T]
}

func (p *countingPlugin[T]) Name() string { return "counting_" + p.m.Model }

func (p *countingPlugin[T]) Apply(ctx context.Context, r *router.Router) error {
	m := p.m
	_, err := router.Post(ctx, r, m.Model, func(context.Context) (T, error) {
		m.calls.Add(1)
		start := time.Now()
		time.Sleep(m.Sleep)
		v, err := m.Value()
		m.mu.Lock()
		m.runs = append(m.runs, ExecutionRecord{Start: start, End: time.Now()})
		m.mu.Unlock()
		return v, err
	})
	return err
}
