package events

import (
	"time"
)

// EventName is the socket.io event every build event is emitted under.
const EventName = "build_event"

// Kind identifies what happened.
type Kind string

const (
	KindModelPosted   Kind = "model_posted"
	KindModelRealized Kind = "model_realized"
	KindCopyCreated   Kind = "copy_created"
	KindCopyReused    Kind = "copy_reused"
	KindCopyFailed    Kind = "copy_failed"
)

// Event is one notification about a model.
type Event struct {
	BuildID string
	Kind    Kind
	Model   string
	Type    string
	Scope   string
	Outcome string
	Elapsed time.Duration
	Error   string
	Time    time.Time
}

// Payload returns the event in the shape emitted on the wire. Empty optional
// fields are left out.
func (e Event) Payload() map[string]any {
	p := map[string]any{
		"build_id": e.BuildID,
		"kind":     string(e.Kind),
		"model":    e.Model,
		"type":     e.Type,
		"time":     e.Time.UTC().Format(time.RFC3339Nano),
	}
	if e.Scope != "" {
		p["scope"] = e.Scope
	}
	if e.Outcome != "" {
		p["outcome"] = e.Outcome
	}
	if e.Kind == KindModelRealized {
		p["elapsed_ms"] = float64(e.Elapsed) / float64(time.Millisecond)
	}
	if e.Error != "" {
		p["error"] = e.Error
	}
	return p
}
