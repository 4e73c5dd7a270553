// Package modelerr defines the failure taxonomy of the build model registry.
//
// Every failure is reported as an *Error whose Kind is one of the sentinel
// errors below, so callers match with errors.Is. When a failure has an
// underlying cause (a producer error, a copy failure) the cause is wrapped as
// well and stays reachable through errors.Is and errors.As.
package modelerr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/buildmodels/internal/modelkey"
)

var (
	// ErrDuplicateKey indicates a second model posted under a used name.
	ErrDuplicateKey = errors.New("duplicate model key")
	// ErrUnknownKey indicates a request for a model that was never posted.
	ErrUnknownKey = errors.New("unknown model key")
	// ErrTypeMismatch indicates that requested and declared types differ.
	ErrTypeMismatch = errors.New("model type mismatch")
	// ErrComputationFailed indicates that the producer work of a model failed.
	ErrComputationFailed = errors.New("model computation failed")
	// ErrIsolation indicates that a realized value could not be copied for a scope.
	ErrIsolation = errors.New("model isolation failed")
	// ErrInvalidKey indicates an incomplete key (empty name or no type).
	ErrInvalidKey = errors.New("invalid model key")
)

var kinds = []error{
	ErrDuplicateKey,
	ErrUnknownKey,
	ErrTypeMismatch,
	ErrComputationFailed,
	ErrIsolation,
	ErrInvalidKey,
}

// Error is a problem report for one registry failure.
type Error struct {
	Kind     error
	Key      modelkey.Key
	Scope    string // empty when the failure is not tied to a consumer scope
	Details  string
	Solution string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	sb.WriteString(" for ")
	sb.WriteString(e.Key.String())
	if e.Scope != "" {
		sb.WriteString(" in scope ")
		sb.WriteString(e.Scope)
	}
	if e.Details != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Details)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap exposes both the kind and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the sentinel kind of err, or nil when err is not a registry failure.
func KindOf(err error) error {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Label returns a short, stable name for a kind, used in logs and metric labels.
func Label(kind error) string {
	switch kind {
	case ErrDuplicateKey:
		return "duplicate_key"
	case ErrUnknownKey:
		return "unknown_key"
	case ErrTypeMismatch:
		return "type_mismatch"
	case ErrComputationFailed:
		return "computation_failed"
	case ErrIsolation:
		return "isolation"
	case ErrInvalidKey:
		return "invalid_key"
	default:
		return "other"
	}
}

func DuplicateKey(key modelkey.Key, existing modelkey.Key) error {
	return &Error{
		Kind:     ErrDuplicateKey,
		Key:      key,
		Details:  fmt.Sprintf("name %q is already posted as %s", key.Name(), existing),
		Solution: "post each model once per build, from a single settings plugin",
	}
}

func UnknownKey(key modelkey.Key) error {
	return &Error{
		Kind:     ErrUnknownKey,
		Key:      key,
		Details:  "no model was posted under this name",
		Solution: "post the model from a settings plugin before projects request it",
	}
}

func TypeMismatch(requested, declared modelkey.Key) error {
	return &Error{
		Kind:     ErrTypeMismatch,
		Key:      requested,
		Details:  fmt.Sprintf("requested type %s, declared type %s", requested.Type(), declared.Type()),
		Solution: "request the model with the type it was posted with",
	}
}

func ComputationFailed(key modelkey.Key, cause error) error {
	return &Error{
		Kind:     ErrComputationFailed,
		Key:      key,
		Err:      cause,
		Solution: "fix the producer; the failure is kept for the rest of the build",
	}
}

func Isolation(key modelkey.Key, scope string, cause error) error {
	return &Error{
		Kind:     ErrIsolation,
		Key:      key,
		Scope:    scope,
		Err:      cause,
		Solution: "publish a structurally copyable value or implement isolation.Copier",
	}
}

func InvalidKey(key modelkey.Key) error {
	return &Error{
		Kind:    ErrInvalidKey,
		Key:     key,
		Details: "a key needs a non-empty name and a declared type",
	}
}
