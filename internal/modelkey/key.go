package modelkey

import "fmt"

// Key identifies a model by name and declared type.
// Examples:
//
//	modelkey.Of[[]string]("someKey")
//	modelkey.New("env", modelkey.TypeFor[map[string]string]())
type Key struct {
	name string
	typ  TypeTag
}

// New creates a key. It is a pure constructor.
func New(name string, typ TypeTag) Key {
	return Key{name: name, typ: typ}
}

// Of creates a key whose declared type is T.
func Of[T any](name string) Key {
	return Key{name: name, typ: TypeFor[T]()}
}

// Name returns the model name.
func (k Key) Name() string { return k.name }

// Type returns the declared type tag.
func (k Key) Type() TypeTag { return k.typ }

// IsZero reports whether the key is incomplete.
func (k Key) IsZero() bool { return k.name == "" || k.typ.IsZero() }

// String returns a human-readable representation "name (type)".
func (k Key) String() string {
	switch {
	case k.name == "" && k.typ.IsZero():
		return "<empty>"
	case k.name == "":
		return fmt.Sprintf("<unnamed> (%s)", k.typ)
	default:
		return fmt.Sprintf("%s (%s)", k.name, k.typ)
	}
}
