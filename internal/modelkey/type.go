package modelkey

import "reflect"

// TypeTag identifies the declared Go type of a model. The zero TypeTag
// declares nothing and is rejected by the registry.
type TypeTag struct {
	rt reflect.Type
}

// TypeFor returns the tag for the type parameter T.
func TypeFor[T any]() TypeTag {
	return TypeTag{rt: reflect.TypeFor[T]()}
}

// TypeOf returns the tag for an already known reflect.Type.
func TypeOf(rt reflect.Type) TypeTag {
	return TypeTag{rt: rt}
}

// Type returns the underlying reflect.Type, nil for the zero tag.
func (t TypeTag) Type() reflect.Type { return t.rt }

// IsZero reports whether the tag declares no type.
func (t TypeTag) IsZero() bool { return t.rt == nil }

// String returns the Go spelling of the declared type.
func (t TypeTag) String() string {
	if t.rt == nil {
		return "<none>"
	}
	return t.rt.String()
}

// Accepts reports whether v can be stored under a key with this tag. A nil
// value is accepted only for kinds that have a nil value.
func (t TypeTag) Accepts(v any) bool {
	if t.rt == nil {
		return false
	}
	if v == nil {
		switch t.rt.Kind() {
		case reflect.Interface, reflect.Map, reflect.Slice, reflect.Pointer, reflect.Chan, reflect.Func:
			return true
		default:
			return false
		}
	}
	return reflect.TypeOf(v).AssignableTo(t.rt)
}
