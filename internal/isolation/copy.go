package isolation

import (
	"errors"
	"fmt"
	"reflect"
	"time"
)

// ErrUncopyable indicates a value that cannot be deep-copied.
var ErrUncopyable = errors.New("value cannot be isolated")

// Copier is implemented by values that know how to copy themselves. The
// returned value must be independent of the receiver and must be assignable
// to the receiver's type.
type Copier interface {
	IsolatedCopy() (any, error)
}

var (
	copierType = reflect.TypeFor[Copier]()
	timeType   = reflect.TypeFor[time.Time]()
)

// Copy returns a deep copy of v. Shared references and cycles inside v are
// reproduced in the copy.
func Copy(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	c := &copier{visited: make(map[visit]reflect.Value)}
	out, err := c.copy(reflect.ValueOf(v), "")
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

type visit struct {
	typ reflect.Type
	ptr uintptr
	n   int
}

type copier struct {
	visited map[visit]reflect.Value
}

func uncopyable(path string, format string, args ...any) error {
	if path == "" {
		path = "value"
	}
	return fmt.Errorf("%w: %s: %s", ErrUncopyable, path, fmt.Sprintf(format, args...))
}

func (c *copier) copy(v reflect.Value, path string) (reflect.Value, error) {
	t := v.Type()

	if t.Implements(copierType) && !isNil(v) {
		return c.custom(v, path)
	}

	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return v, nil

	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		if v.IsNil() {
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, uncopyable(path, "%s values are not supported", t.Kind())

	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(t), nil
		}
		elem, err := c.copy(v.Elem(), path)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(t).Elem()
		out.Set(elem)
		return out, nil

	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(t), nil
		}
		id := visit{typ: t, ptr: v.Pointer()}
		if seen, ok := c.visited[id]; ok {
			return seen, nil
		}
		out := reflect.New(t.Elem())
		c.visited[id] = out
		elem, err := c.copy(v.Elem(), path)
		if err != nil {
			return reflect.Value{}, err
		}
		out.Elem().Set(elem)
		return out, nil

	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(t), nil
		}
		id := visit{typ: t, ptr: v.Pointer(), n: v.Len()}
		if seen, ok := c.visited[id]; ok {
			return seen, nil
		}
		out := reflect.MakeSlice(t, v.Len(), v.Cap())
		c.visited[id] = out
		for i := 0; i < v.Len(); i++ {
			elem, err := c.copy(v.Index(i), fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(elem)
		}
		return out, nil

	case reflect.Array:
		out := reflect.New(t).Elem()
		for i := 0; i < v.Len(); i++ {
			elem, err := c.copy(v.Index(i), fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(elem)
		}
		return out, nil

	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(t), nil
		}
		id := visit{typ: t, ptr: v.Pointer()}
		if seen, ok := c.visited[id]; ok {
			return seen, nil
		}
		out := reflect.MakeMapWithSize(t, v.Len())
		c.visited[id] = out
		iter := v.MapRange()
		for iter.Next() {
			k, err := c.copy(iter.Key(), path)
			if err != nil {
				return reflect.Value{}, err
			}
			elem, err := c.copy(iter.Value(), fmt.Sprintf("%s[%v]", path, iter.Key()))
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(k, elem)
		}
		return out, nil

	case reflect.Struct:
		// time.Time is immutable by contract; its unexported fields are safe to share.
		if t == timeType {
			return v, nil
		}
		out := reflect.New(t).Elem()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				return reflect.Value{}, uncopyable(path, "%s has unexported field %s", t, f.Name)
			}
			elem, err := c.copy(v.Field(i), path+"."+f.Name)
			if err != nil {
				return reflect.Value{}, err
			}
			out.Field(i).Set(elem)
		}
		return out, nil
	}

	return reflect.Value{}, uncopyable(path, "unsupported kind %s", t.Kind())
}

func (c *copier) custom(v reflect.Value, path string) (reflect.Value, error) {
	if !v.CanInterface() {
		return reflect.Value{}, uncopyable(path, "%s is not accessible", v.Type())
	}
	cp, err := v.Interface().(Copier).IsolatedCopy()
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %s: %w", ErrUncopyable, pathOrValue(path), err)
	}
	if cp == nil {
		if isNilable(v.Type()) {
			return reflect.Zero(v.Type()), nil
		}
		return reflect.Value{}, uncopyable(path, "IsolatedCopy of %s returned nil", v.Type())
	}
	out := reflect.ValueOf(cp)
	if !out.Type().AssignableTo(v.Type()) {
		return reflect.Value{}, uncopyable(path, "IsolatedCopy of %s returned %s", v.Type(), out.Type())
	}
	if out.Type() != v.Type() {
		conv := reflect.New(v.Type()).Elem()
		conv.Set(out)
		out = conv
	}
	return out, nil
}

func pathOrValue(path string) string {
	if path == "" {
		return "value"
	}
	return path
}

func isNilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
		return true
	}
	return false
}

func isNil(v reflect.Value) bool {
	return isNilable(v.Type()) && v.IsNil()
}
