// Package isolation hands each consumer scope its own copy of a realized
// model value.
//
// The canonical value of a model is shared by the whole build and must never
// be observed mutated. A Layer produces, per (model name, scope), one deep
// copy of the canonical value on first request and returns that same copy on
// every later request from the same scope. Mutations a scope makes to its
// copy are therefore visible to that scope only, and stay visible to it.
//
// Copies are made by Copy. A value whose type implements Copier supplies its
// own copy; anything else is copied structurally by reflection. Values that
// cannot be copied structurally (channels, functions, unsafe pointers and
// structs with unexported fields) are rejected with ErrUncopyable.
//
// A failed copy is not cached: the next request from the same scope tries
// again.
package isolation
