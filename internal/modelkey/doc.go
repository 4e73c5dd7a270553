// Package modelkey defines the key space of the build model registry.
//
// A Key addresses one model by name and carries the Go type the model is
// declared to have. Producers and consumers construct keys independently, so
// a Key is a plain comparable value: two keys are equal iff both the name and
// the type tag match. No uniqueness is enforced here; the canonical registry
// rejects a second model posted under an already used name.
//
// Type compatibility is never decided at construction time. The registry
// compares the requested tag with the declared one when a model is retrieved,
// and refuses the request instead of trusting a caller-side cast.
package modelkey
