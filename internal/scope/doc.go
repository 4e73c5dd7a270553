/*
Package scope provides consumer scope identities for the build model registry.

A Scope is an isolation boundary: every scope that retrieves a model receives
its own copy of the model's value, created once and reused for the rest of the
build. The registry never creates scopes; callers supply them.

The usual scope is a project, identified by its path in the build: the root
project is `:`, its children are `:a`, `:a:b` and so on. This package parses
and validates those paths so that two spellings of the same project can never
become two scopes.
*/
package scope
