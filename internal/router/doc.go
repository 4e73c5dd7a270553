// Package router is the entry point of the build model registry.
//
// Producers post models with PostModel; consumers obtain a Handle with
// GetBuildModel and call Handle.Get with their own scope. Posting never runs
// work, obtaining a handle never runs work, and Get runs a model's work at
// most once per router regardless of how many scopes ask for it. Every scope
// receives its own isolated copy of the value, stable across its calls.
//
// A Router lives as long as one build. Discarding it discards all canonical
// and isolated entries.
package router
