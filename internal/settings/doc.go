// Package settings holds the producers of a build: plugins that post models
// to the build's router before any project is evaluated.
//
// Plugins are compiled in through modules (see the modules directory) or
// derived from the build description. Each plugin is registered once by
// name; registering a second plugin under a used name is a programming error
// and panics.
package settings
