// Package config defines the format-agnostic description of a build: the
// models posted by the build's settings and the projects that consume them,
// along with the Loader and Converter interfaces implemented per format.
//
// Concrete implementations, such as for HCL, are provided in separate
// packages.
package config
