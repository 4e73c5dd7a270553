// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the build lifecycle: load the build
// description, apply the settings plugins to a fresh build session, evaluate
// every project, and report. It is decoupled from any specific entrypoint
// like a CLI or server.
package app
