// Package evaluator plays the consumer side of a build: every project of the
// build description requests the models it consumes, in parallel, each
// through its own scope.
//
// Projects are evaluated concurrently up to a worker limit. A project stops
// at its first failed request; other projects are unaffected. Everything a
// project observed is recorded in a Report, which prints in project path
// order regardless of scheduling.
package evaluator
