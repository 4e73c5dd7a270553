// Package canonical provides the canonical model registry: one lazily
// evaluated, memoized computation per posted key.
//
// # Purpose
//
// A producer posts a unit of Work under a key. Nothing runs at that point.
// The first consumer that asks for the key runs the work; every other
// consumer, concurrent or later, observes the same outcome. The outcome is
// permanent for the lifetime of the registry, including failures: a key
// whose work failed keeps failing with the same error and the work is never
// invoked again.
//
// # State Machine
//
// Every entry moves through
//
//	Pending ──first demand──▶ Computing ──success──▶ Realized
//	                                    └──failure──▶ Failed
//
// Realized and Failed are terminal.
//
// # Concurrency Model
//
// Entries live in a sync.Map keyed by model name, so unrelated keys never
// contend on a shared lock. Single-flight per key is an atomic
// compare-and-swap from Pending to Computing: the winner runs the work, all
// other callers wait on the entry's completion channel. No lock is held while
// work runs, so a slow producer only delays consumers of its own key.
//
// A waiter can stop waiting when its own context is cancelled; the entry is
// not affected. The work itself runs under a context detached from the
// triggering caller's cancellation, because its outcome is shared by every
// consumer and cached for good.
package canonical
