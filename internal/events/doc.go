// Package events streams build activity to a socket.io server.
//
// A Publisher implements router.Observer. Notifications are queued and sent
// from a single goroutine, so a slow or unreachable server never blocks model
// realization; events that do not fit in the queue are dropped and counted.
package events
