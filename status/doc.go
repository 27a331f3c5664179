// Package status provides one-shot asynchronous operation results for hardware
// control, with AND-composition, bounded waits and progress observation.
//
// A Status represents a single pending hardware operation, or an AND-composite
// of several. A composite resolves successful only when every underlying
// operation succeeds, and resolves failed as soon as any of them fails.
// Wait blocks the caller with a deadline; the event delivery that resolves a
// Status keeps running independently, so a blocked composite still observes
// updates from other goroutines.
//
// AwaitValue builds a Status that resolves when a readback attribute reaches a
// target value. It is event driven: it registers a one-shot watcher on the
// readback's change notifications instead of polling.
package status
