// Package signal provides the device attribute layer for go-beamline.
//
// A Signal is a settable control point on a piece of hardware; setting it
// starts an asynchronous operation whose acknowledgment arrives later. A
// Readback is a read-only attribute that delivers change notifications, which
// the status package turns into event-driven waits.
//
// The device topology (which network address maps to which control point) is
// out of scope here; controllers are assembled from Signal and Readback
// values by beamline-specific construction code. The Sim implementation backs
// both interfaces in process and is used by tests and examples.
package signal

import (
	"github.com/arloliu/go-beamline/status"
)

// Signal is a settable hardware attribute.
type Signal[T comparable] interface {
	// Get returns the last commanded value.
	Get() T
	// Set commands a new value and returns a Status resolving when the
	// hardware acknowledges the write.
	Set(value T) *status.Status
	// Put commands a new value fire-and-forget, with no acknowledgment.
	Put(value T)
}

// Readback is a read-only hardware attribute with change notifications.
type Readback[T comparable] interface {
	// Get returns the current value.
	Get() T
	// Watch registers fn to be invoked on every value change and returns a
	// cancel function releasing the subscription.
	//
	// Note: fn is invoked synchronously on the goroutine that delivered the
	// change. Take care with long-running implementations.
	Watch(fn func(T)) (cancel func())
}
