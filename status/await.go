package status

// Watchable is a readback attribute that delivers change notifications.
// It is satisfied by signal.Readback implementations.
type Watchable[T comparable] interface {
	// Get returns the current value.
	Get() T
	// Watch registers fn to be invoked on every value change and returns a
	// cancel function releasing the subscription.
	Watch(fn func(T)) (cancel func())
}

// AwaitValue returns a Status that resolves successful when rb reports the
// target value.
//
// The waiter is event driven: it subscribes to the readback's change
// notifications and never polls. The subscription is released as soon as the
// Status resolves, including a failed resolution from a Wait deadline.
func AwaitValue[T comparable](rb Watchable[T], target T) *Status {
	s := NewStatus()

	cancel := rb.Watch(func(v T) {
		if v == target {
			s.Resolve(nil)
		}
	})
	s.onFinished(cancel)

	// Re-check after subscribing; the value may already be there, or may have
	// arrived between the caller's last observation and the subscription.
	if rb.Get() == target {
		s.Resolve(nil)
	}

	return s
}
