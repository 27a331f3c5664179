package status

import (
	"sync"
	"time"

	"github.com/arloliu/go-beamline/internal/pool"
	"github.com/arloliu/go-beamline/internal/util"
)

// Progress reports the completion state of a Status to watchers registered
// with Watch.
//
// For a composite, Current counts the atomic operations resolved successfully
// so far out of Total. Fraction stays in (0, 1) for intermediate updates and
// reaches 1 exactly once, on successful final resolution.
type Progress struct {
	Current  int
	Total    int
	Fraction float64
	Finished bool
}

// WatchFunc receives progress updates from a Status.
//
// Note: watchers are invoked synchronously on the goroutine that resolved the
// underlying operation. Take care with long-running implementations.
type WatchFunc func(Progress)

// Status is a one-shot asynchronous operation result.
//
// A zero Status is not usable; create instances with NewStatus, Successful,
// Failed, Combine or AwaitValue. A Status resolves exactly once; later
// resolutions are no-ops.
type Status struct {
	mu       sync.Mutex
	done     chan struct{}
	err      error
	finished bool

	// composite bookkeeping; total is 1 for a leaf
	leaves   []*Status
	total    int
	resolved int

	watchers []WatchFunc
	onFinish []func()
}

// NewStatus creates a pending Status representing a single atomic operation.
func NewStatus() *Status {
	return &Status{done: make(chan struct{}), total: 1}
}

// Successful creates a Status that is already resolved successful.
func Successful() *Status {
	s := NewStatus()
	s.Resolve(nil)
	return s
}

// Failed creates a Status that is already resolved failed with err.
func Failed(err error) *Status {
	s := NewStatus()
	s.Resolve(err)
	return s
}

// Resolve finishes the Status. A nil err marks it successful, a non-nil err
// marks it failed. Resolving an already finished Status is a no-op.
func (s *Status) Resolve(err error) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.err = err
	if err == nil {
		s.resolved = s.total
	}
	final := s.progressLocked()
	watchers := util.CloneSlice(s.watchers, 0)
	hooks := util.CloneSlice(s.onFinish, 0)
	s.watchers = nil
	s.onFinish = nil
	close(s.done)
	s.mu.Unlock()

	for _, w := range watchers {
		w(final)
	}
	for _, fn := range hooks {
		fn()
	}
}

// Finished returns true once the Status has resolved, successfully or not.
func (s *Status) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.finished
}

// Success returns true if the Status has resolved successfully.
func (s *Status) Success() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.finished && s.err == nil
}

// Err returns the resolution error, or nil if the Status is pending or
// resolved successfully.
func (s *Status) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

// Done returns a channel that is closed when the Status resolves.
func (s *Status) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the Status resolves or timeout elapses.
//
// A timeout that elapses while the Status is still pending resolves it failed
// with ErrWaitTimeout. A non-positive timeout waits indefinitely.
//
// It returns nil on success, or the resolution error otherwise.
func (s *Status) Wait(timeout time.Duration) error {
	if timeout <= 0 {
		<-s.done
		return s.Err()
	}

	timer := pool.GetTimer(timeout)
	defer pool.PutTimer(timer)

	select {
	case <-s.done:
		return s.Err()
	case <-timer.C:
		// The Status may resolve between the timer firing and Resolve taking
		// the lock; Resolve is a no-op then and Err reports the real outcome.
		s.Resolve(ErrWaitTimeout)
		return s.Err()
	}
}

// Watch registers fn to receive progress updates.
//
// If the Status is already finished, fn is invoked immediately with the final
// progress. Intermediate updates are delivered with strictly increasing
// Current and Fraction in (0, 1).
func (s *Status) Watch(fn WatchFunc) {
	s.mu.Lock()
	if s.finished {
		final := s.progressLocked()
		s.mu.Unlock()
		fn(final)
		return
	}
	s.watchers = append(s.watchers, fn)
	s.mu.Unlock()
}

// onFinished registers fn to run once, after the Status resolves. Used for
// deterministic cleanup such as releasing readback subscriptions.
func (s *Status) onFinished(fn func()) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		fn()
		return
	}
	s.onFinish = append(s.onFinish, fn)
	s.mu.Unlock()
}

func (s *Status) progressLocked() Progress {
	p := Progress{
		Current:  s.resolved,
		Total:    s.total,
		Finished: s.finished,
	}
	if s.total > 0 {
		p.Fraction = float64(s.resolved) / float64(s.total)
	}
	return p
}
