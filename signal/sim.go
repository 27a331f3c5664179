package signal

import (
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-beamline/internal/util"
	"github.com/arloliu/go-beamline/status"
)

// watcherIDGen generates unique watcher registration IDs across all Sim
// instances.
var watcherIDGen atomic.Uint64

// Sim is an in-process Signal and Readback implementation.
//
// By default a Sim auto-settles: Set applies the value, notifies watchers and
// returns an already-successful status, modeling hardware that acknowledges
// immediately. In manual mode (WithManualSettle) Set still applies the value
// but returns a pending status that the test resolves explicitly, modeling
// slow hardware.
type Sim[T comparable] struct {
	name     string
	mu       sync.Mutex
	value    T
	manual   bool
	pending  []*status.Status
	journal  *Journal
	watchers *xsync.MapOf[uint64, func(T)]
}

var (
	_ Signal[int]   = (*Sim[int])(nil)
	_ Readback[int] = (*Sim[int])(nil)
)

// SimOption configures a Sim.
type SimOption[T comparable] func(*Sim[T])

// WithManualSettle makes Set return pending statuses that the caller resolves
// via SettleAll or LastSetStatus.
func WithManualSettle[T comparable]() SimOption[T] {
	return func(s *Sim[T]) { s.manual = true }
}

// WithJournal records every Set and Put on the shared journal, for call-order
// assertions across several signals.
func WithJournal[T comparable](j *Journal) SimOption[T] {
	return func(s *Sim[T]) { s.journal = j }
}

// NewSim creates a Sim with the given name and initial value.
func NewSim[T comparable](name string, initial T, opts ...SimOption[T]) *Sim[T] {
	s := &Sim[T]{
		name:     name,
		value:    initial,
		watchers: xsync.NewMapOf[uint64, func(T)](),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the signal name.
func (s *Sim[T]) Name() string { return s.name }

// Get returns the current value.
func (s *Sim[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.value
}

// Set applies value, notifies watchers and returns the acknowledgment status.
func (s *Sim[T]) Set(value T) *status.Status {
	s.mu.Lock()
	s.value = value
	var st *status.Status
	if s.manual {
		st = status.NewStatus()
		s.pending = append(s.pending, st)
	} else {
		st = status.Successful()
	}
	s.mu.Unlock()

	s.record(".set")
	s.notify(value)

	return st
}

// Put applies value fire-and-forget and notifies watchers.
func (s *Sim[T]) Put(value T) {
	s.mu.Lock()
	s.value = value
	s.mu.Unlock()

	s.record(".put")
	s.notify(value)
}

// SimPut injects a hardware-side value change: the value is applied and
// watchers are notified, but nothing is journaled. Tests use it to simulate
// readback updates arriving from the device.
func (s *Sim[T]) SimPut(value T) {
	s.mu.Lock()
	s.value = value
	s.mu.Unlock()

	s.notify(value)
}

// Watch registers fn for change notifications and returns a cancel function.
func (s *Sim[T]) Watch(fn func(T)) (cancel func()) {
	id := watcherIDGen.Add(1)
	s.watchers.Store(id, fn)

	return func() { s.watchers.Delete(id) }
}

// WatcherCount returns the number of live subscriptions.
func (s *Sim[T]) WatcherCount() int {
	return s.watchers.Size()
}

// PendingCount returns the number of unresolved Set statuses in manual mode.
func (s *Sim[T]) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.pending)
}

// LastSetStatus returns the most recent pending Set status, or nil.
func (s *Sim[T]) LastSetStatus() *status.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}

	return s.pending[len(s.pending)-1]
}

// SettleAll resolves every pending Set status with err and clears the list.
func (s *Sim[T]) SettleAll(err error) {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, st := range pending {
		st.Resolve(err)
	}
}

func (s *Sim[T]) record(op string) {
	if s.journal != nil {
		s.journal.Record(s.name + op)
	}
}

func (s *Sim[T]) notify(value T) {
	s.watchers.Range(func(_ uint64, fn func(T)) bool {
		fn(value)
		return true
	})
}

// Journal records signal operations in call order. It is shared between
// several Sim instances to assert cross-signal ordering.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

// NewJournal creates an empty Journal.
func NewJournal() *Journal {
	return &Journal{}
}

// Record appends an entry.
func (j *Journal) Record(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = append(j.entries, entry)
}

// Entries returns a snapshot of the recorded entries.
func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	return util.CloneSlice(j.entries, 0)
}

// Len returns the number of recorded entries.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	return len(j.entries)
}
