package detector

import "sync/atomic"

// AcqState represents the stages of the detector acquisition lifecycle.
type AcqState uint32

const (
	UnstagedState AcqState = iota
	StagingState
	ArmedState
	AcquiringState
	UnstagingState
)

// String returns string representation of the current state.
func (s AcqState) String() string {
	switch s {
	case UnstagedState:
		return "unstaged"
	case StagingState:
		return "staging"
	case ArmedState:
		return "armed"
	case AcquiringState:
		return "acquiring"
	case UnstagingState:
		return "unstaging"
	default:
		return "unknown"
	}
}

// AtomicAcqState tracks the acquisition lifecycle state.
//
// Only the controller mutates it; callers serialize stage/unstage pairs per
// detector instance, so the CAS transitions exist to catch misuse rather than
// to arbitrate real concurrency.
type AtomicAcqState struct {
	state atomic.Uint32
}

// Get returns the current state of the AtomicAcqState.
func (st *AtomicAcqState) Get() AcqState {
	return AcqState(st.state.Load())
}

// Set sets the state of the AtomicAcqState to the given state.
func (st *AtomicAcqState) Set(state AcqState) {
	st.state.Store(uint32(state))
}

func (st *AtomicAcqState) String() string {
	return st.Get().String()
}

func (st *AtomicAcqState) IsUnstaged() bool {
	return st.Get() == UnstagedState
}

func (st *AtomicAcqState) IsAcquiring() bool {
	return st.Get() == AcquiringState
}

// ToStaging transitions from UnstagedState to StagingState.
func (st *AtomicAcqState) ToStaging() bool {
	return st.state.CompareAndSwap(uint32(UnstagedState), uint32(StagingState))
}

// ToArmed transitions from StagingState to ArmedState.
func (st *AtomicAcqState) ToArmed() bool {
	return st.state.CompareAndSwap(uint32(StagingState), uint32(ArmedState))
}

// ToAcquiring transitions from ArmedState to AcquiringState.
func (st *AtomicAcqState) ToAcquiring() bool {
	return st.state.CompareAndSwap(uint32(ArmedState), uint32(AcquiringState))
}

// ToUnstaging transitions to UnstagingState from any state except
// UnstagedState. Unstaging is the corrective path after a failed stage, so it
// is deliberately permissive.
func (st *AtomicAcqState) ToUnstaging() bool {
	if st.IsUnstaged() {
		return false
	}
	st.Set(UnstagingState)

	return true
}

// ToUnstaged transitions from UnstagingState to UnstagedState.
func (st *AtomicAcqState) ToUnstaged() bool {
	if st.IsUnstaged() {
		return true
	}

	return st.state.CompareAndSwap(uint32(UnstagingState), uint32(UnstagedState))
}
