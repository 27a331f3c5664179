// Package aperture sequences two mechanically coupled actuators, the
// aperture and the scatterguard, so that a preset change can never drive
// them into a physical collision.
//
// The safety invariant is a two-phase ordering barrier: the trailing
// actuator's moves are not even issued until the leading actuator's composite
// operation reports finished. A flat AND of independently started operations
// would let the motors cross.
package aperture

import (
	"fmt"
	"time"

	"github.com/arloliu/go-beamline/logger"
	"github.com/arloliu/go-beamline/signal"
	"github.com/arloliu/go-beamline/status"
)

// Axis is one motor of an actuator.
type Axis struct {
	// UserSetpoint is the commanded position; setting it starts a move.
	UserSetpoint signal.Signal[float64]
	// UserReadback is the actual position.
	UserReadback signal.Readback[float64]
	// DoneMove reports 1 when the motor has completed its last commanded
	// move.
	DoneMove signal.Readback[int]
}

// Move commands the axis to target and returns the motion status.
func (ax Axis) Move(target float64) *status.Status {
	return ax.UserSetpoint.Set(target)
}

// ApertureAxes bundles the three aperture motors.
type ApertureAxes struct {
	X Axis
	Y Axis
	Z Axis
}

// ScatterguardAxes bundles the two scatterguard motors.
type ScatterguardAxes struct {
	X Axis
	Y Axis
}

// ApertureScatterguard coordinates safe joint moves of the aperture and
// scatterguard between the four beamline presets.
//
// It is not safe for concurrent use; callers serialize moves per instance.
type ApertureScatterguard struct {
	aperture     ApertureAxes
	scatterguard ScatterguardAxes
	positions    *Positions

	// phaseTimeout bounds the wait on the leading actuator; zero waits
	// indefinitely, matching motors that report completion themselves.
	phaseTimeout time.Duration
	logger       logger.Logger
}

// CoordinatorOption configures an ApertureScatterguard.
type CoordinatorOption func(*ApertureScatterguard)

// WithPhaseTimeout bounds the wait for the leading actuator of a safe move.
func WithPhaseTimeout(d time.Duration) CoordinatorOption {
	return func(a *ApertureScatterguard) { a.phaseTimeout = d }
}

// WithCoordinatorLogger overrides the coordinator logger.
func WithCoordinatorLogger(l logger.Logger) CoordinatorOption {
	return func(a *ApertureScatterguard) { a.logger = l }
}

// NewApertureScatterguard creates a coordinator over the given axes. The
// preset table is loaded separately via LoadPositions, from the beamline
// configuration source, before any moves are attempted.
func NewApertureScatterguard(ap ApertureAxes, sg ScatterguardAxes, opts ...CoordinatorOption) *ApertureScatterguard {
	a := &ApertureScatterguard{
		aperture:     ap,
		scatterguard: sg,
		logger:       logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// LoadPositions loads the preset table.
func (a *ApertureScatterguard) LoadPositions(positions Positions) {
	a.positions = &positions
}

// Set moves the actuator pair to pos, which must be bit-exact equal to one of
// the four loaded presets.
//
// It returns ErrInvalidMove before any motion for a target outside the preset
// table, ErrMoveDeferred (a retryable no-op, not a fault) while the aperture
// z axis is still moving, and ErrUndefinedMove when the requested z plane
// differs from the commanded one. On success the returned status resolves
// when the trailing actuator finishes.
func (a *ApertureScatterguard) Set(pos Position) (*status.Status, error) {
	if a.positions == nil {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidMove, ErrPositionsNotLoaded)
	}
	if !a.positions.Valid(pos) {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidMove, pos)
	}

	return a.safeMoveWithinDataCollectionRange(pos)
}

// safeMoveWithinDataCollectionRange moves the aperture and scatterguard
// combo safely to a new preset.
//
// The motors expose no deadband field, so "in a data collection position" is
// checked as motion-complete plus a matching commanded target. The ordering
// barrier compares the requested aperture y with the current one:
//
//   - moving the aperture up, away from the beam axis, the scatterguard goes
//     first and must fully complete;
//   - otherwise the aperture goes first and must fully complete.
func (a *ApertureScatterguard) safeMoveWithinDataCollectionRange(pos Position) (*status.Status, error) {
	if a.aperture.Z.DoneMove.Get() != 1 {
		a.logger.Warn("aperture z axis not settled, deferring move", "target", pos)
		return nil, ErrMoveDeferred
	}

	currentZ := a.aperture.Z.UserSetpoint.Get()
	if currentZ != pos.ApZ {
		return nil, fmt.Errorf("%w: commanded z %v, requested z %v", ErrUndefinedMove, currentZ, pos.ApZ)
	}

	currentY := a.aperture.Y.UserReadback.Get()
	if pos.ApY > currentY {
		sgStatus := status.Combine(
			a.scatterguard.X.Move(pos.SgX),
			a.scatterguard.Y.Move(pos.SgY),
		)
		if err := sgStatus.Wait(a.phaseTimeout); err != nil {
			return nil, err
		}

		final := status.CombineAll(sgStatus,
			a.aperture.X.Move(pos.ApX),
			a.aperture.Y.Move(pos.ApY),
			a.aperture.Z.Move(pos.ApZ),
		)

		return final, nil
	}

	apStatus := status.CombineAll(
		a.aperture.X.Move(pos.ApX),
		a.aperture.Y.Move(pos.ApY),
		a.aperture.Z.Move(pos.ApZ),
	)
	if err := apStatus.Wait(a.phaseTimeout); err != nil {
		return nil, err
	}

	final := status.CombineAll(apStatus,
		a.scatterguard.X.Move(pos.SgX),
		a.scatterguard.Y.Move(pos.SgY),
	)

	return final, nil
}
