package aperture

import "errors"

var (
	// ErrPositionsNotLoaded indicates that no preset table was loaded before
	// a move was commanded.
	ErrPositionsNotLoaded = errors.New("aperture positions have not been loaded")

	// ErrInvalidMove indicates a commanded target that is not bit-exact equal
	// to one of the four presets. No motion is started.
	ErrInvalidMove = errors.New("invalid aperture move")

	// ErrUndefinedMove indicates that the requested z plane differs from the
	// commanded one; the safe move is not defined for positions outside of
	// LARGE, MEDIUM, SMALL and ROBOT_LOAD.
	ErrUndefinedMove = errors.New("safe move is not defined outside of the known presets")

	// ErrMoveDeferred indicates that the aperture z axis had not reported
	// motion-complete, so the coordinator deliberately took no action. This
	// is a conservative no-op, not a fault; the caller retries later.
	ErrMoveDeferred = errors.New("aperture z axis still moving, move deferred")
)
