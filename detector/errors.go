package detector

import "errors"

var (
	// ErrParamsNotSet indicates that SetParams was never called before a
	// lifecycle operation.
	ErrParamsNotSet = errors.New("acquisition parameters must be set before staging")

	// ErrSizeConstantsNotSet indicates missing detector size constants in the
	// acquisition parameters.
	ErrSizeConstantsNotSet = errors.New("detector size constants must be set")

	// ErrBeamConverterNotSet indicates a missing beam position converter in
	// the acquisition parameters.
	ErrBeamConverterNotSet = errors.New("beam xy converter must be set")

	// ErrWriterNotInitialised indicates that the writer subsystem reported
	// not-ready during staging. The writer's own reason string is appended to
	// this error; staging aborts before any configuration is applied.
	ErrWriterNotInitialised = errors.New("filewriter not initialised")

	// ErrInvalidTransition is returned when an attempt is made to move the
	// acquisition lifecycle to a state the current state does not allow.
	ErrInvalidTransition = errors.New("invalid acquisition state transition")
)
