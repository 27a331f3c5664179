package detector

// TriggerMode selects how the number of frames of an acquisition run is
// bounded.
type TriggerMode uint8

const (
	// FreeRun acquires an unbounded number of frames until externally
	// stopped.
	FreeRun TriggerMode = iota
	// SetFrames acquires a fixed number of frames per run.
	SetFrames
)

// String returns string representation of the trigger mode.
func (m TriggerMode) String() string {
	switch m {
	case FreeRun:
		return "free-run"
	case SetFrames:
		return "set-frames"
	default:
		return "unknown"
	}
}

// CamTriggerMode is the trigger source setting of the detector camera.
type CamTriggerMode int

const (
	InternalSeries CamTriggerMode = iota
	InternalEnable
	ExternalSeries
	ExternalEnable
)

// Camera image modes.
const (
	ImageModeSingle = iota
	ImageModeMultiple
	ImageModeContinuous
)

// FreeRunMaxImages is the camera trigger count standing in for an unbounded
// free run; the camera cannot actually free run.
const FreeRunMaxImages = 1_000_000
