// Package filewriter defines the contract of the external streaming writer
// subsystem that persists detector frames to disk.
//
// Only the contract is specified here; the real subsystem runs out of
// process and owns its own internals. The Sim implementation backs the
// contract in process for tests and examples.
package filewriter

import (
	"github.com/arloliu/go-beamline/signal"
	"github.com/arloliu/go-beamline/status"
)

// Filewriter is the writer subsystem contract used by the detector
// acquisition controller.
type Filewriter interface {
	// ClearErrors resets any latched error state on the writer nodes.
	// It is idempotent and fire-and-forget.
	ClearErrors()

	// CheckInitialised reports whether the writer is ready to be configured.
	// When not ready it returns the writer's own reason string.
	CheckInitialised() (ok bool, reason string)

	// CheckState reports overall writer health.
	CheckState() bool

	// CreateFinishedStatus returns a status resolving successful when every
	// constituent write node reports complete.
	CreateFinishedStatus() *status.Status

	// Stop commands the writer to stop capturing.
	Stop() *status.Status

	// Configuration signals.
	FilePath() signal.Signal[string]
	FileName() signal.Signal[string]
	DataType() signal.Signal[string]
	NumCapture() signal.Signal[int]
	NumFramesChunks() signal.Signal[int]
	ImageHeight() signal.Signal[int]
	ImageWidth() signal.Signal[int]
	NumRowChunks() signal.Signal[int]
	NumColChunks() signal.Signal[int]
	Capture() signal.Signal[int]
	StartTimeout() signal.Signal[int]

	// Independently awaitable readbacks.
	NumCaptured() signal.Readback[int]
	WriterID() signal.Readback[string]
	MetaFileName() signal.Readback[string]
	MetaReady() signal.Readback[int]
	FanReady() signal.Readback[int]
}
