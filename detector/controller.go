// Package detector implements the acquisition lifecycle controller of an
// area detector and its external streaming writer subsystem.
//
// The controller composes many independent asynchronous hardware writes into
// single logical transactions: it issues batches of attribute sets, ANDs the
// returned statuses, waits with a deadline and only then issues dependent
// follow-up operations. It never retries internally and performs no rollback;
// after a failed stage the caller issues the corrective action, typically an
// unstage.
//
// The controller is not reentrant and holds no internal lock: callers must
// serialize stage/unstage pairs per detector instance.
package detector

import (
	"fmt"

	"github.com/arloliu/go-beamline/filewriter"
	"github.com/arloliu/go-beamline/status"
)

// Controller orchestrates the stage, arm, acquire, unstage and disarm
// lifecycle against a camera and a writer subsystem.
type Controller struct {
	cam    *Cam
	writer filewriter.Filewriter
	cfg    *config
	state  AtomicAcqState

	// params is single-writer: set once via SetParams, read by every staging
	// step.
	params *Params

	// filewritersFinished is created while arming and consumed by Unstage.
	filewritersFinished *status.Status
}

// NewController creates a Controller for the given camera and writer
// subsystem.
func NewController(cam *Cam, writer filewriter.Filewriter, opts ...Option) (*Controller, error) {
	if cam == nil {
		return nil, fmt.Errorf("cam is nil")
	}
	if writer == nil {
		return nil, fmt.Errorf("writer is nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return &Controller{cam: cam, writer: writer, cfg: cfg}, nil
}

// SetParams validates and stores the acquisition parameters for the next
// run. Validation is synchronous and happens before any hardware write; all
// violated preconditions are reported in one aggregated error, one line each.
func (c *Controller) SetParams(params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}

	params.Directory = NormalizeDirectory(params.Directory)
	c.params = &params

	return nil
}

// Params returns the validated acquisition parameters, or nil before
// SetParams.
func (c *Controller) Params() *Params {
	return c.params
}

// State returns the current acquisition lifecycle state.
func (c *Controller) State() AcqState {
	return c.state.Get()
}

// Stage configures the camera and the writer subsystem for a run and arms
// the detector.
//
// A writer that reports not-initialised aborts immediately with the writer's
// own reason embedded, before any configuration is applied. A failed ROI
// switch is logged only; every other failure surfaces from the bounded waits
// as an error. Stage never retries; the caller decides the corrective action.
func (c *Controller) Stage() error {
	if c.params == nil {
		return ErrParamsNotSet
	}
	if !c.state.ToStaging() {
		return fmt.Errorf("%w: cannot stage from %s", ErrInvalidTransition, c.state.Get())
	}

	c.writer.ClearErrors()
	ok, reason := c.writer.CheckInitialised()
	if !ok {
		// no configuration has been applied yet; drop back to unstaged
		c.state.Set(UnstagedState)
		return fmt.Errorf("%w: %s", ErrWriterNotInitialised, reason)
	}

	if c.params.UseROIMode {
		c.enableROIMode()
	}

	st := c.SetDetectorThreshold(c.params.CurrentEnergy)
	st = status.Combine(st, c.setCamSignals())
	st = status.Combine(st, c.setWriterSignals())
	st = status.Combine(st, c.setMXSettings())
	st = status.Combine(st, c.setNumTriggersAndCaptures())

	c.cfg.logger.Info("waiting on parameter callbacks")
	c.watchStageProgress(st)
	if err := st.Wait(c.cfg.staleParamsTimeout); err != nil {
		return err
	}

	return c.armDetector()
}

// Unstage winds the run down and reports writer health.
//
// The boolean is the writer subsystem's own health verdict, observable but
// non-fatal at this layer; the error covers the waits of the unstage sequence
// itself. The non-ROI geometry restore runs regardless of the health outcome.
func (c *Controller) Unstage() (bool, error) {
	if c.params == nil {
		return false, ErrParamsNotSet
	}
	c.state.ToUnstaging()

	if c.params.TriggerMode == FreeRun {
		// In free run mode we have to wait on all frames being complete and
		// stop the writer ourselves.
		c.cfg.logger.Info("waiting on all frames")
		frames := status.AwaitValue(c.writer.NumCaptured(), c.params.FullNumberOfImages())
		if err := frames.Wait(c.cfg.frameCountTimeout); err != nil {
			return false, err
		}
		c.cfg.logger.Info("stopping filewriter")
		if err := c.writer.Stop().Wait(c.cfg.writerStopTimeout); err != nil {
			return false, err
		}
	}

	c.writer.StartTimeout().Put(c.cfg.writerShutdownTimeout)

	c.cfg.logger.Info("waiting on filewriter to finish")
	if c.filewritersFinished != nil {
		if err := c.filewritersFinished.Wait(c.cfg.writerFinishedTimeout); err != nil {
			return false, err
		}
	}

	c.cfg.logger.Info("disarming detector")
	c.disarmDetector()

	healthy := c.writer.CheckState()

	c.disableROIMode()
	c.state.ToUnstaged()

	return healthy, nil
}

// SetDetectorThreshold ensures the photon energy threshold on the camera is
// set to energy (in eV), within the configured tolerance.
//
// If the threshold is already within tolerance no write is issued and an
// already-successful status is returned, avoiding a redundant settling cycle.
func (c *Controller) SetDetectorThreshold(energy float64) *status.Status {
	current := c.cam.PhotonEnergy.Get()

	delta := current - energy
	if delta < 0 {
		delta = -delta
	}
	if delta > c.cfg.energyTolerance {
		return c.cam.PhotonEnergy.Set(energy)
	}

	return status.Successful()
}

func (c *Controller) enableROIMode() {
	c.changeROIMode(true)
}

func (c *Controller) disableROIMode() {
	c.changeROIMode(false)
}

// changeROIMode switches the camera ROI flag and the writer frame geometry
// together. The four writes are ANDed so a partial switch never goes
// unnoticed; a failure is logged only, since ROI is an optimization rather
// than a correctness requirement.
func (c *Controller) changeROIMode(enable bool) {
	dims := c.params.SizeConstants.DetSizePixels
	if enable {
		dims = c.params.SizeConstants.ROISizePixels
	}

	roi := 0
	if enable {
		roi = 1
	}

	st := c.cam.ROIMode.Set(roi)
	st = status.Combine(st, c.writer.ImageHeight().Set(dims.Height))
	st = status.Combine(st, c.writer.ImageWidth().Set(dims.Width))
	st = status.Combine(st, c.writer.NumRowChunks().Set(dims.Height))
	st = status.Combine(st, c.writer.NumColChunks().Set(dims.Width))

	if err := st.Wait(c.cfg.roiSwitchTimeout); err != nil {
		c.cfg.logger.Error("failed to switch ROI mode", "enable", enable, "error", err)
	}
}

// setCamSignals configures the camera acquisition settings.
func (c *Controller) setCamSignals() *status.Status {
	st := c.cam.AcquireTime.Set(c.params.ExposureTime)
	st = status.Combine(st, c.cam.AcquirePeriod.Set(c.params.ExposureTime))
	st = status.Combine(st, c.cam.NumExposures.Set(1))
	st = status.Combine(st, c.cam.ImageMode.Set(ImageModeMultiple))
	st = status.Combine(st, c.cam.TriggerMode.Set(int(ExternalSeries)))

	return st
}

// setWriterSignals configures the writer target path and filename.
//
// The writer must echo the configured filename back on two independent
// attributes, the metadata writer and the file writer, before this step
// completes. A stale filename from a prior run would silently misfile the
// whole collection.
func (c *Controller) setWriterSignals() *status.Status {
	if err := c.writer.NumFramesChunks().Set(1).Wait(c.cfg.captureStartTimeout); err != nil {
		return status.Failed(err)
	}

	fullName := c.params.FullFilename()

	st := c.writer.FilePath().Set(c.params.Directory)
	st = status.Combine(st, c.writer.FileName().Set(fullName))
	st = status.Combine(st, status.AwaitValue(c.writer.MetaFileName(), fullName))
	st = status.Combine(st, status.AwaitValue(c.writer.WriterID(), fullName))

	return st
}

// setMXSettings configures the beam centre and collection geometry derived
// from the energy and detector distance via the lookup converter.
func (c *Controller) setMXSettings() *status.Status {
	beamX, beamY := c.params.BeamPositionPixels()

	st := c.cam.BeamCenterX.Set(beamX)
	st = status.Combine(st, c.cam.BeamCenterY.Set(beamY))
	st = status.Combine(st, c.cam.DetDistance.Set(c.params.DetectorDistance))
	st = status.Combine(st, c.cam.OmegaStart.Set(c.params.OmegaStart))
	st = status.Combine(st, c.cam.OmegaIncr.Set(c.params.OmegaIncrement))

	return st
}

// setNumTriggersAndCaptures configures the trigger and image counts for the
// run.
//
// The camera cannot actually free run, so free-run mode sets a very large
// trigger count; a writer capture count of zero tells it to capture until
// externally stopped.
func (c *Controller) setNumTriggersAndCaptures() *status.Status {
	st := c.cam.NumImages.Set(c.params.NumImagesPerTrigger)

	switch c.params.TriggerMode {
	case FreeRun:
		st = status.Combine(st, c.cam.NumTriggers.Set(FreeRunMaxImages))
		st = status.Combine(st, c.writer.NumCapture().Set(0))
	case SetFrames:
		st = status.Combine(st, c.cam.NumTriggers.Set(c.params.NumTriggers))
		st = status.Combine(st, c.writer.NumCapture().Set(c.params.FullNumberOfImages()))
	}

	return st
}

// waitForStaleParameters blocks until the camera reports every pending
// parameter write applied.
func (c *Controller) waitForStaleParameters() error {
	return status.AwaitValue(c.cam.StaleParams, 0).Wait(c.cfg.staleParamsTimeout)
}

// forwardBitDepthToFilewriter propagates the camera's measured bit depth to
// the writer's data-type field.
func (c *Controller) forwardBitDepthToFilewriter() {
	bitDepth := c.cam.BitDepth.Get()
	c.writer.DataType().Put(fmt.Sprintf("UInt%d", bitDepth))
}

// armDetector starts the writer capture and commands the camera to acquire.
func (c *Controller) armDetector() error {
	c.cfg.logger.Info("waiting on stale parameters to go low")
	if err := c.waitForStaleParameters(); err != nil {
		return err
	}

	c.forwardBitDepthToFilewriter()

	st := c.writer.Capture().Set(1)
	st = status.Combine(st, status.AwaitValue(c.writer.MetaReady(), 1))
	if err := st.Wait(c.cfg.captureStartTimeout); err != nil {
		return err
	}
	c.state.ToArmed()

	c.cfg.logger.Info("setting acquire")
	if err := c.cam.Acquire.Set(1).Wait(c.cfg.acquireTimeout); err != nil {
		return err
	}

	c.filewritersFinished = c.writer.CreateFinishedStatus()

	if err := status.AwaitValue(c.writer.FanReady(), 1).Wait(c.cfg.fanReadyTimeout); err != nil {
		return err
	}
	c.state.ToAcquiring()

	return nil
}

// disarmDetector stops the camera acquisition fire-and-forget.
func (c *Controller) disarmDetector() {
	c.cam.Acquire.Put(0)
}

// watchStageProgress logs intermediate completion of the staging batch.
func (c *Controller) watchStageProgress(st *status.Status) {
	st.Watch(func(p status.Progress) {
		c.cfg.logger.Debug("staging progress",
			"current", p.Current, "total", p.Total, "fraction", p.Fraction, "finished", p.Finished,
		)
	})
}
