package detector

import (
	"fmt"
	"time"

	"github.com/arloliu/go-beamline/logger"
)

// config holds the controller tuning: per-step wait budgets and the energy
// threshold tolerance.
type config struct {
	// energyTolerance is the band within which the photon energy threshold is
	// considered already set and no write is issued. Defaults to 0.1 eV.
	energyTolerance float64

	// roiSwitchTimeout bounds the joint ROI geometry switch.
	// Defaults to 10 seconds.
	roiSwitchTimeout time.Duration
	// staleParamsTimeout bounds both the parameter-callback wait and the
	// stale-parameters-clear wait before arming. It is the largest budget
	// because several independent writes must settle together.
	// Defaults to 60 seconds.
	staleParamsTimeout time.Duration
	// captureStartTimeout bounds the writer capture-start and metadata-ready
	// wait. Defaults to 10 seconds.
	captureStartTimeout time.Duration
	// acquireTimeout bounds the camera acquire command. Defaults to 10 seconds.
	acquireTimeout time.Duration
	// fanReadyTimeout bounds the fan-out readiness wait. Defaults to 10 seconds.
	fanReadyTimeout time.Duration
	// frameCountTimeout bounds the free-run wait for the captured-frame
	// counter to reach the configured total. Defaults to 30 seconds.
	frameCountTimeout time.Duration
	// writerStopTimeout bounds the writer stop command during a free-run
	// unstage. Defaults to 5 seconds.
	writerStopTimeout time.Duration
	// writerFinishedTimeout bounds the wait for every write node to report
	// complete. Defaults to 30 seconds.
	writerFinishedTimeout time.Duration
	// writerShutdownTimeout is the value written to the writer's own
	// shutdown-timeout field during unstage, so a stuck writer fails fast
	// rather than hangs. Defaults to 1.
	writerShutdownTimeout int

	logger logger.Logger
}

func defaultConfig() *config {
	return &config{
		energyTolerance:       0.1,
		roiSwitchTimeout:      10 * time.Second,
		staleParamsTimeout:    60 * time.Second,
		captureStartTimeout:   10 * time.Second,
		acquireTimeout:        10 * time.Second,
		fanReadyTimeout:       10 * time.Second,
		frameCountTimeout:     30 * time.Second,
		writerStopTimeout:     5 * time.Second,
		writerFinishedTimeout: 30 * time.Second,
		writerShutdownTimeout: 1,
		logger:                logger.GetLogger(),
	}
}

// Option represents a functional option for configuring a Controller.
type Option interface {
	apply(*config) error
}

type optFunc struct {
	name      string
	applyFunc func(*config) error
}

func (o *optFunc) apply(cfg *config) error { return o.applyFunc(cfg) }

func newOptFunc(name string, f func(*config) error) *optFunc {
	return &optFunc{name: name, applyFunc: f}
}

func timeoutOption(name string, set func(*config, time.Duration), val time.Duration) Option {
	return newOptFunc(name, func(cfg *config) error {
		if val <= 0 {
			return fmt.Errorf("%s requires a positive duration, got %v", name, val)
		}
		set(cfg, val)
		return nil
	})
}

// WithEnergyTolerance overrides the photon energy threshold tolerance in eV.
func WithEnergyTolerance(tolerance float64) Option {
	return newOptFunc("WithEnergyTolerance", func(cfg *config) error {
		if tolerance < 0 {
			return fmt.Errorf("energy tolerance must not be negative, got %v", tolerance)
		}
		cfg.energyTolerance = tolerance
		return nil
	})
}

// WithROISwitchTimeout overrides the ROI geometry switch wait budget.
func WithROISwitchTimeout(val time.Duration) Option {
	return timeoutOption("WithROISwitchTimeout", func(cfg *config, v time.Duration) { cfg.roiSwitchTimeout = v }, val)
}

// WithStaleParamsTimeout overrides the settle budget for camera parameter
// writes.
func WithStaleParamsTimeout(val time.Duration) Option {
	return timeoutOption("WithStaleParamsTimeout", func(cfg *config, v time.Duration) { cfg.staleParamsTimeout = v }, val)
}

// WithCaptureStartTimeout overrides the writer capture-start wait budget.
func WithCaptureStartTimeout(val time.Duration) Option {
	return timeoutOption("WithCaptureStartTimeout", func(cfg *config, v time.Duration) { cfg.captureStartTimeout = v }, val)
}

// WithAcquireTimeout overrides the camera acquire command wait budget.
func WithAcquireTimeout(val time.Duration) Option {
	return timeoutOption("WithAcquireTimeout", func(cfg *config, v time.Duration) { cfg.acquireTimeout = v }, val)
}

// WithFanReadyTimeout overrides the fan-out readiness wait budget.
func WithFanReadyTimeout(val time.Duration) Option {
	return timeoutOption("WithFanReadyTimeout", func(cfg *config, v time.Duration) { cfg.fanReadyTimeout = v }, val)
}

// WithFrameCountTimeout overrides the free-run captured-frame wait budget.
func WithFrameCountTimeout(val time.Duration) Option {
	return timeoutOption("WithFrameCountTimeout", func(cfg *config, v time.Duration) { cfg.frameCountTimeout = v }, val)
}

// WithWriterStopTimeout overrides the writer stop wait budget.
func WithWriterStopTimeout(val time.Duration) Option {
	return timeoutOption("WithWriterStopTimeout", func(cfg *config, v time.Duration) { cfg.writerStopTimeout = v }, val)
}

// WithWriterFinishedTimeout overrides the writer-finished wait budget.
func WithWriterFinishedTimeout(val time.Duration) Option {
	return timeoutOption("WithWriterFinishedTimeout", func(cfg *config, v time.Duration) { cfg.writerFinishedTimeout = v }, val)
}

// WithLogger overrides the controller logger.
func WithLogger(l logger.Logger) Option {
	return newOptFunc("WithLogger", func(cfg *config) error {
		if l == nil {
			return fmt.Errorf("logger is nil")
		}
		cfg.logger = l
		return nil
	})
}
