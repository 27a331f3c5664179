package filewriter

import (
	"sync"

	"github.com/arloliu/go-beamline/signal"
	"github.com/arloliu/go-beamline/status"
)

// defaultNodeCount is the number of write nodes the simulated writer fans
// frames out to.
const defaultNodeCount = 4

type simConfig struct {
	initOK     bool
	initReason string
	healthy    bool
	echo       bool
	journal    *signal.Journal
}

// SimOption configures a Sim.
type SimOption func(*simConfig)

// WithInitialised sets the initialisation outcome reported by
// CheckInitialised.
func WithInitialised(ok bool, reason string) SimOption {
	return func(cfg *simConfig) {
		cfg.initOK = ok
		cfg.initReason = reason
	}
}

// WithHealthy sets the health outcome reported by CheckState.
func WithHealthy(healthy bool) SimOption {
	return func(cfg *simConfig) { cfg.healthy = healthy }
}

// WithFilenameEcho propagates FileName sets to the MetaFileName and WriterID
// readbacks, like a live writer echoing the configured filename back.
func WithFilenameEcho() SimOption {
	return func(cfg *simConfig) { cfg.echo = true }
}

// WithJournal records every signal operation on the shared journal.
func WithJournal(j *signal.Journal) SimOption {
	return func(cfg *simConfig) { cfg.journal = j }
}

// Sim is an in-process Filewriter implementation.
//
// The filename echo of the real subsystem (metadata writer and file writer
// reporting the configured filename back on their own attributes) is modeled
// by propagating FileName sets to the MetaFileName and WriterID readbacks
// when the echo is enabled.
type Sim struct {
	mu         sync.Mutex
	initOK     bool
	initReason string
	healthy    bool

	filePath        *signal.Sim[string]
	fileName        *signal.Sim[string]
	dataType        *signal.Sim[string]
	numCapture      *signal.Sim[int]
	numFramesChunks *signal.Sim[int]
	imageHeight     *signal.Sim[int]
	imageWidth      *signal.Sim[int]
	numRowChunks    *signal.Sim[int]
	numColChunks    *signal.Sim[int]
	capture         *signal.Sim[int]
	startTimeout    *signal.Sim[int]

	numCaptured  *signal.Sim[int]
	writerID     *signal.Sim[string]
	metaFileName *signal.Sim[string]
	metaReady    *signal.Sim[int]
	fanReady     *signal.Sim[int]

	nodes []*signal.Sim[int]
}

var _ Filewriter = (*Sim)(nil)

// NewSim creates a simulated writer subsystem. It reports initialised and
// healthy unless options say otherwise.
func NewSim(opts ...SimOption) *Sim {
	cfg := &simConfig{initOK: true, healthy: true}
	for _, opt := range opts {
		opt(cfg)
	}

	strOpts := []signal.SimOption[string]{}
	intOpts := []signal.SimOption[int]{}
	if cfg.journal != nil {
		strOpts = append(strOpts, signal.WithJournal[string](cfg.journal))
		intOpts = append(intOpts, signal.WithJournal[int](cfg.journal))
	}

	s := &Sim{
		initOK:     cfg.initOK,
		initReason: cfg.initReason,
		healthy:    cfg.healthy,

		filePath:        signal.NewSim("writer.file_path", "", strOpts...),
		fileName:        signal.NewSim("writer.file_name", "", strOpts...),
		dataType:        signal.NewSim("writer.data_type", "", strOpts...),
		numCapture:      signal.NewSim("writer.num_capture", 0, intOpts...),
		numFramesChunks: signal.NewSim("writer.num_frames_chunks", 0, intOpts...),
		imageHeight:     signal.NewSim("writer.image_height", 0, intOpts...),
		imageWidth:      signal.NewSim("writer.image_width", 0, intOpts...),
		numRowChunks:    signal.NewSim("writer.num_row_chunks", 0, intOpts...),
		numColChunks:    signal.NewSim("writer.num_col_chunks", 0, intOpts...),
		capture:         signal.NewSim("writer.capture", 0, intOpts...),
		startTimeout:    signal.NewSim("writer.start_timeout", 0, intOpts...),

		numCaptured:  signal.NewSim("writer.num_captured", 0),
		writerID:     signal.NewSim("writer.id", ""),
		metaFileName: signal.NewSim("writer.meta_file_name", ""),
		metaReady:    signal.NewSim("writer.meta_ready", 0),
		fanReady:     signal.NewSim("writer.fan_ready", 0),
	}

	s.nodes = make([]*signal.Sim[int], defaultNodeCount)
	for i := range s.nodes {
		s.nodes[i] = signal.NewSim("writer.node_complete", 0)
	}

	if cfg.echo {
		s.fileName.Watch(func(v string) {
			s.metaFileName.SimPut(v)
			s.writerID.SimPut(v)
		})
	}

	return s
}

// ClearErrors resets any latched node error state. Idempotent.
func (s *Sim) ClearErrors() {}

// CheckInitialised reports the configured initialisation outcome.
func (s *Sim) CheckInitialised() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.initOK, s.initReason
}

// CheckState reports the configured health outcome.
func (s *Sim) CheckState() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.healthy
}

// CreateFinishedStatus resolves successful once every write node reports
// complete.
func (s *Sim) CreateFinishedStatus() *status.Status {
	st := status.AwaitValue[int](s.nodes[0], 1)
	for _, node := range s.nodes[1:] {
		st = status.Combine(st, status.AwaitValue[int](node, 1))
	}

	return st
}

// Stop commands the writer to stop capturing.
func (s *Sim) Stop() *status.Status {
	return s.capture.Set(0)
}

func (s *Sim) FilePath() signal.Signal[string]     { return s.filePath }
func (s *Sim) FileName() signal.Signal[string]     { return s.fileName }
func (s *Sim) DataType() signal.Signal[string]     { return s.dataType }
func (s *Sim) NumCapture() signal.Signal[int]      { return s.numCapture }
func (s *Sim) NumFramesChunks() signal.Signal[int] { return s.numFramesChunks }
func (s *Sim) ImageHeight() signal.Signal[int]     { return s.imageHeight }
func (s *Sim) ImageWidth() signal.Signal[int]      { return s.imageWidth }
func (s *Sim) NumRowChunks() signal.Signal[int]    { return s.numRowChunks }
func (s *Sim) NumColChunks() signal.Signal[int]    { return s.numColChunks }
func (s *Sim) Capture() signal.Signal[int]         { return s.capture }
func (s *Sim) StartTimeout() signal.Signal[int]    { return s.startTimeout }

func (s *Sim) NumCaptured() signal.Readback[int]     { return s.numCaptured }
func (s *Sim) WriterID() signal.Readback[string]     { return s.writerID }
func (s *Sim) MetaFileName() signal.Readback[string] { return s.metaFileName }
func (s *Sim) MetaReady() signal.Readback[int]       { return s.metaReady }
func (s *Sim) FanReady() signal.Readback[int]        { return s.fanReady }

// SimMetaReady injects the metadata-ready flag.
func (s *Sim) SimMetaReady(ready bool) {
	s.metaReady.SimPut(boolToInt(ready))
}

// SimFanReady injects the fan-out readiness flag.
func (s *Sim) SimFanReady(ready bool) {
	s.fanReady.SimPut(boolToInt(ready))
}

// SimCaptured injects the captured-frame counter.
func (s *Sim) SimCaptured(frames int) {
	s.numCaptured.SimPut(frames)
}

// SimCompleteNodes marks every write node complete, resolving any status
// created by CreateFinishedStatus.
func (s *Sim) SimCompleteNodes() {
	for _, node := range s.nodes {
		node.SimPut(1)
	}
}

// SimSetHealthy overrides the health outcome after construction.
func (s *Sim) SimSetHealthy(healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.healthy = healthy
}

// SimSetInitialised overrides the initialisation outcome after construction.
func (s *Sim) SimSetInitialised(ok bool, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initOK = ok
	s.initReason = reason
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
