package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-beamline/filewriter"
	"github.com/arloliu/go-beamline/signal"
	"github.com/arloliu/go-beamline/status"
)

type testRig struct {
	cam     *SimCam
	writer  *filewriter.Sim
	journal *signal.Journal
	ctrl    *Controller
}

// newTestRig builds a controller over simulated devices that are ready to
// stage: writer initialised with filename echo, metadata and fan ready, stale
// parameters low.
func newTestRig(t *testing.T, writerOpts []filewriter.SimOption, ctrlOpts ...Option) *testRig {
	t.Helper()

	journal := signal.NewJournal()
	cam := NewSimCam(journal)

	opts := append([]filewriter.SimOption{
		filewriter.WithFilenameEcho(),
		filewriter.WithJournal(journal),
	}, writerOpts...)
	writer := filewriter.NewSim(opts...)
	writer.SimMetaReady(true)
	writer.SimFanReady(true)

	ctrl, err := NewController(&cam.Cam, writer, ctrlOpts...)
	require.NoError(t, err)

	return &testRig{cam: cam, writer: writer, journal: journal, ctrl: ctrl}
}

func countEntries(j *signal.Journal, entry string) int {
	count := 0
	for _, e := range j.Entries() {
		if e == entry {
			count++
		}
	}
	return count
}

func TestSetParams(t *testing.T) {
	require := require.New(t)

	t.Run("Stores normalized directory", func(t *testing.T) {
		rig := newTestRig(t, nil)
		require.NoError(rig.ctrl.SetParams(testParams()))
		require.Equal("/test/dir/", rig.ctrl.Params().Directory)
	})

	t.Run("Aggregates violations before any hardware write", func(t *testing.T) {
		rig := newTestRig(t, nil)

		params := testParams()
		params.SizeConstants = nil
		params.BeamXYConverter = nil

		err := rig.ctrl.SetParams(params)
		require.ErrorIs(err, ErrSizeConstantsNotSet)
		require.ErrorIs(err, ErrBeamConverterNotSet)
		require.Equal(0, rig.journal.Len())
		require.Nil(rig.ctrl.Params())
	})
}

func TestSetDetectorThreshold(t *testing.T) {
	tests := []struct {
		name           string
		currentEnergy  float64
		requestEnergy  float64
		isEnergyChange bool
	}{
		{"same energy", 100.0, 100.0, false},
		{"energy up", 100.0, 200.0, true},
		{"energy down", 100.0, 50.0, true},
		{"within tolerance above", 100.0, 100.09, false},
		{"within tolerance below", 100.0, 99.91, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			rig := newTestRig(t, nil)
			rig.cam.PhotonSim.SimPut(tt.currentEnergy)

			st := rig.ctrl.SetDetectorThreshold(tt.requestEnergy)

			writes := countEntries(rig.journal, "cam.photon_energy.set")
			if tt.isEnergyChange {
				require.Equal(1, writes)
				require.Equal(tt.requestEnergy, rig.cam.PhotonSim.Get())
			} else {
				require.Equal(0, writes)
				require.True(st.Success(), "must return an already-successful status")
			}
		})
	}
}

func TestStage(t *testing.T) {
	require := require.New(t)

	t.Run("Requires parameters", func(t *testing.T) {
		rig := newTestRig(t, nil)
		require.ErrorIs(rig.ctrl.Stage(), ErrParamsNotSet)
	})

	t.Run("Aborts when writer not initialised", func(t *testing.T) {
		rig := newTestRig(t, []filewriter.SimOption{
			filewriter.WithInitialised(false, "Test error"),
		})
		require.NoError(rig.ctrl.SetParams(testParams()))

		err := rig.ctrl.Stage()
		require.ErrorIs(err, ErrWriterNotInitialised)
		require.ErrorContains(err, "Test error")

		// abort happens before any configuration is applied
		require.Equal(0, rig.journal.Len())
		require.Equal(UnstagedState, rig.ctrl.State())
	})

	t.Run("Configures and arms", func(t *testing.T) {
		rig := newTestRig(t, nil)
		require.NoError(rig.ctrl.SetParams(testParams()))

		require.NoError(rig.ctrl.Stage())
		require.Equal(AcquiringState, rig.ctrl.State())

		// camera acquisition settings
		require.Equal(1.0, rig.cam.AcquireTime.Get())
		require.Equal(1.0, rig.cam.AcquirePeriod.Get())
		require.Equal(1, rig.cam.NumExposures.Get())
		require.Equal(ImageModeMultiple, rig.cam.ImageMode.Get())
		require.Equal(int(ExternalSeries), rig.cam.TriggerMode.Get())

		// writer target and filename echo
		require.Equal("/test/dir/", rig.writer.FilePath().Get())
		require.Equal("test_0", rig.writer.FileName().Get())

		// beam geometry from the converter
		require.Equal(100.0, rig.cam.BeamCenterX.Get())
		require.Equal(200.0, rig.cam.BeamCenterY.Get())
		require.Equal(1.0, rig.cam.DetDistance.Get())

		// armed: bit depth forwarded, capture started, acquiring
		require.Equal("UInt16", rig.writer.DataType().Get())
		require.Equal(1, rig.writer.Capture().Get())
		require.Equal(1, rig.cam.Acquire.Get())
	})

	t.Run("Rejects staging twice", func(t *testing.T) {
		rig := newTestRig(t, nil)
		require.NoError(rig.ctrl.SetParams(testParams()))
		require.NoError(rig.ctrl.Stage())
		require.ErrorIs(rig.ctrl.Stage(), ErrInvalidTransition)
	})

	t.Run("Blocks on stale parameters until they clear", func(t *testing.T) {
		rig := newTestRig(t, nil)
		require.NoError(rig.ctrl.SetParams(testParams()))

		rig.cam.StaleParamsSim.SimPut(1)

		staged := make(chan error, 1)
		go func() { staged <- rig.ctrl.Stage() }()

		select {
		case err := <-staged:
			t.Fatalf("stage must block on stale parameters, returned %v", err)
		case <-time.After(50 * time.Millisecond):
		}

		rig.cam.StaleParamsSim.SimPut(0)

		select {
		case err := <-staged:
			require.NoError(err)
		case <-time.After(1 * time.Second):
			t.Fatal("stage did not finish after stale parameters cleared")
		}
	})
}

func TestStageROIMode(t *testing.T) {
	require := require.New(t)

	t.Run("Switches geometry to ROI dimensions", func(t *testing.T) {
		rig := newTestRig(t, nil)
		params := testParams()
		params.UseROIMode = true
		require.NoError(rig.ctrl.SetParams(params))

		require.NoError(rig.ctrl.Stage())

		roi := Eiger2X16MSize.ROISizePixels
		require.Equal(1, rig.cam.ROIMode.Get())
		require.Equal(roi.Height, rig.writer.ImageHeight().Get())
		require.Equal(roi.Width, rig.writer.ImageWidth().Get())
		require.Equal(roi.Height, rig.writer.NumRowChunks().Get())
		require.Equal(roi.Width, rig.writer.NumColChunks().Get())
	})

	t.Run("Disabled mode writes full dimensions", func(t *testing.T) {
		rig := newTestRig(t, nil)
		require.NoError(rig.ctrl.SetParams(testParams()))

		rig.ctrl.changeROIMode(false)

		full := Eiger2X16MSize.DetSizePixels
		require.Equal(0, rig.cam.ROIMode.Get())
		require.Equal(full.Height, rig.writer.ImageHeight().Get())
		require.Equal(full.Width, rig.writer.ImageWidth().Get())
	})

	t.Run("Switch failure is soft", func(t *testing.T) {
		rig := newTestRig(t, nil, WithROISwitchTimeout(30*time.Millisecond))

		// a camera ROI flag that never acknowledges
		rig.cam.Cam.ROIMode = signal.NewSim("cam.roi_mode", 0, signal.WithManualSettle[int]())

		params := testParams()
		params.UseROIMode = true
		require.NoError(rig.ctrl.SetParams(params))

		// staging proceeds regardless; ROI is an optimization
		require.NoError(rig.ctrl.Stage())
		require.Equal(AcquiringState, rig.ctrl.State())
	})
}

func TestSetNumTriggersAndCaptures(t *testing.T) {
	require := require.New(t)

	t.Run("Free run ignores supplied image counts", func(t *testing.T) {
		rig := newTestRig(t, nil)
		params := testParams()
		params.TriggerMode = FreeRun
		params.NumTriggers = 5
		params.NumImagesPerTrigger = 7
		require.NoError(rig.ctrl.SetParams(params))

		require.True(rig.ctrl.setNumTriggersAndCaptures().Success())

		require.Equal(FreeRunMaxImages, rig.cam.NumTriggers.Get())
		// zero tells the writer to capture until externally stopped
		require.Equal(0, rig.writer.NumCapture().Get())
		require.Equal(7, rig.cam.NumImages.Get())
	})

	t.Run("Set frames uses the full image count", func(t *testing.T) {
		rig := newTestRig(t, nil)
		params := testParams()
		params.TriggerMode = SetFrames
		params.NumTriggers = 3
		params.NumImagesPerTrigger = 3
		require.NoError(rig.ctrl.SetParams(params))

		require.True(rig.ctrl.setNumTriggersAndCaptures().Success())

		require.Equal(3, rig.cam.NumTriggers.Get())
		require.Equal(9, rig.writer.NumCapture().Get())
		require.Equal(3, rig.cam.NumImages.Get())
	})
}

func TestSetWriterSignals(t *testing.T) {
	require := require.New(t)

	rig := newTestRig(t, nil)
	require.NoError(rig.ctrl.SetParams(testParams()))

	st := rig.ctrl.setWriterSignals()
	require.NoError(st.Wait(1 * time.Second))

	require.Equal("test_0", rig.writer.FileName().Get())
	require.Equal("/test/dir/", rig.writer.FilePath().Get())
	require.Equal(1, rig.writer.NumFramesChunks().Get())
}

func TestSetWriterSignalsStaleEcho(t *testing.T) {
	require := require.New(t)

	// no filename echo: the double echo guard must keep the step pending
	journal := signal.NewJournal()
	cam := NewSimCam(journal)
	writer := filewriter.NewSim()
	ctrl, err := NewController(&cam.Cam, writer)
	require.NoError(err)
	require.NoError(ctrl.SetParams(testParams()))

	st := ctrl.setWriterSignals()
	require.False(st.Finished(), "must wait for both filename echoes")

	writer.MetaFileName().(*signal.Sim[string]).SimPut("test_0")
	require.False(st.Finished(), "one echo is not enough")

	writer.WriterID().(*signal.Sim[string]).SimPut("test_0")
	require.True(st.Success())
}

func TestUnstage(t *testing.T) {
	require := require.New(t)

	t.Run("Requires parameters", func(t *testing.T) {
		rig := newTestRig(t, nil)
		_, err := rig.ctrl.Unstage()
		require.ErrorIs(err, ErrParamsNotSet)
	})

	t.Run("Reports writer health and always restores geometry", func(t *testing.T) {
		rig := newTestRig(t, []filewriter.SimOption{filewriter.WithHealthy(false)})
		require.NoError(rig.ctrl.SetParams(testParams()))
		rig.ctrl.filewritersFinished = status.Successful()

		healthy, err := rig.ctrl.Unstage()
		require.NoError(err)
		require.False(healthy, "writer health propagates as the return value")

		// cleanup ran regardless of the bad health
		require.Equal(1, rig.writer.StartTimeout().Get())
		require.Equal(0, rig.cam.Acquire.Get())
		full := Eiger2X16MSize.DetSizePixels
		require.Equal(full.Height, rig.writer.ImageHeight().Get())
		require.Equal(UnstagedState, rig.ctrl.State())
	})

	t.Run("Free run waits for all frames and stops the writer", func(t *testing.T) {
		rig := newTestRig(t, nil)
		params := testParams()
		params.TriggerMode = FreeRun
		params.NumTriggers = 2
		params.NumImagesPerTrigger = 2
		require.NoError(rig.ctrl.SetParams(params))
		rig.ctrl.filewritersFinished = status.Successful()

		rig.writer.Capture().Set(1)
		rig.writer.SimCaptured(4)

		healthy, err := rig.ctrl.Unstage()
		require.NoError(err)
		require.True(healthy)
		require.Equal(0, rig.writer.Capture().Get(), "writer commanded to stop")
	})

	t.Run("Writer finish timeout surfaces", func(t *testing.T) {
		rig := newTestRig(t, nil, WithWriterFinishedTimeout(30*time.Millisecond))
		require.NoError(rig.ctrl.SetParams(testParams()))
		rig.ctrl.filewritersFinished = status.NewStatus()

		_, err := rig.ctrl.Unstage()
		require.ErrorIs(err, status.ErrWaitTimeout)
	})
}

func TestStageUnstageRoundtrip(t *testing.T) {
	require := require.New(t)

	rig := newTestRig(t, nil)
	require.NoError(rig.ctrl.SetParams(testParams()))

	require.NoError(rig.ctrl.Stage())
	require.Equal(AcquiringState, rig.ctrl.State())

	rig.writer.SimCompleteNodes()

	healthy, err := rig.ctrl.Unstage()
	require.NoError(err)
	require.True(healthy)
	require.Equal(UnstagedState, rig.ctrl.State())
}
