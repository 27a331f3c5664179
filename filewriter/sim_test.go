package filewriter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-beamline/signal"
)

func TestSimOptions(t *testing.T) {
	require := require.New(t)

	t.Run("Defaults to initialised and healthy", func(t *testing.T) {
		w := NewSim()
		ok, reason := w.CheckInitialised()
		require.True(ok)
		require.Empty(reason)
		require.True(w.CheckState())
	})

	t.Run("Initialisation failure carries the reason", func(t *testing.T) {
		w := NewSim(WithInitialised(false, "no iocs running"))
		ok, reason := w.CheckInitialised()
		require.False(ok)
		require.Equal("no iocs running", reason)
	})

	t.Run("Health override", func(t *testing.T) {
		w := NewSim(WithHealthy(false))
		require.False(w.CheckState())

		w.SimSetHealthy(true)
		require.True(w.CheckState())
	})
}

func TestSimFilenameEcho(t *testing.T) {
	require := require.New(t)

	t.Run("Echo enabled", func(t *testing.T) {
		w := NewSim(WithFilenameEcho())
		w.FileName().Set("insulin_3")

		require.Equal("insulin_3", w.MetaFileName().Get())
		require.Equal("insulin_3", w.WriterID().Get())
	})

	t.Run("Echo disabled leaves readbacks stale", func(t *testing.T) {
		w := NewSim()
		w.FileName().Set("insulin_3")

		require.Empty(w.MetaFileName().Get())
		require.Empty(w.WriterID().Get())
	})
}

func TestSimCreateFinishedStatus(t *testing.T) {
	require := require.New(t)

	w := NewSim()
	st := w.CreateFinishedStatus()
	require.False(st.Finished())

	// partial completion is not completion
	for _, node := range w.nodes[:len(w.nodes)-1] {
		node.SimPut(1)
	}
	require.False(st.Finished())

	w.nodes[len(w.nodes)-1].SimPut(1)
	require.True(st.Success())
}

func TestSimStop(t *testing.T) {
	require := require.New(t)

	w := NewSim()
	w.Capture().Set(1)

	st := w.Stop()
	require.True(st.Success())
	require.Equal(0, w.Capture().Get())
}

func TestSimJournal(t *testing.T) {
	require := require.New(t)

	j := signal.NewJournal()
	w := NewSim(WithJournal(j))

	w.FilePath().Set("/dls/data/")
	w.StartTimeout().Put(1)
	w.SimCaptured(5) // readback injection stays off the journal

	require.Equal([]string{
		"writer.file_path.set",
		"writer.start_timeout.put",
	}, j.Entries())
}
