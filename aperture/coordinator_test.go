package aperture

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-beamline/signal"
	"github.com/arloliu/go-beamline/status"
)

func testPositions() Positions {
	return Positions{
		Large:     Position{ApX: 2.389, ApY: 40.986, ApZ: 15.8, SgX: 5.25, SgY: 4.43},
		Medium:    Position{ApX: 2.384, ApY: 44.967, ApZ: 15.8, SgX: 2.384, SgY: 0.772},
		Small:     Position{ApX: 2.43, ApY: 48.974, ApZ: 15.8, SgX: 0.145, SgY: -0.55},
		RobotLoad: Position{ApX: 0, ApY: 31.4, ApZ: 15.8, SgX: 0, SgY: 1.0},
	}
}

// newCoordinatorRig builds a coordinator over fresh simulated axes with the
// preset table loaded and the aperture z axis already at the presets' plane.
func newCoordinatorRig(manual bool, opts ...CoordinatorOption) (*ApertureScatterguard, *SimApertureScatterguard, *signal.Journal) {
	journal := signal.NewJournal()
	axes := NewSimAxes(journal, manual)
	axes.ApZ.Setpoint.SimPut(testPositions().Large.ApZ)

	coord := NewApertureScatterguard(axes.ApertureAxes(), axes.ScatterguardAxes(), opts...)
	coord.LoadPositions(testPositions())

	return coord, axes, journal
}

func countPrefix(j *signal.Journal, prefix string) int {
	count := 0
	for _, e := range j.Entries() {
		if strings.HasPrefix(e, prefix) {
			count++
		}
	}
	return count
}

func TestSetPresets(t *testing.T) {
	require := require.New(t)

	t.Run("All four presets reachable", func(t *testing.T) {
		positions := testPositions()
		for _, pos := range []Position{
			positions.Large, positions.Medium, positions.Small, positions.RobotLoad,
		} {
			coord, axes, _ := newCoordinatorRig(false)

			st, err := coord.Set(pos)
			require.NoError(err)
			require.NoError(st.Wait(1 * time.Second))

			require.Equal(pos.ApX, axes.ApX.Setpoint.Get())
			require.Equal(pos.ApY, axes.ApY.Setpoint.Get())
			require.Equal(pos.SgX, axes.SgX.Setpoint.Get())
			require.Equal(pos.SgY, axes.SgY.Setpoint.Get())
		}
	})

	t.Run("Arbitrary tuple rejected before any motion", func(t *testing.T) {
		coord, _, journal := newCoordinatorRig(false)

		_, err := coord.Set(Position{ApX: 1, ApY: 2, ApZ: 3, SgX: 4, SgY: 5})
		require.ErrorIs(err, ErrInvalidMove)
		require.Equal(0, journal.Len())
	})

	t.Run("Near miss on one coordinate rejected", func(t *testing.T) {
		coord, _, journal := newCoordinatorRig(false)

		pos := testPositions().Large
		pos.SgY += 1e-9
		_, err := coord.Set(pos)
		require.ErrorIs(err, ErrInvalidMove)
		require.Equal(0, journal.Len())
	})

	t.Run("Positions must be loaded", func(t *testing.T) {
		journal := signal.NewJournal()
		axes := NewSimAxes(journal, false)
		coord := NewApertureScatterguard(axes.ApertureAxes(), axes.ScatterguardAxes())

		_, err := coord.Set(testPositions().Large)
		require.ErrorIs(err, ErrInvalidMove)
		require.Equal(0, journal.Len())
	})
}

func TestSetOrdering(t *testing.T) {
	require := require.New(t)

	t.Run("Moving up leads with the scatterguard", func(t *testing.T) {
		coord, axes, journal := newCoordinatorRig(false)
		axes.ApY.Readback.SimPut(31.4)

		st, err := coord.Set(testPositions().Small)
		require.NoError(err)
		require.NoError(st.Wait(1 * time.Second))

		entries := journal.Entries()
		require.True(strings.HasPrefix(entries[0], "scatterguard."))
		require.True(strings.HasPrefix(entries[1], "scatterguard."))
		for _, e := range entries[2:] {
			require.True(strings.HasPrefix(e, "aperture."))
		}
	})

	t.Run("Moving down leads with the aperture", func(t *testing.T) {
		coord, axes, journal := newCoordinatorRig(false)
		axes.ApY.Readback.SimPut(48.974)

		st, err := coord.Set(testPositions().RobotLoad)
		require.NoError(err)
		require.NoError(st.Wait(1 * time.Second))

		entries := journal.Entries()
		for _, e := range entries[:3] {
			require.True(strings.HasPrefix(e, "aperture."))
		}
		for _, e := range entries[3:] {
			require.True(strings.HasPrefix(e, "scatterguard."))
		}
	})
}

// The trailing actuator must not even be commanded until the leading one has
// fully completed, not merely been started.
func TestSetTwoPhaseBarrier(t *testing.T) {
	require := require.New(t)

	coord, axes, journal := newCoordinatorRig(true)
	axes.ApY.Readback.SimPut(31.4)

	type result struct {
		st  *status.Status
		err error
	}
	done := make(chan result, 1)
	go func() {
		st, err := coord.Set(testPositions().Medium)
		done <- result{st, err}
	}()

	// leading scatterguard commanded, trailing aperture held back
	require.Eventually(func() bool {
		return countPrefix(journal, "scatterguard.") == 2
	}, 1*time.Second, 5*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	require.Equal(0, countPrefix(journal, "aperture."))

	axes.SgX.Setpoint.SettleAll(nil)
	axes.SgY.Setpoint.SettleAll(nil)

	var res result
	select {
	case res = <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("move did not proceed after the leading actuator settled")
	}
	require.NoError(res.err)
	require.Equal(3, countPrefix(journal, "aperture."))
	require.False(res.st.Finished(), "trailing moves still pending")

	axes.ApX.Setpoint.SettleAll(nil)
	axes.ApY.Setpoint.SettleAll(nil)
	axes.ApZ.Setpoint.SettleAll(nil)
	require.True(res.st.Success())
}

func TestSetGuards(t *testing.T) {
	require := require.New(t)

	t.Run("Deferred while z axis still moving", func(t *testing.T) {
		coord, axes, journal := newCoordinatorRig(false)
		axes.ApZ.Done.SimPut(0)

		_, err := coord.Set(testPositions().Large)
		require.ErrorIs(err, ErrMoveDeferred)
		require.Equal(0, journal.Len())

		// retryable: once the axis settles the same call goes through
		axes.ApZ.Done.SimPut(1)
		st, err := coord.Set(testPositions().Large)
		require.NoError(err)
		require.NoError(st.Wait(1 * time.Second))
	})

	t.Run("Undefined when z planes differ", func(t *testing.T) {
		coord, axes, journal := newCoordinatorRig(false)
		axes.ApZ.Setpoint.SimPut(7.0)

		_, err := coord.Set(testPositions().Large)
		require.ErrorIs(err, ErrUndefinedMove)
		require.Equal(0, journal.Len())
	})
}

func TestSetPhaseTimeout(t *testing.T) {
	require := require.New(t)

	coord, axes, _ := newCoordinatorRig(true, WithPhaseTimeout(30*time.Millisecond))
	axes.ApY.Readback.SimPut(31.4)

	// leading scatterguard never settles
	_, err := coord.Set(testPositions().Large)
	require.ErrorIs(err, status.ErrWaitTimeout)
}
