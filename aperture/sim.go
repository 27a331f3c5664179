package aperture

import "github.com/arloliu/go-beamline/signal"

// SimAxis is an Axis backed by Sim signals, with the concrete sims exposed
// for test-side injection. The motion-complete flag starts settled.
type SimAxis struct {
	Axis

	Setpoint *signal.Sim[float64]
	Readback *signal.Sim[float64]
	Done     *signal.Sim[int]
}

// NewSimAxis creates a simulated motor axis. With manual set, moves stay
// pending until the test settles them, modeling motors that take time to
// complete.
func NewSimAxis(name string, j *signal.Journal, manual bool) *SimAxis {
	opts := []signal.SimOption[float64]{}
	if j != nil {
		opts = append(opts, signal.WithJournal[float64](j))
	}
	if manual {
		opts = append(opts, signal.WithManualSettle[float64]())
	}

	setpoint := signal.NewSim(name+".setpoint", 0.0, opts...)
	readback := signal.NewSim(name+".readback", 0.0)
	done := signal.NewSim(name+".done_move", 1)

	return &SimAxis{
		Axis: Axis{
			UserSetpoint: setpoint,
			UserReadback: readback,
			DoneMove:     done,
		},
		Setpoint: setpoint,
		Readback: readback,
		Done:     done,
	}
}

// SimApertureScatterguard bundles simulated axes for the coordinator.
type SimApertureScatterguard struct {
	ApX *SimAxis
	ApY *SimAxis
	ApZ *SimAxis
	SgX *SimAxis
	SgY *SimAxis
}

// NewSimAxes creates the five simulated axes of an aperture/scatterguard
// pair.
func NewSimAxes(j *signal.Journal, manual bool) *SimApertureScatterguard {
	return &SimApertureScatterguard{
		ApX: NewSimAxis("aperture.x", j, manual),
		ApY: NewSimAxis("aperture.y", j, manual),
		ApZ: NewSimAxis("aperture.z", j, manual),
		SgX: NewSimAxis("scatterguard.x", j, manual),
		SgY: NewSimAxis("scatterguard.y", j, manual),
	}
}

// ApertureAxes returns the aperture axis bundle.
func (s *SimApertureScatterguard) ApertureAxes() ApertureAxes {
	return ApertureAxes{X: s.ApX.Axis, Y: s.ApY.Axis, Z: s.ApZ.Axis}
}

// ScatterguardAxes returns the scatterguard axis bundle.
func (s *SimApertureScatterguard) ScatterguardAxes() ScatterguardAxes {
	return ScatterguardAxes{X: s.SgX.Axis, Y: s.SgY.Axis}
}
