package aperture

// Position is a joint target for the aperture and scatterguard actuators:
// aperture x/y/z and scatterguard x/y motor positions.
type Position struct {
	ApX float64
	ApY float64
	ApZ float64
	SgX float64
	SgY float64
}

// Positions holds the four named presets of the beamline. A commanded target
// must be bit-exact equal to one of them; no other joint position is ever
// valid, because the collision-free paths between arbitrary positions are not
// characterized.
type Positions struct {
	Large     Position
	Medium    Position
	Small     Position
	RobotLoad Position
}

// Valid reports whether pos is bit-exact equal to one of the four presets.
func (p *Positions) Valid(pos Position) bool {
	return pos == p.Large || pos == p.Medium || pos == p.Small || pos == p.RobotLoad
}
