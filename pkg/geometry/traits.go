package geometry

import "fmt"

// CoordinateSystem identifies how coordinates are interpreted.
type CoordinateSystem int

const (
	Cartesian CoordinateSystem = iota
	SphericalPolar
	SphericalEquatorial
	Geographic
	Complex
)

func (cs CoordinateSystem) String() string {
	switch cs {
	case Cartesian:
		return "cartesian"
	case SphericalPolar:
		return "spherical_polar"
	case SphericalEquatorial:
		return "spherical_equatorial"
	case Geographic:
		return "geographic"
	case Complex:
		return "complex"
	}
	return "unknown"
}

// AngleUnit is the unit of angular coordinates.
type AngleUnit int

const (
	UnitNone AngleUnit = iota
	Radian
	Degree
)

func (u AngleUnit) String() string {
	switch u {
	case Radian:
		return "radian"
	case Degree:
		return "degree"
	}
	return "none"
}

// Traits describe the coordinates of a geometry.
type Traits struct {
	Dimension int
	System    CoordinateSystem
	Unit      AngleUnit
}

// NewTraits validates the dimension and returns Traits. Only 2-D and 3-D
// coordinates can be drawn.
func NewTraits(dimension int, cs CoordinateSystem, unit AngleUnit) (Traits, error) {
	if dimension < 2 || dimension > 3 {
		return Traits{}, fmt.Errorf("unsupported dimension %d", dimension)
	}
	if cs == Cartesian || cs == Complex {
		unit = UnitNone
	}
	return Traits{Dimension: dimension, System: cs, Unit: unit}, nil
}

// CartesianTraits returns cartesian traits of the given dimension.
func CartesianTraits(dimension int) Traits {
	return Traits{Dimension: dimension, System: Cartesian}
}

// IsZero reports whether the traits were never set.
func (t Traits) IsZero() bool {
	return t == Traits{}
}

func (t Traits) String() string {
	if t.Unit == UnitNone {
		return fmt.Sprintf("%dD %s", t.Dimension, t.System)
	}
	return fmt.Sprintf("%dD %s (%s)", t.Dimension, t.System, t.Unit)
}
