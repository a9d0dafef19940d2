package shapes

import (
	"github.com/coral-mesh/geoinspect/pkg/converter"
	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
)

// UserShape maps a user type to a built-in shape. Member fields are
// expressions in which $this names the value, such as "$this.x".
type UserShape struct {
	Kind geometry.Kind
	// ID is the qualified type name, without template arguments.
	ID string

	// Coords lists the coordinates of a Point.
	Coords []string
	System geometry.CoordinateSystem
	Unit   geometry.AngleUnit

	// Points locates the two points of a Box (min, max), Segment, Ray
	// (origin, through) or Line.
	Points [2]string

	// Box sides, used when Points is not set. Width and Height replace
	// Right and Top.
	Left, Bottom, Right, Top, Width, Height string

	// Container holds the elements of a Linestring, Ring, MultiPoint,
	// MultiLinestring, MultiPolygon or GeometriesContainer.
	Container string

	// Outer and Inners locate the rings of a Polygon. Inners is optional.
	Outer, Inners string
}

func (u UserShape) hasPoints() bool {
	return u.Points[0] != "" && u.Points[1] != ""
}

// Validate checks that the members required by Kind are set.
func (u UserShape) Validate() error {
	if u.ID == "" {
		return loader.Failf("user %s without type id", u.Kind)
	}
	switch u.Kind {
	case geometry.KindPoint:
		if len(u.Coords) < 2 || len(u.Coords) > 3 {
			return loader.Failf("user point %s needs 2 or 3 coordinates, has %d", u.ID, len(u.Coords))
		}
	case geometry.KindBox:
		if u.hasPoints() {
			return nil
		}
		if u.Left == "" || u.Bottom == "" {
			return loader.Failf("user box %s needs points or left and bottom", u.ID)
		}
		if (u.Right == "" || u.Top == "") && (u.Width == "" || u.Height == "") {
			return loader.Failf("user box %s needs right and top or width and height", u.ID)
		}
	case geometry.KindSegment, geometry.KindRay, geometry.KindLine:
		if !u.hasPoints() {
			return loader.Failf("user %s %s needs two points", u.Kind, u.ID)
		}
	case geometry.KindLinestring, geometry.KindRing, geometry.KindMultiPoint,
		geometry.KindMultiLinestring, geometry.KindMultiPolygon, geometry.KindGeometriesContainer:
		if u.Container == "" {
			return loader.Failf("user %s %s needs a container", u.Kind, u.ID)
		}
	case geometry.KindPolygon:
		if u.Outer == "" {
			return loader.Failf("user polygon %s needs an outer ring", u.ID)
		}
	default:
		return loader.Failf("user shapes cannot be of kind %s", u.Kind)
	}
	return nil
}

// NewUserCreator returns the creator of the user shape u.
func NewUserCreator(u UserShape) (loader.Creator, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return loader.NewCreator("user:"+u.ID, u.Kind, func(env *loader.Env, t loader.Target) (loader.Loader, error) {
		if !t.ID.Is(u.ID) {
			return nil, nil
		}
		return u.create(env, t)
	}), nil
}

func (u UserShape) create(env *loader.Env, t loader.Target) (loader.Loader, error) {
	switch u.Kind {
	case geometry.KindPoint:
		traits, err := geometry.NewTraits(len(u.Coords), u.System, u.Unit)
		if err != nil {
			return nil, loader.Failf("%s: %v", u.ID, err)
		}
		return NewCoords(env, t, u.Kind, traits, u.Coords, nil)
	case geometry.KindBox:
		if u.hasPoints() {
			return NewPair(env, t, u.Kind, u.Points[0], u.Points[1])
		}
		if u.Right != "" && u.Top != "" {
			return NewCoords(env, t, u.Kind, geometry.CartesianTraits(2),
				[]string{u.Left, u.Bottom, u.Right, u.Top}, nil)
		}
		width, height := converter.WidthToMax[float64](0, 2), converter.WidthToMax[float64](1, 3)
		return NewCoords(env, t, u.Kind, geometry.CartesianTraits(2),
			[]string{u.Left, u.Bottom, u.Width, u.Height}, func(v []float64) {
				width(v)
				height(v)
			})
	case geometry.KindSegment, geometry.KindRay, geometry.KindLine:
		return NewPair(env, t, u.Kind, u.Points[0], u.Points[1])
	case geometry.KindPolygon:
		return NewPolygon(env, t.Name, u.Outer, u.Inners)
	}
	cont, err := findContainer(env, t.Name, u.Container)
	if err != nil {
		return nil, err
	}
	return NewCollection(env, t.Name, u.Kind, u.Container, cont)
}
