package shapes

import (
	"fmt"
	"strconv"

	"github.com/coral-mesh/geoinspect/pkg/converter"
	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
)

// Coords loads a value made of individually addressable arithmetic members:
// the coordinates of a point or the corners of a rectangle.
type Coords struct {
	kind    geometry.Kind
	members []string
	traits  geometry.Traits
	fix     func(values []float64)
	conv    converter.Converter[float64]
}

var (
	_ loader.GeometryLoader = (*Coords)(nil)
	_ loader.MemoryLoader   = (*Coords)(nil)
)

// NewCoords returns a loader of kind Point or Box reading members, access
// paths or $this expressions, of values of type typ. fix, when set, is
// applied to the values read by either path. Box values are min coordinates
// followed by max coordinates.
func NewCoords(env *loader.Env, t loader.Target, kind geometry.Kind, traits geometry.Traits, members []string, fix func([]float64)) (*Coords, error) {
	if kind != geometry.KindPoint && kind != geometry.KindBox {
		return nil, loader.Failf("coordinates cannot form a %s", kind)
	}
	if len(members) == 0 || kind == geometry.KindBox && len(members)%2 != 0 {
		return nil, loader.Failf("%d coordinates cannot form a %s", len(members), kind)
	}
	c := &Coords{kind: kind, members: members, traits: traits, fix: fix}

	parts := make([]part, len(members))
	for i, m := range members {
		typ, err := env.TypeOf(access(t.Name, m))
		if err != nil {
			return nil, err
		}
		parts[i] = part{member: m, conv: scalar(env, typ)}
	}
	if conv := structConv(env, t.Name, t.Type, parts...); conv != nil {
		c.conv = conv
		if fix != nil {
			c.conv = converter.NewTransform(conv, fix)
		}
	}
	return c, nil
}

func (c *Coords) Kind() geometry.Kind { return c.kind }

func (c *Coords) Traits(env *loader.Env, name string) (geometry.Traits, error) {
	return c.traits, nil
}

func (c *Coords) Converter() converter.Converter[float64] { return c.conv }

func (c *Coords) FromValues(values []float64) geometry.Drawable {
	v := append([]float64(nil), values...)
	if c.kind == geometry.KindBox {
		half := len(v) / 2
		return geometry.Box{Min: geometry.Point(v[:half:half]), Max: geometry.Point(v[half:])}
	}
	return geometry.Point(v)
}

func (c *Coords) Load(env *loader.Env, name string) (geometry.Drawable, error) {
	return decodeValue(env, c, name, func() (geometry.Drawable, error) {
		values := make([]float64, len(c.members))
		for i, m := range c.members {
			v, err := env.EvalFloat(access(name, m))
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		if c.fix != nil {
			c.fix(values)
		}
		return c.FromValues(values), nil
	})
}

func indexed(member string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s[%d]", member, i)
	}
	return out
}

func createBGPoint(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::geometry::model::point") || len(t.ID.Args) < 3 {
		return nil, nil
	}
	dim, err := strconv.Atoi(t.ID.Args[1])
	if err != nil {
		return nil, loader.Failf("invalid dimension in %s", t.Type)
	}
	return newBGPoint(env, t, dim, t.ID.Args[2])
}

func createBGPointXY(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::geometry::model::d2::point_xy") {
		return nil, nil
	}
	cs, ok := t.ID.Arg(1)
	if !ok {
		cs = "boost::geometry::cs::cartesian"
	}
	return newBGPoint(env, t, 2, cs)
}

func newBGPoint(env *loader.Env, t loader.Target, dim int, cs string) (loader.Loader, error) {
	system, unit, err := parseCS(cs)
	if err != nil {
		return nil, err
	}
	traits, err := geometry.NewTraits(dim, system, unit)
	if err != nil {
		return nil, loader.Failf("%s: %v", t.Type, err)
	}
	return NewCoords(env, t, geometry.KindPoint, traits, indexed(".m_values", dim), nil)
}

func createBPPoint(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::polygon::point_data") {
		return nil, nil
	}
	return NewCoords(env, t, geometry.KindPoint, geometry.CartesianTraits(2), indexed(".coords_", 2), nil)
}

func createComplex(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("std::complex") {
		return nil, nil
	}
	traits := geometry.Traits{Dimension: 2, System: geometry.Complex}
	return NewCoords(env, t, geometry.KindPoint, traits, indexed("._Val", 2), nil)
}

// Boost.Polygon rectangles store one interval per axis. The decoded
// x.low, x.high, y.low, y.high are reordered into corners.
func createBPRectangle(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::polygon::rectangle_data") {
		return nil, nil
	}
	members := []string{
		".ranges_[0].coords_[0]", ".ranges_[0].coords_[1]",
		".ranges_[1].coords_[0]", ".ranges_[1].coords_[1]",
	}
	return NewCoords(env, t, geometry.KindBox, geometry.CartesianTraits(2), members,
		converter.Reorder[float64](0, 2, 1, 3))
}
