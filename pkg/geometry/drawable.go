package geometry

import "math"

// Drawable is a reconstructed value. Renderers depend only on this contract
// and never on how the value was decoded.
type Drawable interface {
	Kind() Kind
	// Envelope returns the axis-aligned bounding box, or false when the
	// value has no extent (for example an empty container).
	Envelope() (Box, bool)
}

// Point is a coordinate tuple of 2 or 3 dimensions.
type Point []float64

func (p Point) Kind() Kind { return KindPoint }

func (p Point) Envelope() (Box, bool) {
	if len(p) == 0 {
		return Box{}, false
	}
	return Box{Min: p.clone(), Max: p.clone()}, true
}

// X returns the first coordinate.
func (p Point) X() float64 { return p.at(0) }

// Y returns the second coordinate.
func (p Point) Y() float64 { return p.at(1) }

func (p Point) at(i int) float64 {
	if i < len(p) {
		return p[i]
	}
	return 0
}

func (p Point) clone() Point {
	return append(Point(nil), p...)
}

// Box is an axis-aligned box.
type Box struct {
	Min Point
	Max Point
}

func (b Box) Kind() Kind { return KindBox }

func (b Box) Envelope() (Box, bool) {
	if len(b.Min) == 0 || len(b.Max) == 0 {
		return Box{}, false
	}
	env := Box{}
	env.expand(b.Min)
	env.expand(b.Max)
	return env, true
}

// Expand grows the box to contain other.
func (b *Box) Expand(other Box) {
	b.expand(other.Min)
	b.expand(other.Max)
}

func (b *Box) expand(p Point) {
	if len(b.Min) == 0 {
		b.Min = p.clone()
		b.Max = p.clone()
		return
	}
	for i := 0; i < len(p) && i < len(b.Min); i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
}

// Segment is a pair of points.
type Segment struct {
	First  Point
	Second Point
}

func (s Segment) Kind() Kind            { return KindSegment }
func (s Segment) Envelope() (Box, bool) { return pointsEnvelope([]Point{s.First, s.Second}) }

// Ray starts at Origin and passes through Through.
type Ray struct {
	Origin  Point
	Through Point
}

func (r Ray) Kind() Kind            { return KindRay }
func (r Ray) Envelope() (Box, bool) { return pointsEnvelope([]Point{r.Origin, r.Through}) }

// Line passes through both points.
type Line struct {
	First  Point
	Second Point
}

func (l Line) Kind() Kind            { return KindLine }
func (l Line) Envelope() (Box, bool) { return pointsEnvelope([]Point{l.First, l.Second}) }

// NSphere is a circle or sphere.
type NSphere struct {
	Center Point
	Radius float64
}

func (n NSphere) Kind() Kind { return KindNSphere }

func (n NSphere) Envelope() (Box, bool) {
	if len(n.Center) == 0 {
		return Box{}, false
	}
	env := Box{Min: n.Center.clone(), Max: n.Center.clone()}
	for i := range env.Min {
		env.Min[i] -= n.Radius
		env.Max[i] += n.Radius
	}
	return env, true
}

// Linestring is an open sequence of points.
type Linestring []Point

func (l Linestring) Kind() Kind            { return KindLinestring }
func (l Linestring) Envelope() (Box, bool) { return pointsEnvelope(l) }

// Ring is a closed sequence of points.
type Ring []Point

func (r Ring) Kind() Kind            { return KindRing }
func (r Ring) Envelope() (Box, bool) { return pointsEnvelope(r) }

// Polygon is an outer ring with optional holes.
type Polygon struct {
	Outer  Ring
	Inners []Ring
}

func (p Polygon) Kind() Kind            { return KindPolygon }
func (p Polygon) Envelope() (Box, bool) { return p.Outer.Envelope() }

// MultiPoint is a collection of points.
type MultiPoint []Point

func (m MultiPoint) Kind() Kind            { return KindMultiPoint }
func (m MultiPoint) Envelope() (Box, bool) { return pointsEnvelope(m) }

// MultiLinestring is a collection of linestrings.
type MultiLinestring []Linestring

func (m MultiLinestring) Kind() Kind { return KindMultiLinestring }

func (m MultiLinestring) Envelope() (Box, bool) {
	items := make([]Drawable, len(m))
	for i, l := range m {
		items[i] = l
	}
	return drawablesEnvelope(items)
}

// MultiPolygon is a collection of polygons.
type MultiPolygon []Polygon

func (m MultiPolygon) Kind() Kind { return KindMultiPolygon }

func (m MultiPolygon) Envelope() (Box, bool) {
	items := make([]Drawable, len(m))
	for i, p := range m {
		items[i] = p
	}
	return drawablesEnvelope(items)
}

// Geometries is an ordered collection of arbitrary drawables.
type Geometries []Drawable

func (g Geometries) Kind() Kind            { return KindGeometriesContainer }
func (g Geometries) Envelope() (Box, bool) { return drawablesEnvelope(g) }

// Values is a sequence of numbers, plotted as (index, value).
type Values []float64

func (v Values) Kind() Kind { return KindValuesContainer }

func (v Values) Envelope() (Box, bool) {
	if len(v) == 0 {
		return Box{}, false
	}
	env := Box{}
	for i, x := range v {
		env.expand(Point{float64(i), x})
	}
	return env, true
}

// Turn is an intersection point reported by an overlay algorithm.
type Turn struct {
	Point      Point
	Method     byte
	Operations [2]byte
}

// Turns is a collection of turns.
type Turns []Turn

func (t Turns) Kind() Kind { return KindTurnsContainer }

func (t Turns) Envelope() (Box, bool) {
	pts := make([]Point, len(t))
	for i, turn := range t {
		pts[i] = turn.Point
	}
	return pointsEnvelope(pts)
}

func pointsEnvelope(pts []Point) (Box, bool) {
	env := Box{}
	for _, p := range pts {
		if len(p) > 0 {
			env.expand(p)
		}
	}
	return env, len(env.Min) > 0
}

func drawablesEnvelope(items []Drawable) (Box, bool) {
	env := Box{}
	found := false
	for _, d := range items {
		if d == nil {
			continue
		}
		if e, ok := d.Envelope(); ok {
			env.Expand(e)
			found = true
		}
	}
	return env, found
}
