package shapes

import (
	"github.com/coral-mesh/geoinspect/pkg/converter"
	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
)

// Pair loads a value defined by two points: a box, a segment, a ray or a
// line.
type Pair struct {
	kind          geometry.Kind
	first, second string
	point         loader.GeometryLoader
	conv          converter.Converter[float64]
}

var (
	_ loader.GeometryLoader = (*Pair)(nil)
	_ loader.MemoryLoader   = (*Pair)(nil)
)

// NewPair returns a loader of values of type t whose two points are the
// members first and second. Both points must have the same type.
func NewPair(env *loader.Env, t loader.Target, kind geometry.Kind, first, second string) (*Pair, error) {
	switch kind {
	case geometry.KindBox, geometry.KindSegment, geometry.KindRay, geometry.KindLine:
	default:
		return nil, loader.Failf("two points cannot form a %s", kind)
	}
	point, err := findGeometry(env, loader.KindsOf(geometry.KindPoint), t.Name, first)
	if err != nil {
		return nil, err
	}
	pc := memoryConv(point)
	return &Pair{
		kind:   kind,
		first:  first,
		second: second,
		point:  point,
		conv:   structConv(env, t.Name, t.Type, part{first, pc}, part{second, pc}),
	}, nil
}

func (p *Pair) Kind() geometry.Kind { return p.kind }

func (p *Pair) Traits(env *loader.Env, name string) (geometry.Traits, error) {
	return p.point.Traits(env, access(name, p.first))
}

func (p *Pair) Converter() converter.Converter[float64] { return p.conv }

func (p *Pair) FromValues(values []float64) geometry.Drawable {
	half := len(values) / 2
	a := geometry.Point(append([]float64(nil), values[:half]...))
	b := geometry.Point(append([]float64(nil), values[half:]...))
	return p.build(a, b)
}

func (p *Pair) build(a, b geometry.Point) geometry.Drawable {
	switch p.kind {
	case geometry.KindBox:
		return geometry.Box{Min: a, Max: b}
	case geometry.KindRay:
		return geometry.Ray{Origin: a, Through: b}
	case geometry.KindLine:
		return geometry.Line{First: a, Second: b}
	}
	return geometry.Segment{First: a, Second: b}
}

func (p *Pair) Load(env *loader.Env, name string) (geometry.Drawable, error) {
	return decodeValue(env, p, name, func() (geometry.Drawable, error) {
		a, err := loadPoint(env, p.point, access(name, p.first))
		if err != nil {
			return nil, err
		}
		b, err := loadPoint(env, p.point, access(name, p.second))
		if err != nil {
			return nil, err
		}
		return p.build(a, b), nil
	})
}

func loadPoint(env *loader.Env, l loader.ValueLoader, name string) (geometry.Point, error) {
	d, err := l.Load(env, name)
	if err != nil {
		return nil, err
	}
	pt, ok := d.(geometry.Point)
	if !ok {
		return nil, loader.Failf("%s is a %s, not a point", name, d.Kind())
	}
	return pt, nil
}

func createBGBox(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::geometry::model::box") {
		return nil, nil
	}
	return NewPair(env, t, geometry.KindBox, ".m_min_corner", ".m_max_corner")
}

func createBGSegment(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::geometry::model::segment") {
		return nil, nil
	}
	return NewPair(env, t, geometry.KindSegment, ".first", ".second")
}

func createBPSegment(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::polygon::segment_data") {
		return nil, nil
	}
	return NewPair(env, t, geometry.KindSegment, ".points_[0]", ".points_[1]")
}

// NSphere loads a center point and a radius.
type NSphere struct {
	center, radius string
	point          loader.GeometryLoader
	conv           converter.Converter[float64]
}

var (
	_ loader.GeometryLoader = (*NSphere)(nil)
	_ loader.MemoryLoader   = (*NSphere)(nil)
)

func createBGNSphere(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::geometry::model::nsphere") {
		return nil, nil
	}
	n := &NSphere{center: ".m_center", radius: ".m_radius"}
	point, err := findGeometry(env, loader.KindsOf(geometry.KindPoint), t.Name, n.center)
	if err != nil {
		return nil, err
	}
	n.point = point
	if typ, err := env.TypeOf(t.Name + n.radius); err == nil {
		n.conv = structConv(env, t.Name, t.Type,
			part{n.center, memoryConv(point)}, part{n.radius, scalar(env, typ)})
	}
	return n, nil
}

func (n *NSphere) Kind() geometry.Kind { return geometry.KindNSphere }

func (n *NSphere) Traits(env *loader.Env, name string) (geometry.Traits, error) {
	return n.point.Traits(env, name+n.center)
}

func (n *NSphere) Converter() converter.Converter[float64] { return n.conv }

func (n *NSphere) FromValues(values []float64) geometry.Drawable {
	last := len(values) - 1
	return geometry.NSphere{
		Center: geometry.Point(append([]float64(nil), values[:last]...)),
		Radius: values[last],
	}
}

func (n *NSphere) Load(env *loader.Env, name string) (geometry.Drawable, error) {
	return decodeValue(env, n, name, func() (geometry.Drawable, error) {
		c, err := loadPoint(env, n.point, name+n.center)
		if err != nil {
			return nil, err
		}
		r, err := env.EvalFloat(name + n.radius)
		if err != nil {
			return nil, err
		}
		return geometry.NSphere{Center: c, Radius: r}, nil
	})
}
