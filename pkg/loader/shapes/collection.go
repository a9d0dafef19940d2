package shapes

import (
	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
	"github.com/coral-mesh/geoinspect/pkg/loader/container"
)

// Collection loads a value whose elements live in a container: ranges of
// points, multi-geometries and containers of arbitrary geometries.
type Collection struct {
	kind   geometry.Kind
	member string
	cont   loader.Container
	elem   loader.ValueLoader
}

var _ loader.GeometryLoader = (*Collection)(nil)

// elementKinds returns the kinds allowed for the elements of a collection.
func elementKinds(kind geometry.Kind) loader.KindSet {
	switch kind {
	case geometry.KindLinestring, geometry.KindRing, geometry.KindMultiPoint:
		return loader.KindsOf(geometry.KindPoint)
	case geometry.KindMultiLinestring:
		return loader.KindsOf(geometry.KindLinestring)
	case geometry.KindMultiPolygon:
		return loader.KindsOf(geometry.KindPolygon)
	case geometry.KindGeometriesContainer:
		return loader.ElementKinds
	}
	return 0
}

// NewCollection returns a loader of kind whose elements are enumerated by
// cont applied to the member m of the value. The element loader is resolved
// from the representative element of cont.
func NewCollection(env *loader.Env, name string, kind geometry.Kind, m string, cont loader.Container) (*Collection, error) {
	kinds := elementKinds(kind)
	if kinds == 0 {
		return nil, loader.Failf("a container cannot form a %s", kind)
	}
	elemName, elemType, err := cont.ElementInfo(env, access(name, m))
	if err != nil {
		return nil, err
	}
	l, err := env.Find(kinds, elemName, elemType)
	if err != nil {
		return nil, err
	}
	elem, ok := l.(loader.ValueLoader)
	if !ok {
		return nil, loader.Failf("%s elements cannot be loaded", elemType)
	}
	return &Collection{kind: kind, member: m, cont: cont, elem: elem}, nil
}

func (c *Collection) Kind() geometry.Kind { return c.kind }

// Traits are those of the first element. An empty container of arbitrary
// geometries has none.
func (c *Collection) Traits(env *loader.Env, name string) (geometry.Traits, error) {
	gl, ok := c.elem.(loader.GeometryLoader)
	if !ok {
		return geometry.Traits{}, nil
	}
	elemName, _, err := c.cont.ElementInfo(env, access(name, c.member))
	if err != nil {
		return geometry.Traits{}, err
	}
	t, err := gl.Traits(env, elemName)
	if err != nil && c.kind == geometry.KindGeometriesContainer {
		return geometry.Traits{}, nil
	}
	return t, err
}

func (c *Collection) Load(env *loader.Env, name string) (geometry.Drawable, error) {
	items, err := loader.LoadElements(env, c.cont, access(name, c.member), c.elem)
	if err != nil {
		return nil, err
	}
	return collect(c.kind, items)
}

func collect(kind geometry.Kind, items []geometry.Drawable) (geometry.Drawable, error) {
	switch kind {
	case geometry.KindLinestring, geometry.KindRing, geometry.KindMultiPoint:
		pts, err := convertAll[geometry.Point](items)
		if err != nil {
			return nil, err
		}
		switch kind {
		case geometry.KindLinestring:
			return geometry.Linestring(pts), nil
		case geometry.KindRing:
			return geometry.Ring(pts), nil
		}
		return geometry.MultiPoint(pts), nil
	case geometry.KindMultiLinestring:
		ls, err := convertAll[geometry.Linestring](items)
		return geometry.MultiLinestring(ls), err
	case geometry.KindMultiPolygon:
		ps, err := convertAll[geometry.Polygon](items)
		return geometry.MultiPolygon(ps), err
	}
	return geometry.Geometries(items), nil
}

func convertAll[D geometry.Drawable](items []geometry.Drawable) ([]D, error) {
	out := make([]D, len(items))
	for i, d := range items {
		v, ok := d.(D)
		if !ok {
			var want D
			return nil, loader.Failf("element %d is a %s, not a %s", i, d.Kind(), want.Kind())
		}
		out[i] = v
	}
	return out, nil
}

// newVectorCollection builds a collection over a Boost.Geometry range
// deriving from std::vector.
func newVectorCollection(env *loader.Env, t loader.Target, kind geometry.Kind) (loader.Loader, error) {
	v, err := container.NewVector(env, t.Name)
	if err != nil {
		return nil, err
	}
	return NewCollection(env, t.Name, kind, "", v)
}

func createBGLinestring(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::geometry::model::linestring") {
		return nil, nil
	}
	return newVectorCollection(env, t, geometry.KindLinestring)
}

func createBGRing(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::geometry::model::ring") {
		return nil, nil
	}
	return newVectorCollection(env, t, geometry.KindRing)
}

func createBGMultiPoint(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::geometry::model::multi_point") {
		return nil, nil
	}
	return newVectorCollection(env, t, geometry.KindMultiPoint)
}

func createBGMultiLinestring(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::geometry::model::multi_linestring") {
		return nil, nil
	}
	return newVectorCollection(env, t, geometry.KindMultiLinestring)
}

func createBGMultiPolygon(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::geometry::model::multi_polygon") {
		return nil, nil
	}
	return newVectorCollection(env, t, geometry.KindMultiPolygon)
}

func createBPPolygon(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::polygon::polygon_data") {
		return nil, nil
	}
	cont, err := findContainer(env, t.Name, ".coords_")
	if err != nil {
		return nil, err
	}
	return NewCollection(env, t.Name, geometry.KindRing, ".coords_", cont)
}

// createGeometries accepts any container whose elements are geometries or
// variants of geometries.
func createGeometries(env *loader.Env, t loader.Target) (loader.Loader, error) {
	cont, err := findContainer(env, t.Name, "")
	if err != nil {
		return notFound(err)
	}
	c, err := NewCollection(env, t.Name, geometry.KindGeometriesContainer, "", cont)
	if err != nil {
		return notFound(err)
	}
	return c, nil
}

// Polygon loads an outer ring and a container of inner rings.
type Polygon struct {
	outerMember, innersMember string
	outer                     loader.GeometryLoader
	inners                    loader.Container
	inner                     loader.ValueLoader
}

var _ loader.GeometryLoader = (*Polygon)(nil)

// NewPolygon returns a loader of polygons whose outer ring is the member
// outer and whose inner rings are the elements of the container inners. An
// empty inners means polygons without holes.
func NewPolygon(env *loader.Env, name, outer, inners string) (*Polygon, error) {
	ring := loader.KindsOf(geometry.KindRing)
	o, err := findGeometry(env, ring, name, outer)
	if err != nil {
		return nil, err
	}
	p := &Polygon{outerMember: outer, innersMember: inners, outer: o}
	if inners == "" {
		return p, nil
	}
	cont, err := findContainer(env, name, inners)
	if err != nil {
		return nil, err
	}
	elemName, elemType, err := cont.ElementInfo(env, access(name, inners))
	if err != nil {
		return nil, err
	}
	l, err := env.Find(ring, elemName, elemType)
	if err != nil {
		return nil, err
	}
	inner, ok := l.(loader.ValueLoader)
	if !ok {
		return nil, loader.Failf("inner rings of %s cannot be loaded", name)
	}
	p.inners, p.inner = cont, inner
	return p, nil
}

func (p *Polygon) Kind() geometry.Kind { return geometry.KindPolygon }

func (p *Polygon) Traits(env *loader.Env, name string) (geometry.Traits, error) {
	return p.outer.Traits(env, access(name, p.outerMember))
}

func (p *Polygon) Load(env *loader.Env, name string) (geometry.Drawable, error) {
	if err := env.Check(); err != nil {
		return nil, err
	}
	d, err := p.outer.Load(env, access(name, p.outerMember))
	if err != nil {
		return nil, err
	}
	outer, ok := d.(geometry.Ring)
	if !ok {
		return nil, loader.Failf("outer ring of %s is a %s", name, d.Kind())
	}
	if p.inners == nil {
		return geometry.Polygon{Outer: outer}, nil
	}
	items, err := loader.LoadElements(env, p.inners, access(name, p.innersMember), p.inner)
	if err != nil {
		return nil, err
	}
	inners, err := convertAll[geometry.Ring](items)
	if err != nil {
		return nil, err
	}
	return geometry.Polygon{Outer: outer, Inners: inners}, nil
}

func createBGPolygon(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::geometry::model::polygon") {
		return nil, nil
	}
	return NewPolygon(env, t.Name, ".m_outer", ".m_inners")
}

func createBPPolygonWithHoles(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::polygon::polygon_with_holes_data") {
		return nil, nil
	}
	return NewPolygon(env, t.Name, ".self_", ".holes_")
}
