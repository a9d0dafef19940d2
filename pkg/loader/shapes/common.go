package shapes

import (
	"errors"
	"strings"

	"github.com/coral-mesh/geoinspect/pkg/converter"
	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
	"github.com/coral-mesh/geoinspect/pkg/loader/container"
	"github.com/coral-mesh/geoinspect/pkg/typeid"
)

// Creators returns the creators of every built-in shape, in lookup order
// within each kind.
func Creators() []loader.Creator {
	return []loader.Creator{
		loader.NewCreator("boost::geometry::model::point", geometry.KindPoint, createBGPoint),
		loader.NewCreator("boost::geometry::model::d2::point_xy", geometry.KindPoint, createBGPointXY),
		loader.NewCreator("boost::polygon::point_data", geometry.KindPoint, createBPPoint),
		loader.NewCreator("std::complex", geometry.KindPoint, createComplex),
		loader.NewCreator("boost::geometry::model::box", geometry.KindBox, createBGBox),
		loader.NewCreator("boost::polygon::rectangle_data", geometry.KindBox, createBPRectangle),
		loader.NewCreator("boost::geometry::model::segment", geometry.KindSegment, createBGSegment),
		loader.NewCreator("boost::polygon::segment_data", geometry.KindSegment, createBPSegment),
		loader.NewCreator("boost::geometry::model::nsphere", geometry.KindNSphere, createBGNSphere),
		loader.NewCreator("boost::geometry::model::linestring", geometry.KindLinestring, createBGLinestring),
		loader.NewCreator("boost::geometry::model::ring", geometry.KindRing, createBGRing),
		loader.NewCreator("boost::polygon::polygon_data", geometry.KindRing, createBPPolygon),
		loader.NewCreator("boost::geometry::model::polygon", geometry.KindPolygon, createBGPolygon),
		loader.NewCreator("boost::polygon::polygon_with_holes_data", geometry.KindPolygon, createBPPolygonWithHoles),
		loader.NewCreator("boost::geometry::model::multi_point", geometry.KindMultiPoint, createBGMultiPoint),
		loader.NewCreator("boost::geometry::model::multi_linestring", geometry.KindMultiLinestring, createBGMultiLinestring),
		loader.NewCreator("boost::geometry::model::multi_polygon", geometry.KindMultiPolygon, createBGMultiPolygon),
		loader.NewCreator("boost::geometry::index::rtree", geometry.KindGeometriesContainer, createRtree),
		loader.NewCreator("geometries", geometry.KindGeometriesContainer, createGeometries),
		loader.NewCreator("values", geometry.KindValuesContainer, createValues),
		loader.NewCreator("turns", geometry.KindTurnsContainer, createTurns),
		loader.NewCreator("boost::variant", geometry.KindVariant, createVariant),
	}
}

// Register appends the built-in shape creators to r.
func Register(r *loader.Registry) {
	for _, c := range Creators() {
		r.Register(c)
	}
}

// access renders the member m of the value name. m is either an access path
// starting with '.' or '[', or an expression in which $this names the value.
func access(name, m string) string {
	if strings.Contains(m, "$this") {
		return container.Expand(m, name)
	}
	return name + m
}

// part is one member of a value decoded as a whole.
type part struct {
	member string
	conv   converter.Converter[float64]
}

// structConv returns a converter decoding the given members of a value of
// type typ, or nil if a size, an offset or a member converter is unknown.
func structConv(env *loader.Env, name, typ string, parts ...part) converter.Converter[float64] {
	size := env.SizeOf(typ)
	if size <= 0 {
		return nil
	}
	members := make([]converter.Member[float64], len(parts))
	for i, p := range parts {
		if p.conv == nil {
			return nil
		}
		off := env.Offset(name, access(name, p.member))
		if off < 0 {
			return nil
		}
		members[i] = converter.Member[float64]{Converter: p.conv, Offset: int(off)}
	}
	s, err := converter.NewStruct(size, members...)
	if err != nil {
		return nil
	}
	return s
}

// scalar returns the converter of an arithmetic type, or nil.
func scalar(env *loader.Env, typ string) converter.Converter[float64] {
	v, ok := converter.NewValueFor[float64](typ, env.SizeOf(typ))
	if !ok {
		return nil
	}
	return v
}

// memoryConv returns the converter of l, or nil if l cannot decode memory.
func memoryConv(l loader.Loader) converter.Converter[float64] {
	if ml, ok := l.(loader.MemoryLoader); ok {
		return ml.Converter()
	}
	return nil
}

// decodeValue loads one value through the memory path of ml when possible
// and through parsed otherwise.
func decodeValue(env *loader.Env, ml loader.MemoryLoader, name string, parsed func() (geometry.Drawable, error)) (geometry.Drawable, error) {
	var memory func() (geometry.Drawable, error)
	if conv := ml.Converter(); conv != nil {
		memory = func() (geometry.Drawable, error) {
			addr, err := env.Address(name)
			if err != nil {
				return nil, err
			}
			buf, err := env.Read(addr, conv.ByteSize())
			if err != nil {
				return nil, err
			}
			values, err := converter.Decode(conv, buf, 0)
			if err != nil {
				return nil, loader.Unavailablef("%v", err)
			}
			return ml.FromValues(values), nil
		}
	}
	return loader.WithFallback(env, memory, parsed)
}

// findGeometry resolves the geometry loader of the member m of name.
func findGeometry(env *loader.Env, kinds loader.KindSet, name, m string) (loader.GeometryLoader, error) {
	expr := access(name, m)
	typ, err := env.TypeOf(expr)
	if err != nil {
		return nil, err
	}
	l, err := env.Find(kinds, expr, typ)
	if err != nil {
		return nil, err
	}
	gl, ok := l.(loader.GeometryLoader)
	if !ok {
		return nil, loader.Failf("%s loader for %s has no traits", l.Kind(), typ)
	}
	return gl, nil
}

// findContainer resolves the container loader of the member m of name.
func findContainer(env *loader.Env, name, m string) (loader.Container, error) {
	expr := access(name, m)
	typ, err := env.TypeOf(expr)
	if err != nil {
		return nil, err
	}
	l, err := env.Find(loader.ContainerKinds, expr, typ)
	if err != nil {
		return nil, err
	}
	c, ok := l.(loader.Container)
	if !ok {
		return nil, loader.Failf("%s is not a container", typ)
	}
	return c, nil
}

// notFound turns a failed lookup into a declined match.
func notFound(err error) (loader.Loader, error) {
	if errors.Is(err, loader.ErrNotFound) {
		return nil, nil
	}
	return nil, err
}

// parseCS maps a Boost.Geometry coordinate system type to traits fields.
func parseCS(cs string) (geometry.CoordinateSystem, geometry.AngleUnit, error) {
	id := typeid.Parse(cs)
	unit := geometry.Radian
	if u, ok := id.Arg(0); ok && typeid.Name(u) == "boost::geometry::degree" {
		unit = geometry.Degree
	}
	switch id.Name {
	case "boost::geometry::cs::cartesian":
		return geometry.Cartesian, geometry.UnitNone, nil
	case "boost::geometry::cs::spherical":
		return geometry.SphericalPolar, unit, nil
	case "boost::geometry::cs::spherical_equatorial":
		return geometry.SphericalEquatorial, unit, nil
	case "boost::geometry::cs::geographic":
		return geometry.Geographic, unit, nil
	}
	return 0, 0, loader.Failf("unknown coordinate system %s", cs)
}
