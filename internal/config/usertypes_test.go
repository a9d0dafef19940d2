package config

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/geoinspect/pkg/debugger/sim"
	"github.com/coral-mesh/geoinspect/pkg/extract"
	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
)

const userTypes = `
shapes:
  - kind: Point
    id: ns::Pos
    coords: [$this.lon, $this.lat]
    cs: geographic
  - kind: Box
    id: ns::Rect
    left: $this.x
    bottom: $this.y
    width: $this.w
    height: $this.h
  - kind: Linestring
    id: ns::Track
    container: $this.items
containers:
  - kind: array
    id: ns::Items
    pointer: $this.data
    size: $this.count
`

func TestParseKind(t *testing.T) {
	k, err := ParseKind("MultiGeometry")
	require.NoError(t, err)
	assert.Equal(t, geometry.KindGeometriesContainer, k)

	k, err = ParseKind("Ring")
	require.NoError(t, err)
	assert.Equal(t, geometry.KindRing, k)

	_, err = ParseKind("ring")
	assert.Error(t, err)
}

func TestShapeDef(t *testing.T) {
	s, err := ShapeDef{Kind: "Point", ID: "P", Coords: []string{"$this.a", "$this.b"}, CS: "spherical_equatorial", Unit: "radian"}.Shape()
	require.NoError(t, err)
	assert.Equal(t, geometry.SphericalEquatorial, s.System)
	assert.Equal(t, geometry.Radian, s.Unit)

	s, err = ShapeDef{Kind: "Segment", ID: "S", Points: []string{"$this.a", "$this.b"}}.Shape()
	require.NoError(t, err)
	assert.Equal(t, [2]string{"$this.a", "$this.b"}, s.Points)

	tests := []ShapeDef{
		{Kind: "Pointy", ID: "P", Coords: []string{"$this.a"}},
		{Kind: "Point", ID: "P", Coords: []string{"$this.a"}, CS: "polar"},
		{Kind: "Point", ID: "P", Coords: []string{"$this.a"}, CS: "geographic", Unit: "grad"},
		{Kind: "Segment", ID: "S", Points: []string{"$this.a"}},
		{Kind: "Polygon", ID: "P"},
	}
	for _, d := range tests {
		_, err := d.Shape()
		assert.Error(t, err, "%+v", d)
	}
}

func TestContainerDef(t *testing.T) {
	c, err := ContainerDef{Kind: "linked_list", ID: "L", Head: "$this.head", Next: "next", Value: "value"}.Creator()
	require.NoError(t, err)
	assert.Equal(t, "user:L", c.Name())
	assert.Equal(t, geometry.KindContainer, c.Kind())

	for _, d := range []ContainerDef{
		{Kind: "array", ID: "A", Pointer: "$this.data"},
		{Kind: "linked_list", ID: "L", Head: "$this.head"},
		{Kind: "tree", ID: "T"},
		{Kind: "array", Pointer: "$this.data", Size: "$this.n"},
	} {
		_, err := d.Creator()
		assert.Error(t, err, "%+v", d)
	}
}

func setPos(o sim.Object, lon, lat float64) {
	o.Field("lon").SetFloat(lon)
	o.Field("lat").SetFloat(lat)
}

func TestRegisterUserTypes(t *testing.T) {
	path := writeFile(t, t.TempDir(), "types.yaml", userTypes)

	p := sim.New()
	double := p.MustType("double")
	pos := p.DefineStruct("ns::Pos", sim.F("lon", double), sim.F("lat", double))
	rect := p.DefineStruct("ns::Rect",
		sim.F("x", double), sim.F("y", double), sim.F("w", double), sim.F("h", double))
	items := p.DefineStruct("ns::Items", sim.F("data", p.PointerTo(pos)), sim.F("count", p.MustType("int")))
	track := p.DefineStruct("ns::Track", sim.F("items", items))

	setPos(p.Declare("here", pos), 4.5, 50.8)
	r := p.Declare("r", rect)
	r.Field("x").SetFloat(1)
	r.Field("y").SetFloat(1)
	r.Field("w").SetFloat(2)
	r.Field("h").SetFloat(3)

	pts := p.NewArray(pos, 2)
	setPos(pts.Index(0), 0, 0)
	setPos(pts.Index(1), 10, 20)
	tr := p.Declare("tr", track)
	tr.Path("items", "data").SetPointer(pts.Addr)
	tr.Path("items", "count").SetInt(2)

	reg := extract.NewRegistry(zerolog.Nop(), 0)
	n, err := RegisterUserTypes(reg, []string{path})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "user:ns::Pos", reg.Creators(geometry.KindPoint)[0])

	e := extract.New(p, reg, extract.DefaultOptions(), zerolog.Nop())
	ctx := context.Background()

	res, err := e.Load(ctx, "here", loader.DrawableKinds)
	require.NoError(t, err)
	assert.Equal(t, geometry.Point{4.5, 50.8}, res.Value)
	assert.Equal(t, geometry.Traits{Dimension: 2, System: geometry.Geographic, Unit: geometry.Degree}, res.Traits)

	res, err = e.Load(ctx, "r", loader.DrawableKinds)
	require.NoError(t, err)
	assert.Equal(t, geometry.Box{Min: geometry.Point{1, 1}, Max: geometry.Point{3, 4}}, res.Value)

	res, err = e.Load(ctx, "tr", loader.DrawableKinds)
	require.NoError(t, err)
	assert.Equal(t, geometry.Linestring{{0, 0}, {10, 20}}, res.Value)
}

func TestRegisterUserTypesErrors(t *testing.T) {
	reg := extract.NewRegistry(zerolog.Nop(), 0)

	_, err := RegisterUserTypes(reg, []string{"/nonexistent/types.yaml"})
	assert.Error(t, err)

	path := writeFile(t, t.TempDir(), "bad.yaml", "shapes:\n  - kind: Box\n    id: B\n    left: $this.l\n")
	_, err = RegisterUserTypes(reg, []string{path})
	assert.ErrorContains(t, err, "bad.yaml")
}
