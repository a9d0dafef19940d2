package shapes

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/geoinspect/pkg/converter"
	"github.com/coral-mesh/geoinspect/pkg/debugger"
	"github.com/coral-mesh/geoinspect/pkg/debugger/sim"
	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
	"github.com/coral-mesh/geoinspect/pkg/loader/container"
)

type fixture struct {
	p      *sim.Process
	reg    *loader.Registry
	memory *loader.Env
	parsed *loader.Env
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{p: sim.New(), reg: loader.NewRegistry(zerolog.Nop(), 0)}
	container.Register(f.reg)
	Register(f.reg)
	opts := loader.DefaultOptions()
	f.memory = loader.NewEnv(f.p, f.reg, opts, zerolog.Nop())
	f.parsed = loader.NewEnv(debugger.ParsedOnly(f.p), f.reg, opts, zerolog.Nop())
	return f
}

func (f *fixture) find(t *testing.T, name string) loader.ValueLoader {
	t.Helper()
	typ, err := f.memory.TypeOf(name)
	require.NoError(t, err)
	l, err := f.reg.Find(f.memory, loader.DrawableKinds, name, typ)
	require.NoError(t, err)
	vl, ok := l.(loader.ValueLoader)
	require.True(t, ok)
	return vl
}

// load loads name through both paths and checks they agree.
func (f *fixture) load(t *testing.T, name string) geometry.Drawable {
	t.Helper()
	l := f.find(t, name)
	viaMemory, err := l.Load(f.memory, name)
	require.NoError(t, err)
	viaParsed, err := l.Load(f.parsed, name)
	require.NoError(t, err)
	assert.Equal(t, viaMemory, viaParsed)
	return viaMemory
}

func (f *fixture) traits(t *testing.T, name string) geometry.Traits {
	t.Helper()
	gl, ok := f.find(t, name).(loader.GeometryLoader)
	require.True(t, ok)
	tr, err := gl.Traits(f.memory, name)
	require.NoError(t, err)
	return tr
}

func (f *fixture) point2() *sim.Type {
	return f.p.BGPointType("double", 2, sim.CSCartesian)
}

func TestPoints(t *testing.T) {
	f := newFixture(t)

	sim.SetPoint(f.p.Declare("p3", f.p.BGPointType("double", 3, sim.CSCartesian)), 1, 2, 3)
	sim.SetPoint(f.p.Declare("xy", f.p.BGPointXYType("float", sim.CSCartesian)), 0.5, -1.5)
	sim.SetPoint(f.p.Declare("eq", f.p.BGPointType("double", 2, sim.CSSphericalEquatorial)), 10, 20)
	sim.SetPoint(f.p.Declare("geo", f.p.BGPointType("double", 2, sim.CSGeographic)), 30, 40)
	sim.SetPoint(f.p.Declare("sph", f.p.BGPointType("double", 2, sim.CSSphericalPolar)), 1, 2)
	f.p.Declare("bp", f.p.BPPointType("int")).Field("coords_").SetValues(7, -8)
	f.p.Declare("c", f.p.ComplexType("double")).Field("_Val").SetValues(1.25, 2.5)

	tests := []struct {
		name   string
		want   geometry.Point
		traits geometry.Traits
	}{
		{"p3", geometry.Point{1, 2, 3}, geometry.CartesianTraits(3)},
		{"xy", geometry.Point{0.5, -1.5}, geometry.CartesianTraits(2)},
		{"eq", geometry.Point{10, 20}, geometry.Traits{Dimension: 2, System: geometry.SphericalEquatorial, Unit: geometry.Degree}},
		{"geo", geometry.Point{30, 40}, geometry.Traits{Dimension: 2, System: geometry.Geographic, Unit: geometry.Degree}},
		{"sph", geometry.Point{1, 2}, geometry.Traits{Dimension: 2, System: geometry.SphericalPolar, Unit: geometry.Radian}},
		{"bp", geometry.Point{7, -8}, geometry.CartesianTraits(2)},
		{"c", geometry.Point{1.25, 2.5}, geometry.Traits{Dimension: 2, System: geometry.Complex}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.load(t, tt.name))
			assert.Equal(t, tt.traits, f.traits(t, tt.name))
		})
	}
}

func TestPointDimensions(t *testing.T) {
	f := newFixture(t)
	sim.SetPoint(f.p.Declare("p1", f.p.BGPointType("double", 1, sim.CSCartesian)), 1)
	sim.SetPoint(f.p.Declare("p4", f.p.BGPointType("double", 4, sim.CSCartesian)), 1, 2, 3, 4)

	for _, name := range []string{"p1", "p4"} {
		t.Run(name, func(t *testing.T) {
			typ, err := f.memory.TypeOf(name)
			require.NoError(t, err)
			l, err := f.reg.Find(f.memory, loader.DrawableKinds, name, typ)
			assert.ErrorIs(t, err, loader.ErrNotFound)
			assert.Nil(t, l)
		})
	}
}

func TestBoxConverterLayout(t *testing.T) {
	f := newFixture(t)
	f.p.Declare("b", f.p.BGBoxType(f.point2()))

	ml, ok := f.find(t, "b").(loader.MemoryLoader)
	require.True(t, ok)
	conv := ml.Converter()
	require.NotNil(t, conv)
	assert.Equal(t, 32, conv.ByteSize())
	assert.Equal(t, 4, conv.ValueCount())

	buf := make([]byte, 32)
	for i, v := range []float64{1, 2, 3, 4} {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	values, err := converter.Decode(conv, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, geometry.Box{Min: geometry.Point{1, 2}, Max: geometry.Point{3, 4}}, ml.FromValues(values))
}

func TestComposites(t *testing.T) {
	f := newFixture(t)
	pt := f.point2()

	b := f.p.Declare("box", f.p.BGBoxType(pt))
	sim.SetPoint(b.Field("m_min_corner"), -1, -2)
	sim.SetPoint(b.Field("m_max_corner"), 3, 4)

	s := f.p.Declare("seg", f.p.BGSegmentType(pt))
	sim.SetPoint(s.Field("first"), 0, 0)
	sim.SetPoint(s.Field("second"), 5, 5)

	bs := f.p.Declare("bps", f.p.BPSegmentType("int"))
	bs.Field("points_").Index(0).Field("coords_").SetValues(1, 2)
	bs.Field("points_").Index(1).Field("coords_").SetValues(3, 4)

	sim.SetRectangle(f.p.Declare("rect", f.p.BPRectangleType("int")), 1, 2, 5, 6)

	n := f.p.Declare("ns", f.p.BGNSphereType(pt, "double"))
	sim.SetPoint(n.Field("m_center"), 1, 1)
	n.Field("m_radius").SetFloat(2)

	tests := []struct {
		name string
		want geometry.Drawable
	}{
		{"box", geometry.Box{Min: geometry.Point{-1, -2}, Max: geometry.Point{3, 4}}},
		{"seg", geometry.Segment{First: geometry.Point{0, 0}, Second: geometry.Point{5, 5}}},
		{"bps", geometry.Segment{First: geometry.Point{1, 2}, Second: geometry.Point{3, 4}}},
		{"rect", geometry.Box{Min: geometry.Point{1, 2}, Max: geometry.Point{5, 6}}},
		{"ns", geometry.NSphere{Center: geometry.Point{1, 1}, Radius: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.load(t, tt.name))
			assert.Equal(t, geometry.CartesianTraits(2), f.traits(t, tt.name))
		})
	}
}

var (
	square = [][]float64{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}
	hole   = [][]float64{{2, 2}, {4, 2}, {4, 4}, {2, 2}}
)

func points(pts [][]float64) []geometry.Point {
	out := make([]geometry.Point, len(pts))
	for i, p := range pts {
		out[i] = geometry.Point(p)
	}
	return out
}

func TestRangesAndPolygons(t *testing.T) {
	f := newFixture(t)
	pt := f.point2()
	ls := f.p.BGLinestringType(pt)
	poly := f.p.BGPolygonType(pt)

	sim.FillPoints(f.p.Declare("ls", ls), [][]float64{{0, 0}, {1, 1}, {2, 0}})
	f.p.Declare("empty", ls)
	sim.FillPoints(f.p.Declare("ring", f.p.BGRingType(pt)), square)
	sim.FillPoints(f.p.Declare("mpt", f.p.BGMultiPointType(pt)), [][]float64{{5, 5}})
	sim.FillPolygon(f.p.Declare("poly", poly), square, hole)
	sim.FillPolygon(f.p.Declare("solid", poly), square)

	mls := f.p.Declare("mls", f.p.BGMultiLinestringType(ls))
	sim.FillVector(mls, 2, func(o sim.Object, i int) {
		sim.FillPoints(o, [][]float64{{float64(i), 0}, {float64(i), 1}})
	})
	mpoly := f.p.Declare("mpoly", f.p.BGMultiPolygonType(poly))
	sim.FillVector(mpoly, 2, func(o sim.Object, i int) {
		sim.FillPolygon(o, square, hole)
	})

	sim.FillBPPolygon(f.p.Declare("bpr", f.p.BPPolygonType("int")), square)
	ph := f.p.Declare("bph", f.p.BPPolygonWithHolesType("int"))
	sim.FillBPPolygon(ph.Field("self_"), square)
	sim.FillList(ph.Field("holes_"), 1, func(o sim.Object, i int) {
		sim.FillBPPolygon(o, hole)
	})

	withHole := geometry.Polygon{Outer: points(square), Inners: []geometry.Ring{points(hole)}}
	tests := []struct {
		name string
		want geometry.Drawable
	}{
		{"ls", geometry.Linestring{{0, 0}, {1, 1}, {2, 0}}},
		{"empty", geometry.Linestring{}},
		{"ring", geometry.Ring(points(square))},
		{"mpt", geometry.MultiPoint{{5, 5}}},
		{"poly", withHole},
		{"solid", geometry.Polygon{Outer: points(square), Inners: []geometry.Ring{}}},
		{"mls", geometry.MultiLinestring{{{0, 0}, {0, 1}}, {{1, 0}, {1, 1}}}},
		{"mpoly", geometry.MultiPolygon{withHole, withHole}},
		{"bpr", geometry.Ring(points(square))},
		{"bph", withHole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.load(t, tt.name))
		})
	}
	assert.Equal(t, geometry.CartesianTraits(2), f.traits(t, "poly"))
}

func TestMemoryPathSkipsEvaluation(t *testing.T) {
	f := newFixture(t)
	ls := f.p.Declare("ls", f.p.BGLinestringType(f.point2()))
	sim.FillPoints(ls, [][]float64{{0, 0}, {1, 1}, {2, 2}, {3, 3}})
	l := f.find(t, "ls")

	f.p.ResetStats()
	_, err := l.Load(f.memory, "ls")
	require.NoError(t, err)
	assert.Zero(t, f.p.Stats().Evaluations)

	f.p.ResetStats()
	_, err = l.Load(f.parsed, "ls")
	require.NoError(t, err)
	assert.Greater(t, f.p.Stats().Evaluations, 8)
}

func TestVariantDispatch(t *testing.T) {
	f := newFixture(t)
	pt := f.point2()
	box := f.p.BGBoxType(pt)
	v := f.p.Declare("v", f.p.VariantType(pt, box, f.p.BGSegmentType(pt)))

	b := sim.SetVariant(v, 1, box)
	sim.SetPoint(b.Field("m_min_corner"), 1, 2)
	sim.SetPoint(b.Field("m_max_corner"), 3, 4)

	want := geometry.Box{Min: geometry.Point{1, 2}, Max: geometry.Point{3, 4}}
	assert.Equal(t, want, f.load(t, "v"))
	assert.Equal(t, geometry.KindVariant, f.find(t, "v").Kind())

	t.Run("backup", func(t *testing.T) {
		heap := sim.SetVariantBackup(v, 1, box)
		sim.SetPoint(heap.Field("m_min_corner"), 5, 6)
		sim.SetPoint(heap.Field("m_max_corner"), 7, 8)
		assert.Equal(t, geometry.Box{Min: geometry.Point{5, 6}, Max: geometry.Point{7, 8}}, f.load(t, "v"))
	})

	t.Run("out of range", func(t *testing.T) {
		v.Field("which_").SetInt(5)
		_, err := f.find(t, "v").Load(f.memory, "v")
		assert.ErrorIs(t, err, loader.ErrLoadFailed)
	})
}

func TestContainersOfValues(t *testing.T) {
	f := newFixture(t)
	pt := f.point2()
	box := f.p.BGBoxType(pt)

	boxes := f.p.Declare("boxes", f.p.VectorType(box))
	sim.FillVector(boxes, 2, func(o sim.Object, i int) {
		sim.SetPoint(o.Field("m_min_corner"), float64(i), 0)
		sim.SetPoint(o.Field("m_max_corner"), float64(i)+1, 1)
	})

	variant := f.p.VariantType(pt, box)
	mixed := f.p.Declare("mixed", f.p.VectorType(variant))
	sim.FillVector(mixed, 2, func(o sim.Object, i int) {
		if i == 0 {
			sim.SetPoint(sim.SetVariant(o, 0, pt), 9, 9)
			return
		}
		b := sim.SetVariant(o, 1, box)
		sim.SetPoint(b.Field("m_min_corner"), 0, 0)
		sim.SetPoint(b.Field("m_max_corner"), 1, 1)
	})

	d := f.p.Declare("dq", f.p.DequeType(f.p.MustType("double")))
	sim.FillDeque(d, 5, 2, 4, 1, func(o sim.Object, i int) { o.SetFloat(float64(i) / 2) })

	ints := f.p.Declare("ints", f.p.VectorType(f.p.MustType("int")))
	sim.FillVector(ints, 3, func(o sim.Object, i int) { o.SetInt(int64(i - 1)) })

	turns := f.p.Declare("turns", f.p.VectorType(f.p.TurnInfoType(pt)))
	sim.FillVector(turns, 2, func(o sim.Object, i int) {
		sim.SetTurn(o, []float64{float64(i), 1}, 2+i, 1, 2)
	})

	tests := []struct {
		name string
		want geometry.Drawable
	}{
		{"boxes", geometry.Geometries{
			geometry.Box{Min: geometry.Point{0, 0}, Max: geometry.Point{1, 1}},
			geometry.Box{Min: geometry.Point{1, 0}, Max: geometry.Point{2, 1}},
		}},
		{"mixed", geometry.Geometries{
			geometry.Point{9, 9},
			geometry.Box{Min: geometry.Point{0, 0}, Max: geometry.Point{1, 1}},
		}},
		{"dq", geometry.Values{0, 0.5, 1, 1.5, 2}},
		{"ints", geometry.Values{-1, 0, 1}},
		{"turns", geometry.Turns{
			{Point: geometry.Point{0, 1}, Method: 'i', Operations: [2]byte{'u', 'i'}},
			{Point: geometry.Point{1, 1}, Method: 't', Operations: [2]byte{'u', 'i'}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.load(t, tt.name))
		})
	}
	assert.Equal(t, geometry.CartesianTraits(2), f.traits(t, "boxes"))
	assert.Equal(t, geometry.CartesianTraits(2), f.traits(t, "turns"))
}

func TestRtree(t *testing.T) {
	f := newFixture(t)
	pt := f.point2()
	rt := f.p.RtreeType(pt, f.p.BGBoxType(pt), 4)

	const n = 23
	coords := func(i int) []float64 { return []float64{float64(i), float64(i * i % 7)} }
	tree := f.p.Declare("rt", rt.Tree)
	rt.FillRtree(tree, n, func(o sim.Object, i int) {
		sim.SetPoint(o, coords(i)...)
	}, func(i int) ([]float64, []float64) { return coords(i), coords(i) })
	rt.FillRtree(f.p.Declare("none", rt.Tree), 0, nil, nil)

	got := f.load(t, "rt")
	require.IsType(t, geometry.Geometries{}, got)
	require.Len(t, got, n)
	for i, d := range got.(geometry.Geometries) {
		assert.Equal(t, geometry.Point(coords(i)), d)
	}
	assert.Empty(t, f.load(t, "none"))
	assert.Equal(t, geometry.CartesianTraits(2), f.traits(t, "rt"))

	t.Run("memory walk", func(t *testing.T) {
		l := f.find(t, "rt")
		f.p.ResetStats()
		_, err := l.Load(f.memory, "rt")
		require.NoError(t, err)
		assert.Zero(t, f.p.Stats().Evaluations)
	})

	t.Run("depth guard", func(t *testing.T) {
		env := loader.NewEnv(debugger.ParsedOnly(f.p), f.reg, loader.Options{MaxDepth: 1}, zerolog.Nop())
		_, err := f.find(t, "rt").Load(env, "rt")
		assert.ErrorIs(t, err, loader.ErrLoadFailed)
	})

	t.Run("corrupted count", func(t *testing.T) {
		tree.Path("m_members", "values_count").SetInt(n + 1)
		defer tree.Path("m_members", "values_count").SetInt(n)
		l := f.find(t, "rt")
		_, err := l.Load(f.memory, "rt")
		assert.ErrorIs(t, err, loader.ErrLoadFailed)
		_, err = l.Load(f.parsed, "rt")
		assert.ErrorIs(t, err, loader.ErrLoadFailed)
	})
}

func TestCancellation(t *testing.T) {
	f := newFixture(t)
	const n = 1_000_000
	ls := f.p.Declare("big", f.p.BGLinestringType(f.point2()))
	sim.FillVector(ls, n, func(o sim.Object, i int) { sim.SetPoint(o, float64(i), 0) })
	l := f.find(t, "big")

	for _, env := range []*loader.Env{f.memory, f.parsed} {
		calls := 0
		tok := loader.NewToken(context.Background(), func() bool {
			calls++
			return calls <= 10
		})
		got, err := l.Load(env.WithToken(tok), "big")
		assert.ErrorIs(t, err, loader.ErrTimedOut)
		assert.Nil(t, got)
		assert.LessOrEqual(t, tok.Checks(), 12)
	}
}

func TestUserShapes(t *testing.T) {
	f := newFixture(t)
	double := f.p.MustType("double")
	integer := f.p.MustType("int")

	myPoint := f.p.DefineStruct("MyPoint", sim.F("x", double), sim.F("y", f.p.MustType("float")))
	myRect := f.p.DefineStruct("MyRect", sim.F("l", integer), sim.F("b", integer), sim.F("w", integer), sim.F("h", integer))
	myRay := f.p.DefineStruct("MyRay", sim.F("from", myPoint), sim.F("to", myPoint))
	myRing := f.p.DefineStruct("MyRing", sim.F("pts", f.p.VectorType(myPoint)))
	myPoly := f.p.DefineStruct("MyPoly", sim.F("outer", myRing))

	shapes := []UserShape{
		{Kind: geometry.KindPoint, ID: "MyPoint", Coords: []string{"$this.x", "$this.y"}},
		{Kind: geometry.KindBox, ID: "MyRect", Left: "$this.l", Bottom: "$this.b", Width: "$this.w", Height: "$this.h"},
		{Kind: geometry.KindRay, ID: "MyRay", Points: [2]string{"$this.from", "$this.to"}},
		{Kind: geometry.KindRing, ID: "MyRing", Container: "$this.pts"},
		{Kind: geometry.KindPolygon, ID: "MyPoly", Outer: "$this.outer"},
	}
	for _, s := range shapes {
		c, err := NewUserCreator(s)
		require.NoError(t, err)
		f.reg.Prepend(c)
	}

	mp := f.p.Declare("mp", myPoint)
	mp.Field("x").SetFloat(1.5)
	mp.Field("y").SetFloat(-2)

	r := f.p.Declare("mr", myRect)
	r.Field("l").SetInt(1)
	r.Field("b").SetInt(2)
	r.Field("w").SetInt(3)
	r.Field("h").SetInt(4)

	ray := f.p.Declare("ray", myRay)
	ray.Path("from", "x").SetFloat(0)
	ray.Path("to", "x").SetFloat(1)
	ray.Path("to", "y").SetFloat(1)

	fill := func(o sim.Object, i int) {
		o.Field("x").SetFloat(square[i][0])
		o.Field("y").SetFloat(square[i][1])
	}
	sim.FillVector(f.p.Declare("ring", myRing).Field("pts"), len(square), fill)
	sim.FillVector(f.p.Declare("poly", myPoly).Path("outer", "pts"), len(square), fill)

	tests := []struct {
		name string
		want geometry.Drawable
	}{
		{"mp", geometry.Point{1.5, -2}},
		{"mr", geometry.Box{Min: geometry.Point{1, 2}, Max: geometry.Point{4, 6}}},
		{"ray", geometry.Ray{Origin: geometry.Point{0, 0}, Through: geometry.Point{1, 1}}},
		{"ring", geometry.Ring(points(square))},
		{"poly", geometry.Polygon{Outer: points(square)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.load(t, tt.name))
		})
	}

	ml, ok := f.find(t, "mr").(loader.MemoryLoader)
	require.True(t, ok)
	assert.NotNil(t, ml.Converter())
}

func TestUserShapeValidation(t *testing.T) {
	tests := []struct {
		name  string
		shape UserShape
	}{
		{"no id", UserShape{Kind: geometry.KindPoint, Coords: []string{"$this.x"}}},
		{"point without coords", UserShape{Kind: geometry.KindPoint, ID: "P"}},
		{"point with one coord", UserShape{Kind: geometry.KindPoint, ID: "P", Coords: []string{"$this.x"}}},
		{"point with four coords", UserShape{Kind: geometry.KindPoint, ID: "P", Coords: []string{"$this.a", "$this.b", "$this.c", "$this.d"}}},
		{"box without sides", UserShape{Kind: geometry.KindBox, ID: "B", Left: "$this.l", Bottom: "$this.b"}},
		{"segment with one point", UserShape{Kind: geometry.KindSegment, ID: "S", Points: [2]string{"$this.a"}}},
		{"ring without container", UserShape{Kind: geometry.KindRing, ID: "R"}},
		{"image", UserShape{Kind: geometry.KindImage, ID: "I"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUserCreator(tt.shape)
			assert.Error(t, err)
		})
	}
}

func TestParseCS(t *testing.T) {
	cs, unit, err := parseCS(sim.CSSphericalEquatorial)
	require.NoError(t, err)
	assert.Equal(t, geometry.SphericalEquatorial, cs)
	assert.Equal(t, geometry.Degree, unit)

	_, _, err = parseCS("boost::geometry::cs::unknown")
	assert.ErrorIs(t, err, loader.ErrLoadFailed)
}
