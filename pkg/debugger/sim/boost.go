package sim

import (
	"fmt"
	"strings"

	"github.com/coral-mesh/geoinspect/pkg/typeid"
)

// Coordinate system type names as spelled by Boost.Geometry.
const (
	CSCartesian           = "boost::geometry::cs::cartesian"
	CSSphericalEquatorial = "boost::geometry::cs::spherical_equatorial<boost::geometry::degree>"
	CSSphericalPolar      = "boost::geometry::cs::spherical<boost::geometry::radian>"
	CSGeographic          = "boost::geometry::cs::geographic<boost::geometry::degree>"
)

// BGPointType declares boost::geometry::model::point<coord,dim,cs>.
func (p *Process) BGPointType(coord string, dim int, cs string) *Type {
	ct := p.MustType(coord)
	return p.DefineStruct(fmt.Sprintf("boost::geometry::model::point<%s,%d,%s>", ct.Name, dim, cs),
		F("m_values", p.ArrayOf(ct, dim)))
}

// BGPointXYType declares boost::geometry::model::d2::point_xy<coord,cs>.
func (p *Process) BGPointXYType(coord string, cs string) *Type {
	ct := p.MustType(coord)
	return p.DefineStruct(fmt.Sprintf("boost::geometry::model::d2::point_xy<%s,%s>", ct.Name, cs),
		F("m_values", p.ArrayOf(ct, 2)))
}

// SetPoint stores coordinates into a Boost.Geometry point object.
func SetPoint(o Object, coords ...float64) {
	o.Field("m_values").SetValues(coords...)
}

// BGBoxType declares boost::geometry::model::box<point>.
func (p *Process) BGBoxType(point *Type) *Type {
	return p.DefineStruct(fmt.Sprintf("boost::geometry::model::box<%s>", point.Name),
		F("m_min_corner", point), F("m_max_corner", point))
}

// BGSegmentType declares boost::geometry::model::segment<point>.
func (p *Process) BGSegmentType(point *Type) *Type {
	return p.DefineStruct(fmt.Sprintf("boost::geometry::model::segment<%s>", point.Name),
		F("first", point), F("second", point))
}

// BGNSphereType declares boost::geometry::model::nsphere<point,radius>.
func (p *Process) BGNSphereType(point *Type, radius string) *Type {
	rt := p.MustType(radius)
	return p.DefineStruct(fmt.Sprintf("boost::geometry::model::nsphere<%s,%s>", point.Name, rt.Name),
		F("m_center", point), F("m_radius", rt))
}

// BGLinestringType declares boost::geometry::model::linestring<point>.
func (p *Process) BGLinestringType(point *Type) *Type {
	return p.VectorLike(fmt.Sprintf("boost::geometry::model::linestring<%s,std::vector,std::allocator>", point.Name), point)
}

// BGRingType declares boost::geometry::model::ring<point>.
func (p *Process) BGRingType(point *Type) *Type {
	return p.VectorLike(fmt.Sprintf("boost::geometry::model::ring<%s,1,1,std::vector,std::allocator>", point.Name), point)
}

// BGPolygonType declares boost::geometry::model::polygon<point>.
func (p *Process) BGPolygonType(point *Type) *Type {
	ring := p.BGRingType(point)
	return p.DefineStruct(fmt.Sprintf("boost::geometry::model::polygon<%s,1,1,std::vector,std::vector,std::allocator,std::allocator>", point.Name),
		F("m_outer", ring), F("m_inners", p.VectorType(ring)))
}

// BGMultiPointType declares boost::geometry::model::multi_point<point>.
func (p *Process) BGMultiPointType(point *Type) *Type {
	return p.VectorLike(fmt.Sprintf("boost::geometry::model::multi_point<%s,std::vector,std::allocator>", point.Name), point)
}

// BGMultiLinestringType declares boost::geometry::model::multi_linestring<ls>.
func (p *Process) BGMultiLinestringType(linestring *Type) *Type {
	return p.VectorLike(fmt.Sprintf("boost::geometry::model::multi_linestring<%s,std::vector,std::allocator>", linestring.Name), linestring)
}

// BGMultiPolygonType declares boost::geometry::model::multi_polygon<poly>.
func (p *Process) BGMultiPolygonType(polygon *Type) *Type {
	return p.VectorLike(fmt.Sprintf("boost::geometry::model::multi_polygon<%s,std::vector,std::allocator>", polygon.Name), polygon)
}

// FillPoints fills a vector-like object with Boost.Geometry points.
func FillPoints(v Object, pts [][]float64) {
	FillVector(v, len(pts), func(o Object, i int) { SetPoint(o, pts[i]...) })
}

// FillPolygon fills a Boost.Geometry polygon object.
func FillPolygon(poly Object, outer [][]float64, inners ...[][]float64) {
	FillPoints(poly.Field("m_outer"), outer)
	FillVector(poly.Field("m_inners"), len(inners), func(o Object, i int) {
		FillPoints(o, inners[i])
	})
}

// BoostArrayType declares boost::array<elem,n>.
func (p *Process) BoostArrayType(elem *Type, n int) *Type {
	return p.DefineStruct(fmt.Sprintf("boost::array<%s,%d>", elem.Name, n), F("elems", p.ArrayOf(elem, n)))
}

// BoostVectorType declares boost::container::vector<elem>.
func (p *Process) BoostVectorType(elem *Type) *Type {
	holder := p.DefineStruct(fmt.Sprintf("boost::container::vector_alloc_holder<boost::container::new_allocator<%s>,unsigned __int64,boost::move_detail::integral_constant<unsigned int,1>>", elem.Name),
		F("m_start", p.PointerTo(elem)), F("m_size", p.u64()), F("m_capacity", p.u64()))
	return p.DefineStruct(fmt.Sprintf("boost::container::vector<%s,void,void>", elem.Name), F("m_holder", holder))
}

// FillBoostVector allocates n elements for a boost::container::vector object.
func FillBoostVector(v Object, n int, fill Fill) {
	h := v.Field("m_holder")
	buf := v.p.NewArray(h.Field("m_start").Type.Elem, n)
	for i := 0; i < n; i++ {
		fill(buf.Index(i), i)
	}
	h.Field("m_start").SetPointer(buf.Addr)
	h.Field("m_size").SetInt(int64(n))
	h.Field("m_capacity").SetInt(int64(n))
}

func (p *Process) alignedStorage(size, align int) *Type {
	return p.DefineOpaque(fmt.Sprintf("boost::container::dtl::aligned_storage<%d,%d>", size, align), max(size, 1), align)
}

// StaticVectorType declares boost::container::static_vector<elem,n>.
func (p *Process) StaticVectorType(elem *Type, n int) *Type {
	holder := p.DefineStruct(fmt.Sprintf("boost::container::vector_alloc_holder<boost::container::dtl::static_storage_allocator<%s,%d,0,1>,unsigned __int64,boost::move_detail::integral_constant<unsigned int,0>>", elem.Name, n),
		F("m_size", p.u64()), F("storage", p.alignedStorage(elem.Size*n, elem.Align)))
	return p.DefineStruct(fmt.Sprintf("boost::container::static_vector<%s,%d,void>", elem.Name, n), F("m_holder", holder))
}

// FillStaticVector stores n elements in a static_vector object.
func FillStaticVector(v Object, elem *Type, n int, fill Fill) {
	h := v.Field("m_holder")
	buf := v.p.At(v.p.ArrayOf(elem, n), h.Field("storage").Addr)
	for i := 0; i < n; i++ {
		fill(buf.Index(i), i)
	}
	h.Field("m_size").SetInt(int64(n))
}

// VarrayType declares boost::geometry::index::detail::varray<elem,n>.
func (p *Process) VarrayType(elem *Type, n int) *Type {
	return p.DefineStruct(fmt.Sprintf("boost::geometry::index::detail::varray<%s,%d>", elem.Name, n),
		F("m_size", p.u64()), F("m_storage", p.alignedStorage(elem.Size*n, elem.Align)))
}

// FillVarray stores n elements in a varray object.
func FillVarray(v Object, elem *Type, n int, fill Fill) {
	buf := v.p.At(v.p.ArrayOf(elem, n), v.Field("m_storage").Addr)
	for i := 0; i < n; i++ {
		fill(buf.Index(i), i)
	}
	v.Field("m_size").SetInt(int64(n))
}

// CircularBufferType declares boost::circular_buffer<elem>.
func (p *Process) CircularBufferType(elem *Type) *Type {
	ptr := p.PointerTo(elem)
	return p.DefineStruct(fmt.Sprintf("boost::circular_buffer<%s,std::allocator<%s>>", elem.Name, elem.Name),
		F("m_buff", ptr), F("m_end", ptr), F("m_first", ptr), F("m_last", ptr), F("m_size", p.u64()))
}

// FillCircularBuffer stores n elements in a buffer of the given capacity,
// the first one at physical slot first.
func FillCircularBuffer(c Object, capacity, first, n int, fill Fill) {
	if n > capacity || first >= capacity {
		panic("sim: circular buffer too small")
	}
	buf := c.p.NewArray(c.Field("m_buff").Type.Elem, capacity)
	for i := 0; i < n; i++ {
		fill(buf.Index((first+i)%capacity), i)
	}
	c.Field("m_buff").SetPointer(buf.Addr)
	c.Field("m_end").SetPointer(buf.End())
	c.Field("m_first").SetPointer(buf.Index(first).Addr)
	c.Field("m_last").SetPointer(buf.Index((first + n) % capacity).Addr)
	c.Field("m_size").SetInt(int64(n))
}

// BPPointType declares boost::polygon::point_data<coord>.
func (p *Process) BPPointType(coord string) *Type {
	ct := p.MustType(coord)
	return p.DefineStruct(fmt.Sprintf("boost::polygon::point_data<%s>", ct.Name), F("coords_", p.ArrayOf(ct, 2)))
}

// BPSegmentType declares boost::polygon::segment_data<coord>.
func (p *Process) BPSegmentType(coord string) *Type {
	pt := p.BPPointType(coord)
	return p.DefineStruct(fmt.Sprintf("boost::polygon::segment_data<%s>", p.MustType(coord).Name), F("points_", p.ArrayOf(pt, 2)))
}

// BPRectangleType declares boost::polygon::rectangle_data<coord>, made of
// one interval per axis.
func (p *Process) BPRectangleType(coord string) *Type {
	ct := p.MustType(coord)
	interval := p.DefineStruct(fmt.Sprintf("boost::polygon::interval_data<%s>", ct.Name), F("coords_", p.ArrayOf(ct, 2)))
	return p.DefineStruct(fmt.Sprintf("boost::polygon::rectangle_data<%s>", ct.Name), F("ranges_", p.ArrayOf(interval, 2)))
}

// SetRectangle stores a Boost.Polygon rectangle.
func SetRectangle(o Object, xl, yl, xh, yh float64) {
	o.Field("ranges_").Index(0).Field("coords_").SetValues(xl, xh)
	o.Field("ranges_").Index(1).Field("coords_").SetValues(yl, yh)
}

// BPPolygonType declares boost::polygon::polygon_data<coord>.
func (p *Process) BPPolygonType(coord string) *Type {
	pt := p.BPPointType(coord)
	return p.DefineStruct(fmt.Sprintf("boost::polygon::polygon_data<%s>", p.MustType(coord).Name), F("coords_", p.VectorType(pt)))
}

// BPPolygonWithHolesType declares boost::polygon::polygon_with_holes_data<coord>.
func (p *Process) BPPolygonWithHolesType(coord string) *Type {
	poly := p.BPPolygonType(coord)
	return p.DefineStruct(fmt.Sprintf("boost::polygon::polygon_with_holes_data<%s>", p.MustType(coord).Name),
		F("self_", poly), F("holes_", p.ListType(poly)))
}

// FillBPPolygon stores the points of a Boost.Polygon polygon_data object.
func FillBPPolygon(o Object, pts [][]float64) {
	FillVector(o.Field("coords_"), len(pts), func(e Object, i int) {
		e.Field("coords_").SetValues(pts[i]...)
	})
}

// ComplexType declares std::complex<coord>.
func (p *Process) ComplexType(coord string) *Type {
	ct := p.MustType(coord)
	return p.DefineStruct(fmt.Sprintf("std::complex<%s>", ct.Name), F("_Val", p.ArrayOf(ct, 2)))
}

// VariantType declares boost::variant<alternatives...>.
func (p *Process) VariantType(alternatives ...*Type) *Type {
	names := make([]string, len(alternatives))
	for i, a := range alternatives {
		names[i] = a.Name
	}
	t, fresh := p.ForwardStruct(variantName(names...))
	if fresh {
		p.completeVariant(t, alternatives...)
	}
	return t
}

func variantName(alternatives ...string) string {
	return fmt.Sprintf("boost::variant<%s>", strings.Join(alternatives, ","))
}

func (p *Process) completeVariant(t *Type, alternatives ...*Type) {
	size, align := 1, 1
	for _, a := range alternatives {
		size = max(size, a.Size)
		align = max(align, a.Align)
	}
	storage := p.DefineOpaque(fmt.Sprintf("boost::detail::variant::aligned_storage<%d,%d>", size, align), size, align)
	p.CompleteStruct(t, F("which_", p.types["int"]), F("storage_", storage))
}

// SetVariant selects alternative which and returns a view of its storage.
func SetVariant(v Object, which int, alternative *Type) Object {
	v.Field("which_").SetInt(int64(which))
	return v.p.At(alternative, v.Field("storage_").Addr)
}

// SetVariantBackup makes v hold alternative which through a heap backup, the
// state boost::variant is left in while an assignment may throw. It returns
// the heap object.
func SetVariantBackup(v Object, which int, alternative *Type) Object {
	v.Field("which_").SetInt(int64(^which))
	heap := v.p.New(alternative)
	v.p.At(v.p.PointerTo(alternative), v.Field("storage_").Addr).SetPointer(heap.Addr)
	return heap
}

// TurnInfoType declares boost::geometry::detail::overlay::turn_info<point>.
func (p *Process) TurnInfoType(point *Type) *Type {
	op := p.DefineStruct(fmt.Sprintf("boost::geometry::detail::overlay::turn_operation<%s,boost::geometry::segment_ratio<double>>", point.Name),
		F("operation", p.types["int"]), F("seg_id", p.ArrayOf(p.types["int"], 4)))
	ops := p.BoostArrayType(op, 2)
	return p.DefineStruct(fmt.Sprintf("boost::geometry::detail::overlay::turn_info<%s,boost::geometry::segment_ratio<double>,%s,%s>", point.Name, op.Name, ops.Name),
		F("point", point), F("method", p.types["int"]), F("touch_only", p.types["bool"]), F("operations", ops))
}

// SetTurn stores one turn.
func SetTurn(o Object, coords []float64, method, op0, op1 int) {
	SetPoint(o.Field("point"), coords...)
	o.Field("method").SetInt(int64(method))
	o.Path("operations", "elems").Index(0).Field("operation").SetInt(int64(op0))
	o.Path("operations", "elems").Index(1).Field("operation").SetInt(int64(op1))
}

// Rtree groups the types making up one boost::geometry::index::rtree.
type Rtree struct {
	Tree     *Type
	Node     *Type
	Leaf     *Type
	Internal *Type
	Value    *Type
	Box      *Type
	Pair     *Type
	// MaxElements bounds the number of entries per node.
	MaxElements int
}

// RtreeType declares an rtree of value indexed by box, a
// boost::geometry::model::box type.
func (p *Process) RtreeType(value, box *Type, maxElements int) Rtree {
	params := fmt.Sprintf("boost::geometry::index::linear<%d,%d>", maxElements, max(1, maxElements/2))
	args := fmt.Sprintf("%s,%s,%s", value.Name, params, box.Name)
	leaf := p.DefineStruct(fmt.Sprintf("boost::geometry::index::detail::rtree::variant_leaf<%s,boost::geometry::index::detail::rtree::node_variant_static_tag>", args),
		F("elements", p.VarrayType(value, maxElements+1)))

	internalName := fmt.Sprintf("boost::geometry::index::detail::rtree::variant_internal_node<%s,boost::geometry::index::detail::rtree::node_variant_static_tag>", args)
	node, fresh := p.ForwardStruct(variantName(leaf.Name, typeid.Normalize(internalName)))
	pair := p.DefineStruct(fmt.Sprintf("std::pair<%s,%s>", box.Name, p.PointerTo(node).Name),
		F("first", box), F("second", p.PointerTo(node)))
	internal := p.DefineStruct(internalName, F("elements", p.VarrayType(pair, maxElements+1)))
	if fresh {
		p.completeVariant(node, leaf, internal)
	}

	treeName := fmt.Sprintf("boost::geometry::index::rtree<%s,%s,boost::geometry::index::indexable<%s>,boost::geometry::index::equal_to<%s>,std::allocator<%s>>",
		value.Name, params, value.Name, value.Name, value.Name)
	members := p.DefineStruct(treeName+"::members_holder",
		F("values_count", p.u64()), F("leafs_level", p.u64()), F("root", p.PointerTo(node)))
	tree := p.DefineStruct(treeName, F("m_members", members))
	return Rtree{Tree: tree, Node: node, Leaf: leaf, Internal: internal, Value: value, Box: box, Pair: pair, MaxElements: maxElements}
}

// Bounds reports the envelope of value i.
type Bounds func(i int) (lo, hi []float64)

// FillRtree bulk-loads n values into an rtree object, packing consecutive
// values into leaves of at most MaxElements entries.
func (r Rtree) FillRtree(tree Object, n int, fill Fill, bounds Bounds) {
	m := tree.Field("m_members")
	m.Field("values_count").SetInt(int64(n))
	if n == 0 {
		m.Field("root").SetPointer(0)
		m.Field("leafs_level").SetInt(0)
		return
	}

	type entry struct {
		addr   uint64
		lo, hi []float64
	}
	var level []entry
	for start := 0; start < n; start += r.MaxElements {
		cnt := min(r.MaxElements, n-start)
		node := tree.p.New(r.Node)
		leaf := SetVariant(node, 0, r.Leaf)
		e := entry{addr: node.Addr}
		FillVarray(leaf.Field("elements"), r.Value, cnt, func(o Object, i int) {
			fill(o, start+i)
			lo, hi := bounds(start + i)
			e.lo, e.hi = union(e.lo, e.hi, lo, hi)
		})
		level = append(level, e)
	}

	depth := 0
	for len(level) > 1 {
		var next []entry
		for start := 0; start < len(level); start += r.MaxElements {
			group := level[start:min(start+r.MaxElements, len(level))]
			node := tree.p.New(r.Node)
			internal := SetVariant(node, 1, r.Internal)
			e := entry{addr: node.Addr}
			FillVarray(internal.Field("elements"), r.Pair, len(group), func(o Object, i int) {
				SetPoint(o.Path("first", "m_min_corner"), group[i].lo...)
				SetPoint(o.Path("first", "m_max_corner"), group[i].hi...)
				o.Field("second").SetPointer(group[i].addr)
				e.lo, e.hi = union(e.lo, e.hi, group[i].lo, group[i].hi)
			})
			next = append(next, e)
		}
		level = next
		depth++
	}
	m.Field("root").SetPointer(level[0].addr)
	m.Field("leafs_level").SetInt(int64(depth))
}

func union(lo, hi, olo, ohi []float64) ([]float64, []float64) {
	if lo == nil {
		return append([]float64(nil), olo...), append([]float64(nil), ohi...)
	}
	for i := range lo {
		lo[i] = min(lo[i], olo[i])
		hi[i] = max(hi[i], ohi[i])
	}
	return lo, hi
}
