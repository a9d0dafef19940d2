package shapes

import (
	"fmt"
	"strconv"

	"github.com/coral-mesh/geoinspect/pkg/converter"
	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
	"github.com/coral-mesh/geoinspect/pkg/loader/container"
	"github.com/coral-mesh/geoinspect/pkg/typeid"
)

const (
	rtreeMembers = ".m_members"
	rtreeRoot    = rtreeMembers + ".root"
	rtreeCount   = rtreeMembers + ".values_count"
)

// Rtree loads the indexables stored in a Boost.Geometry rtree. Nodes are
// variants of a leaf holding values and an internal node holding
// (box, child pointer) pairs.
type Rtree struct {
	nodeType     string
	leafType     string
	internalType string
	valueType    string
	// indexable is the member of a value holding its geometry.
	indexable string
	geom      loader.ValueLoader
	leaves    *container.Storage
	internals *container.Storage
	layout    *rtreeLayout
}

// rtreeLayout holds what the memory walk needs. Node offsets are relative to
// the node, element offsets to the start of the elements varray.
type rtreeLayout struct {
	root, count    int64
	countSize      int
	which, storage int64
	whichSize      int
	leaf, internal varrayLayout
	pairSize       int
	child          int64
	value          converter.Converter[float64]
}

type varrayLayout struct {
	elements int64
	size     int64
	sizeSize int
	buffer   int64
	capacity int
}

var _ loader.GeometryLoader = (*Rtree)(nil)

func createRtree(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::geometry::index::rtree") {
		return nil, nil
	}
	valueType, ok := t.ID.Arg(0)
	if !ok {
		return nil, loader.Failf("rtree without value type: %s", t.Type)
	}
	rootType, err := env.TypeOf(t.Name + rtreeRoot)
	if err != nil {
		return nil, err
	}
	nodeType, ok := typeid.PointerElem(typeid.Normalize(rootType))
	if !ok {
		return nil, loader.Failf("rtree root is not a pointer: %s", rootType)
	}
	node := typeid.Parse(nodeType)
	if !node.Is("boost::variant") || len(node.Args) != 2 {
		return nil, loader.Failf("unsupported rtree node %s", nodeType)
	}

	r := &Rtree{
		nodeType:     nodeType,
		leafType:     node.Args[0],
		internalType: node.Args[1],
		valueType:    valueType,
	}
	if typeid.Name(valueType) == "std::pair" {
		r.indexable = ".first"
	}

	root := "(*" + t.Name + rtreeRoot + ")"
	leaf := alternative(r.leafType, root) + ".elements"
	internal := alternative(r.internalType, root) + ".elements"
	value := arrayElement(valueType, leaf+".m_storage", 0)

	l, err := findGeometry(env, loader.GeometryKinds, value, r.indexable)
	if err != nil {
		return nil, err
	}
	r.geom = l

	pairType, err := varrayElement(env, internal)
	if err != nil {
		return nil, err
	}
	r.leaves = container.NewStorage(env, leaf, valueType, ".m_storage", ".m_size")
	r.internals = container.NewStorage(env, internal, pairType, ".m_storage", ".m_size")
	r.layout = r.resolveLayout(env, t.Name, root, leaf, internal, pairType)
	return r, nil
}

// varrayElement returns the element type of a varray expression.
func varrayElement(env *loader.Env, expr string) (string, error) {
	typ, err := env.TypeOf(expr)
	if err != nil {
		return "", err
	}
	elem, ok := typeid.Parse(typ).Arg(0)
	if !ok {
		return "", loader.Failf("%s has no element type", typ)
	}
	return elem, nil
}

func arrayElement(elem, storage string, i int) string {
	return fmt.Sprintf("((%s*)(&%s))[%d]", elem, storage, i)
}

func nodeAt(nodeType string, addr uint64) string {
	return fmt.Sprintf("(*((%s*)0x%x))", nodeType, addr)
}

// resolveLayout computes every offset of the memory walk, or returns nil
// when one is unknown.
func (r *Rtree) resolveLayout(env *loader.Env, name, root, leaf, internal, pairType string) *rtreeLayout {
	lay := &rtreeLayout{
		root:     env.Offset(name, name+rtreeRoot),
		count:    env.Offset(name, name+rtreeCount),
		which:    env.Offset(root, root+".which_"),
		storage:  env.Offset(root, root+".storage_"),
		pairSize: env.SizeOf(pairType),
	}
	lay.countSize = memberSize(env, name+rtreeCount)
	lay.whichSize = memberSize(env, root+".which_")

	var ok bool
	if lay.leaf, ok = resolveVarray(env, root+".storage_", leaf); !ok {
		return nil
	}
	if lay.internal, ok = resolveVarray(env, root+".storage_", internal); !ok {
		return nil
	}
	pair := arrayElement(pairType, internal+".m_storage", 0)
	lay.child = env.Offset(pair, pair+".second")

	value := arrayElement(r.valueType, leaf+".m_storage", 0)
	lay.value = structConv(env, value, r.valueType, part{r.indexable, memoryConv(r.geom)})

	if lay.root < 0 || lay.count < 0 || lay.countSize <= 0 || lay.which < 0 || lay.whichSize <= 0 ||
		lay.storage < 0 || lay.pairSize <= 0 || lay.child < 0 || lay.value == nil {
		return nil
	}
	return lay
}

func memberSize(env *loader.Env, expr string) int {
	typ, err := env.TypeOf(expr)
	if err != nil {
		return -1
	}
	return env.SizeOf(typ)
}

func resolveVarray(env *loader.Env, storage, elements string) (varrayLayout, bool) {
	v := varrayLayout{
		elements: env.Offset(storage, elements),
		size:     env.Offset(elements, elements+".m_size"),
		sizeSize: memberSize(env, elements+".m_size"),
		buffer:   env.Offset(elements, elements+".m_storage"),
	}
	if typ, err := env.TypeOf(elements); err == nil {
		if c, ok := typeid.Parse(typ).Arg(1); ok {
			v.capacity, _ = strconv.Atoi(c)
		}
	}
	ok := v.elements >= 0 && v.size >= 0 && v.sizeSize > 0 && v.buffer >= 0 && v.capacity > 0
	return v, ok
}

func (r *Rtree) Kind() geometry.Kind { return geometry.KindGeometriesContainer }

func (r *Rtree) Traits(env *loader.Env, name string) (geometry.Traits, error) {
	gl, ok := r.geom.(loader.GeometryLoader)
	if !ok {
		return geometry.Traits{}, nil
	}
	root := "(*" + name + rtreeRoot + ")"
	value := arrayElement(r.valueType, alternative(r.leafType, root)+".elements.m_storage", 0)
	return gl.Traits(env, value+r.indexable)
}

func (r *Rtree) maxDepth(env *loader.Env) int {
	if env.Options.MaxDepth > 0 {
		return env.Options.MaxDepth
	}
	return loader.DefaultOptions().MaxDepth
}

func (r *Rtree) Load(env *loader.Env, name string) (geometry.Drawable, error) {
	var memory func() ([]geometry.Drawable, error)
	if ml, ok := r.geom.(loader.MemoryLoader); ok && r.layout != nil {
		memory = func() ([]geometry.Drawable, error) {
			return r.loadMemory(env, name, ml)
		}
	}
	items, err := loader.WithFallback(env, memory, func() ([]geometry.Drawable, error) {
		return r.loadParsed(env, name)
	})
	if err != nil {
		return nil, err
	}
	return geometry.Geometries(items), nil
}

func checkCount(items []geometry.Drawable, count uint64) error {
	if uint64(len(items)) != count {
		return loader.Failf("rtree holds %d values, found %d", count, len(items))
	}
	return nil
}

func (r *Rtree) loadMemory(env *loader.Env, name string, ml loader.MemoryLoader) ([]geometry.Drawable, error) {
	base, err := env.Address(name)
	if err != nil {
		return nil, err
	}
	count, err := env.ReadUint(base+uint64(r.layout.count), r.layout.countSize)
	if err != nil {
		return nil, err
	}
	root, err := env.ReadPointer(base + uint64(r.layout.root))
	if err != nil {
		return nil, err
	}
	var out []geometry.Drawable
	if root != 0 {
		w := memoryWalk{Rtree: r, env: env, geom: ml, maxDepth: r.maxDepth(env), out: &out}
		if err := w.node(root, 0); err != nil {
			return nil, err
		}
	}
	return out, checkCount(out, count)
}

type memoryWalk struct {
	*Rtree
	env      *loader.Env
	geom     loader.MemoryLoader
	maxDepth int
	out      *[]geometry.Drawable
}

// elements reads the size and the buffer address of a varray in a node.
func (w memoryWalk) elements(node uint64, v varrayLayout) (uint64, int, error) {
	elems := node + uint64(w.layout.storage) + uint64(v.elements)
	n, err := w.env.ReadUint(elems+uint64(v.size), v.sizeSize)
	if err != nil {
		return 0, 0, err
	}
	if n > uint64(v.capacity) {
		return 0, 0, loader.Failf("rtree node at 0x%x holds %d elements, capacity %d", node, n, v.capacity)
	}
	return elems + uint64(v.buffer), int(n), nil
}

func (w memoryWalk) node(addr uint64, depth int) error {
	if err := w.env.Check(); err != nil {
		return err
	}
	if depth > w.maxDepth {
		return loader.Failf("rtree deeper than %d levels", w.maxDepth)
	}
	raw, err := w.env.ReadUint(addr+uint64(w.layout.which), w.layout.whichSize)
	if err != nil {
		return err
	}
	switch discriminant(raw, w.layout.whichSize) {
	case 0:
		buf, n, err := w.elements(addr, w.layout.leaf)
		if err != nil || n == 0 {
			return err
		}
		arr, err := converter.NewArray(w.layout.value, n)
		if err != nil {
			return loader.Unavailablef("%v", err)
		}
		data, err := w.env.Read(buf, arr.ByteSize())
		if err != nil {
			return err
		}
		values, err := converter.Decode[float64](arr, data, 0)
		if err != nil {
			return loader.Unavailablef("%v", err)
		}
		k := w.layout.value.ValueCount()
		for i := 0; i < n; i++ {
			*w.out = append(*w.out, w.geom.FromValues(values[i*k:(i+1)*k]))
		}
		return nil
	case 1:
		buf, n, err := w.elements(addr, w.layout.internal)
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			child, err := w.env.ReadPointer(buf + uint64(i*w.layout.pairSize) + uint64(w.layout.child))
			if err != nil {
				return err
			}
			if child == 0 {
				return loader.Failf("null child in rtree node at 0x%x", addr)
			}
			if err := w.node(child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return loader.Failf("invalid rtree node discriminant at 0x%x", addr)
}

// discriminant decodes a variant discriminant of the given size, mapping
// backup states to the alternative they hold.
func discriminant(raw uint64, size int) int64 {
	var v int64
	switch size {
	case 1:
		v = int64(int8(raw))
	case 2:
		v = int64(int16(raw))
	case 4:
		v = int64(int32(raw))
	default:
		v = int64(raw)
	}
	if v < 0 {
		v = ^v
	}
	return v
}

func (r *Rtree) loadParsed(env *loader.Env, name string) ([]geometry.Drawable, error) {
	count, err := env.EvalInt(name + rtreeCount)
	if err != nil {
		return nil, err
	}
	root, err := env.EvalPointer(name + rtreeRoot)
	if err != nil {
		return nil, err
	}
	var out []geometry.Drawable
	if root != 0 {
		if err := r.parsedNode(env, root, 0, r.maxDepth(env), &out); err != nil {
			return nil, err
		}
	}
	if count < 0 {
		return nil, loader.Failf("invalid rtree size %d", count)
	}
	return out, checkCount(out, uint64(count))
}

func (r *Rtree) parsedNode(env *loader.Env, addr uint64, depth, maxDepth int, out *[]geometry.Drawable) error {
	if err := env.Check(); err != nil {
		return err
	}
	if depth > maxDepth {
		return loader.Failf("rtree deeper than %d levels", maxDepth)
	}
	node := nodeAt(r.nodeType, addr)
	which, err := env.EvalInt(node + ".which_")
	if err != nil {
		return err
	}
	if which < 0 {
		which = ^which
	}
	switch which {
	case 0:
		return r.leaves.ForEachElement(env, alternative(r.leafType, node)+".elements", func(elem string) error {
			d, err := r.geom.Load(env, elem+r.indexable)
			if err != nil {
				return err
			}
			*out = append(*out, d)
			return nil
		})
	case 1:
		return r.internals.ForEachElement(env, alternative(r.internalType, node)+".elements", func(elem string) error {
			child, err := env.EvalPointer(elem + ".second")
			if err != nil {
				return err
			}
			if child == 0 {
				return loader.Failf("null child in rtree node at 0x%x", addr)
			}
			return r.parsedNode(env, child, depth+1, maxDepth, out)
		})
	}
	return loader.Failf("invalid rtree node discriminant %d at 0x%x", which, addr)
}
