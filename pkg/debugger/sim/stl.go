package sim

import "fmt"

// Layouts below follow the MSVC standard library member names.

// Fill initializes element i of a container being built.
type Fill func(elem Object, i int)

func (p *Process) u64() *Type { return p.types["unsigned __int64"] }

func (p *Process) vectorVal(elem *Type) *Type {
	ptr := p.PointerTo(elem)
	val := p.DefineStruct(fmt.Sprintf("std::_Vector_val<std::_Simple_types<%s>>", elem.Name),
		F("_Myfirst", ptr), F("_Mylast", ptr), F("_Myend", ptr))
	return p.DefineStruct(fmt.Sprintf("std::_Compressed_pair<std::allocator<%s>,%s,1>", elem.Name, val.Name),
		F("_Myval2", val))
}

// VectorType declares std::vector<elem>.
func (p *Process) VectorType(elem *Type) *Type {
	return p.VectorLike(fmt.Sprintf("std::vector<%s,std::allocator<%s>>", elem.Name, elem.Name), elem)
}

// VectorLike declares a type named name with the layout of std::vector<elem>,
// as for classes deriving from std::vector.
func (p *Process) VectorLike(name string, elem *Type) *Type {
	return p.DefineStruct(name, F("_Mypair", p.vectorVal(elem)))
}

// FillVector allocates n elements for a vector object.
func FillVector(v Object, n int, fill Fill) {
	val := v.Path("_Mypair", "_Myval2")
	elem := val.Field("_Myfirst").Type.Elem
	buf := v.p.NewArray(elem, n)
	for i := 0; i < n; i++ {
		fill(buf.Index(i), i)
	}
	val.Field("_Myfirst").SetPointer(buf.Addr)
	val.Field("_Mylast").SetPointer(buf.End())
	val.Field("_Myend").SetPointer(buf.End())
}

// DequeType declares std::deque<elem>.
func (p *Process) DequeType(elem *Type) *Type {
	ptr := p.PointerTo(elem)
	val := p.DefineStruct(fmt.Sprintf("std::_Deque_val<std::_Deque_simple_types<%s>>", elem.Name),
		F("_Myproxy", p.PointerTo(p.types["void"])),
		F("_Map", p.PointerTo(ptr)),
		F("_Mapsize", p.u64()),
		F("_Myoff", p.u64()),
		F("_Mysize", p.u64()))
	pair := p.DefineStruct(fmt.Sprintf("std::_Compressed_pair<std::allocator<%s>,%s,1>", elem.Name, val.Name),
		F("_Myval2", val))
	return p.DefineStruct(fmt.Sprintf("std::deque<%s,std::allocator<%s>>", elem.Name, elem.Name),
		F("_Mypair", pair))
}

// FillDeque lays out n elements over mapSize blocks of blockSize elements,
// starting at logical offset off within the block map.
func FillDeque(d Object, n, blockSize, mapSize, off int, fill Fill) {
	if n > blockSize*mapSize {
		panic("sim: deque map too small")
	}
	val := d.Path("_Mypair", "_Myval2")
	ptr := val.Field("_Map").Type.Elem
	elem := ptr.Elem
	blockMap := d.p.NewArray(ptr, mapSize)
	blocks := make([]Object, mapSize)
	for b := 0; b < mapSize; b++ {
		blocks[b] = d.p.NewArray(elem, blockSize)
		blockMap.Index(b).SetPointer(blocks[b].Addr)
	}
	for i := 0; i < n; i++ {
		pos := off + i
		block := (pos / blockSize) % mapSize
		fill(blocks[block].Index(pos%blockSize), i)
	}
	val.Field("_Map").SetPointer(blockMap.Addr)
	val.Field("_Mapsize").SetInt(int64(mapSize))
	val.Field("_Myoff").SetInt(int64(off))
	val.Field("_Mysize").SetInt(int64(n))
}

// ListType declares std::list<elem>.
func (p *Process) ListType(elem *Type) *Type {
	node, fresh := p.ForwardStruct(fmt.Sprintf("std::_List_node<%s,void*>", elem.Name))
	if fresh {
		p.CompleteStruct(node, F("_Next", p.PointerTo(node)), F("_Prev", p.PointerTo(node)), F("_Myval", elem))
	}
	val := p.DefineStruct(fmt.Sprintf("std::_List_val<std::_List_simple_types<%s>>", elem.Name),
		F("_Myhead", p.PointerTo(node)), F("_Mysize", p.u64()))
	pair := p.DefineStruct(fmt.Sprintf("std::_Compressed_pair<std::allocator<%s>,%s,1>", node.Name, val.Name),
		F("_Myval2", val))
	return p.DefineStruct(fmt.Sprintf("std::list<%s,std::allocator<%s>>", elem.Name, elem.Name),
		F("_Mypair", pair))
}

// FillList links n nodes into a circular list with a sentinel head.
func FillList(l Object, n int, fill Fill) {
	val := l.Path("_Mypair", "_Myval2")
	node := val.Field("_Myhead").Type.Elem
	head := l.p.New(node)
	prev := head
	for i := 0; i < n; i++ {
		cur := l.p.New(node)
		fill(cur.Field("_Myval"), i)
		prev.Field("_Next").SetPointer(cur.Addr)
		cur.Field("_Prev").SetPointer(prev.Addr)
		prev = cur
	}
	prev.Field("_Next").SetPointer(head.Addr)
	head.Field("_Prev").SetPointer(prev.Addr)
	val.Field("_Myhead").SetPointer(head.Addr)
	val.Field("_Mysize").SetInt(int64(n))
}

// SetType declares std::set<elem> or, with name "std::multiset", the multiset.
func (p *Process) SetType(name string, elem *Type) *Type {
	node, fresh := p.ForwardStruct(fmt.Sprintf("std::_Tree_node<%s,void*>", elem.Name))
	if fresh {
		np := p.PointerTo(node)
		p.CompleteStruct(node,
			F("_Left", np), F("_Parent", np), F("_Right", np),
			F("_Color", p.types["char"]), F("_Isnil", p.types["char"]),
			F("_Myval", elem))
	}
	val := p.DefineStruct(fmt.Sprintf("std::_Tree_val<std::_Tree_simple_types<%s>>", elem.Name),
		F("_Myhead", p.PointerTo(node)), F("_Mysize", p.u64()))
	inner := p.DefineStruct(fmt.Sprintf("std::_Compressed_pair<std::allocator<%s>,%s,1>", node.Name, val.Name),
		F("_Myval2", val))
	outer := p.DefineStruct(fmt.Sprintf("std::_Compressed_pair<std::less<%s>,%s,1>", elem.Name, inner.Name),
		F("_Myval2", inner))
	return p.DefineStruct(fmt.Sprintf("%s<%s,std::less<%s>,std::allocator<%s>>", name, elem.Name, elem.Name, elem.Name),
		F("_Mypair", outer))
}

// FillSet builds a balanced binary search tree whose in-order traversal
// visits element 0 to n-1.
func FillSet(s Object, n int, fill Fill) {
	val := s.Path("_Mypair", "_Myval2", "_Myval2")
	node := val.Field("_Myhead").Type.Elem
	head := s.p.New(node)
	head.Field("_Isnil").SetInt(1)
	head.Field("_Color").SetInt(1)

	var build func(lo, hi int, parent uint64) uint64
	build = func(lo, hi int, parent uint64) uint64 {
		if lo >= hi {
			return head.Addr
		}
		mid := (lo + hi) / 2
		cur := s.p.New(node)
		fill(cur.Field("_Myval"), mid)
		cur.Field("_Parent").SetPointer(parent)
		cur.Field("_Left").SetPointer(build(lo, mid, cur.Addr))
		cur.Field("_Right").SetPointer(build(mid+1, hi, cur.Addr))
		return cur.Addr
	}

	root := build(0, n, head.Addr)
	head.Field("_Parent").SetPointer(root)
	leftmost, rightmost := head.Addr, head.Addr
	if n > 0 {
		leftmost = extreme(s.p, node, root, "_Left")
		rightmost = extreme(s.p, node, root, "_Right")
	}
	head.Field("_Left").SetPointer(leftmost)
	head.Field("_Right").SetPointer(rightmost)
	val.Field("_Myhead").SetPointer(head.Addr)
	val.Field("_Mysize").SetInt(int64(n))
}

func extreme(p *Process, node *Type, addr uint64, side string) uint64 {
	for {
		o := p.At(node, addr)
		next := o.Field(side)
		_, u, _ := p.readScalar(next.Addr, next.Type.Scalar)
		child := p.At(node, u)
		if child.Field("_Isnil").Float() != 0 {
			return addr
		}
		addr = u
	}
}

// StdArrayType declares std::array<elem,n>.
func (p *Process) StdArrayType(elem *Type, n int) *Type {
	return p.DefineStruct(fmt.Sprintf("std::array<%s,%d>", elem.Name, n), F("_Elems", p.ArrayOf(elem, n)))
}
