package sim

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/coral-mesh/geoinspect/pkg/converter"
	"github.com/coral-mesh/geoinspect/pkg/debugger"
	"github.com/coral-mesh/geoinspect/pkg/typeid"
)

// BaseAddress is the address of the first byte of the arena.
const BaseAddress uint64 = 0x10000

// PointerSize is the size of every pointer in the simulated debuggee.
const PointerSize = 8

// TypeKind classifies a simulated type.
type TypeKind int

const (
	TypeScalar TypeKind = iota
	TypePointer
	TypeArray
	TypeStruct
	TypeVoid
)

// Field is a member of a struct type.
type Field struct {
	Name   string
	Type   *Type
	Offset int
}

// Type is a simulated C++ type.
type Type struct {
	Name   string
	Kind   TypeKind
	Size   int
	Align  int
	Scalar converter.Scalar
	Elem   *Type
	Len    int
	Fields []Field
}

// Field returns the named member.
func (t *Type) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Stats counts debugger primitive calls.
type Stats struct {
	Evaluations int
	Reads       int
	BytesRead   int
}

// Process is a simulated debuggee.
type Process struct {
	types map[string]*Type
	mem   []byte
	vars  map[string]Var
	stats Stats
}

// Var is a named object.
type Var struct {
	Type *Type
	Addr uint64
}

var (
	_ debugger.Debugger     = (*Process)(nil)
	_ debugger.MemoryReader = (*Process)(nil)
)

// New returns an empty process with the builtin arithmetic types defined.
func New() *Process {
	p := &Process{
		types: make(map[string]*Type),
		vars:  make(map[string]Var),
	}
	p.types["void"] = &Type{Name: "void", Kind: TypeVoid, Size: 0, Align: 1}
	for _, b := range builtins {
		p.types[b.name] = &Type{Name: b.name, Kind: TypeScalar, Size: b.scalar.Size, Align: b.scalar.Size, Scalar: b.scalar}
	}
	return p
}

var builtins = []struct {
	name   string
	scalar converter.Scalar
}{
	{"double", converter.Float64},
	{"float", converter.Float32},
	{"char", converter.Int8},
	{"signed char", converter.Int8},
	{"unsigned char", converter.Uint8},
	{"bool", converter.Uint8},
	{"short", converter.Int16},
	{"unsigned short", converter.Uint16},
	{"int", converter.Int32},
	{"unsigned int", converter.Uint32},
	{"long", converter.Int32},
	{"unsigned long", converter.Uint32},
	{"long long", converter.Int64},
	{"unsigned long long", converter.Uint64},
	{"__int64", converter.Int64},
	{"unsigned __int64", converter.Uint64},
}

// Stats returns the primitive call counters.
func (p *Process) Stats() Stats { return p.stats }

// ResetStats zeroes the primitive call counters.
func (p *Process) ResetStats() { p.stats = Stats{} }

// Type looks up a type by name, deriving pointer and array types on demand.
func (p *Process) Type(name string) (*Type, bool) {
	n := typeid.Normalize(name)
	if t, ok := p.types[n]; ok {
		return t, true
	}
	if elem, ok := typeid.PointerElem(n); ok {
		et, ok := p.Type(elem)
		if !ok {
			return nil, false
		}
		return p.PointerTo(et), true
	}
	if elem, count, ok := typeid.ArrayInfo(n); ok {
		et, ok := p.Type(elem)
		if !ok {
			return nil, false
		}
		return p.ArrayOf(et, count), true
	}
	return nil, false
}

// MustType is Type for names known to exist.
func (p *Process) MustType(name string) *Type {
	t, ok := p.Type(name)
	if !ok {
		panic(fmt.Sprintf("sim: unknown type %q", name))
	}
	return t
}

// PointerTo returns the pointer type to t.
func (p *Process) PointerTo(t *Type) *Type {
	name := t.Name + "*"
	if pt, ok := p.types[name]; ok {
		return pt
	}
	pt := &Type{Name: name, Kind: TypePointer, Size: PointerSize, Align: PointerSize, Scalar: converter.Pointer, Elem: t}
	p.types[name] = pt
	return pt
}

// ArrayOf returns the array type of n elements of t.
func (p *Process) ArrayOf(t *Type, n int) *Type {
	name := fmt.Sprintf("%s[%d]", t.Name, n)
	if t.Kind == TypeArray {
		// An array of 2 "int[3]" is spelled "int[2][3]".
		i := firstExtent(t.Name)
		name = fmt.Sprintf("%s[%d]%s", t.Name[:i], n, t.Name[i:])
	}
	if at, ok := p.types[name]; ok {
		return at
	}
	at := &Type{Name: name, Kind: TypeArray, Size: t.Size * n, Align: t.Align, Elem: t, Len: n}
	p.types[name] = at
	return at
}

func firstExtent(name string) int {
	depth := 0
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '<':
			depth++
		case '>':
			depth--
		case '[':
			if depth == 0 {
				return i
			}
		}
	}
	return len(name)
}

// FieldSpec declares a struct member for DefineStruct.
type FieldSpec struct {
	Name string
	Type *Type
}

// F is shorthand for a FieldSpec.
func F(name string, t *Type) FieldSpec {
	return FieldSpec{Name: name, Type: t}
}

// DefineStruct declares a struct with natural alignment. Declaring a name
// twice returns the first definition.
func (p *Process) DefineStruct(name string, fields ...FieldSpec) *Type {
	t, fresh := p.ForwardStruct(name)
	if fresh {
		p.CompleteStruct(t, fields...)
	}
	return t
}

// ForwardStruct registers a struct name before its layout is known so that
// self-referential members can point to it. fresh is false when the name was
// already declared.
func (p *Process) ForwardStruct(name string) (t *Type, fresh bool) {
	n := typeid.Normalize(name)
	if t, ok := p.types[n]; ok {
		return t, false
	}
	t = &Type{Name: n, Kind: TypeStruct, Align: 1}
	p.types[n] = t
	return t, true
}

// CompleteStruct lays out the members of a forward-declared struct.
func (p *Process) CompleteStruct(t *Type, fields ...FieldSpec) {
	t.Fields = nil
	t.Align = 1
	offset := 0
	for _, f := range fields {
		offset = alignUp(offset, f.Type.Align)
		t.Fields = append(t.Fields, Field{Name: f.Name, Type: f.Type, Offset: offset})
		offset += f.Type.Size
		if f.Type.Align > t.Align {
			t.Align = f.Type.Align
		}
	}
	t.Size = alignUp(offset, t.Align)
	if t.Size == 0 {
		t.Size = 1
	}
}

// DefineOpaque declares a struct of a given size and alignment without
// visible members.
func (p *Process) DefineOpaque(name string, size, align int) *Type {
	n := typeid.Normalize(name)
	if t, ok := p.types[n]; ok {
		return t
	}
	t := &Type{Name: n, Kind: TypeStruct, Size: size, Align: align}
	p.types[n] = t
	return t
}

func alignUp(n, a int) int {
	if a <= 1 {
		return n
	}
	return (n + a - 1) / a * a
}

// Alloc reserves zeroed memory for one object of type t.
func (p *Process) Alloc(t *Type) uint64 {
	return p.AllocBytes(t.Size, t.Align)
}

// AllocBytes reserves size zeroed bytes with the given alignment.
func (p *Process) AllocBytes(size, align int) uint64 {
	if align < 1 {
		align = 1
	}
	// Keep a gap between allocations so that off-by-one reads fail loudly
	// in one direction at least.
	start := alignUp(len(p.mem)+8, max(align, 8))
	grow := start + size - len(p.mem)
	p.mem = append(p.mem, make([]byte, grow)...)
	return BaseAddress + uint64(start)
}

// Declare allocates an object of type t and binds it to name.
func (p *Process) Declare(name string, t *Type) Object {
	addr := p.Alloc(t)
	p.vars[name] = Var{Type: t, Addr: addr}
	return Object{p: p, Type: t, Addr: addr}
}

// Bind names an existing object.
func (p *Process) Bind(name string, o Object) {
	p.vars[name] = Var{Type: o.Type, Addr: o.Addr}
}

// Vars returns the declared variable names in sorted order.
func (p *Process) Vars() []string {
	names := make([]string, 0, len(p.vars))
	for n := range p.vars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ReadMemory implements debugger.MemoryReader.
func (p *Process) ReadMemory(addr uint64, buf []byte) error {
	p.stats.Reads++
	p.stats.BytesRead += len(buf)
	off, ok := p.offset(addr, len(buf))
	if !ok {
		return fmt.Errorf("read of %d bytes at 0x%x out of bounds", len(buf), addr)
	}
	copy(buf, p.mem[off:off+len(buf)])
	return nil
}

func (p *Process) offset(addr uint64, n int) (int, bool) {
	if addr < BaseAddress {
		return 0, false
	}
	off := addr - BaseAddress
	if off+uint64(n) > uint64(len(p.mem)) {
		return 0, false
	}
	return int(off), true
}

func (p *Process) write(addr uint64, b []byte) {
	off, ok := p.offset(addr, len(b))
	if !ok {
		panic(fmt.Sprintf("sim: write of %d bytes at 0x%x out of bounds", len(b), addr))
	}
	copy(p.mem[off:], b)
}

func (p *Process) readScalar(addr uint64, s converter.Scalar) (float64, uint64, bool) {
	off, ok := p.offset(addr, s.Size)
	if !ok {
		return 0, 0, false
	}
	b := p.mem[off : off+s.Size]
	switch s.Kind {
	case converter.KindFloat:
		if s.Size == 4 {
			f := float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
			return f, 0, true
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), 0, true
	case converter.KindUnsigned:
		u := readUint(b)
		return float64(u), u, true
	default:
		u := readUint(b)
		shift := uint(64 - 8*s.Size)
		i := int64(u<<shift) >> shift
		return float64(i), uint64(i), true
	}
}

func readUint(b []byte) uint64 {
	var u uint64
	for i := len(b) - 1; i >= 0; i-- {
		u = u<<8 | uint64(b[i])
	}
	return u
}

func (p *Process) writeScalar(addr uint64, s converter.Scalar, f float64, u uint64, isFloat bool) {
	b := make([]byte, s.Size)
	switch s.Kind {
	case converter.KindFloat:
		if !isFloat {
			f = float64(int64(u))
		}
		if s.Size == 4 {
			binary.LittleEndian.PutUint32(b, math.Float32bits(float32(f)))
		} else {
			binary.LittleEndian.PutUint64(b, math.Float64bits(f))
		}
	default:
		if isFloat {
			u = uint64(int64(f))
		}
		for i := 0; i < s.Size; i++ {
			b[i] = byte(u >> (8 * i))
		}
	}
	p.write(addr, b)
}

// SizeOf implements debugger.Debugger.
func (p *Process) SizeOf(typ string) (int, bool) {
	t, ok := p.Type(typ)
	if !ok || t.Kind == TypeVoid {
		return 0, false
	}
	return t.Size, true
}

// AddressOffset implements debugger.Debugger.
func (p *Process) AddressOffset(base, member string) (int64, bool) {
	b, err := p.eval(base)
	if err != nil || !b.lvalue {
		return 0, false
	}
	m, err := p.eval(member)
	if err != nil || !m.lvalue {
		return 0, false
	}
	return int64(m.addr) - int64(b.addr), true
}

// ValueAddress implements debugger.Debugger.
func (p *Process) ValueAddress(expr string) (uint64, bool) {
	v, err := p.eval(expr)
	if err != nil || !v.lvalue {
		return 0, false
	}
	return v.addr, true
}

// Evaluate implements debugger.Debugger.
func (p *Process) Evaluate(expr string) debugger.Expression {
	p.stats.Evaluations++
	v, err := p.eval(expr)
	if err != nil {
		return debugger.Expression{}
	}
	value, ok := p.render(v)
	if !ok {
		// Unreadable lvalues keep their type.
		return debugger.Expression{Type: v.t.Name}
	}
	return debugger.Expression{Valid: true, Type: v.t.Name, Value: value}
}
