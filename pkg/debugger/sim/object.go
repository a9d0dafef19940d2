package sim

import "fmt"

// Object is a typed view of simulated memory used to build fixtures.
type Object struct {
	p    *Process
	Type *Type
	Addr uint64
}

// At returns a typed view of memory at addr.
func (p *Process) At(t *Type, addr uint64) Object {
	return Object{p: p, Type: t, Addr: addr}
}

// New allocates an unnamed object of type t.
func (p *Process) New(t *Type) Object {
	return Object{p: p, Type: t, Addr: p.Alloc(t)}
}

// NewArray allocates n contiguous objects of type t and returns the array.
func (p *Process) NewArray(t *Type, n int) Object {
	at := p.ArrayOf(t, n)
	if n == 0 {
		// Zero-length arrays still need a distinct address.
		return Object{p: p, Type: at, Addr: p.AllocBytes(0, t.Align)}
	}
	return Object{p: p, Type: at, Addr: p.Alloc(at)}
}

// Field returns the named member. It panics when the member does not exist.
func (o Object) Field(name string) Object {
	f, ok := o.Type.Field(name)
	if !ok {
		panic(fmt.Sprintf("sim: %s has no member %q", o.Type.Name, name))
	}
	return Object{p: o.p, Type: f.Type, Addr: o.Addr + uint64(f.Offset)}
}

// Path follows a chain of member names.
func (o Object) Path(names ...string) Object {
	for _, n := range names {
		o = o.Field(n)
	}
	return o
}

// Index returns element i of an array object.
func (o Object) Index(i int) Object {
	if o.Type.Kind != TypeArray {
		panic(fmt.Sprintf("sim: %s is not an array", o.Type.Name))
	}
	return Object{p: o.p, Type: o.Type.Elem, Addr: o.Addr + uint64(i*o.Type.Elem.Size)}
}

// Len is the length of an array object.
func (o Object) Len() int {
	return o.Type.Len
}

// End returns the address one past the last element of an array object.
func (o Object) End() uint64 {
	return o.Addr + uint64(o.Type.Size)
}

// SetFloat stores an arithmetic value.
func (o Object) SetFloat(v float64) Object {
	o.mustScalar()
	o.p.writeScalar(o.Addr, o.Type.Scalar, v, 0, true)
	return o
}

// SetInt stores an integer value.
func (o Object) SetInt(v int64) Object {
	o.mustScalar()
	o.p.writeScalar(o.Addr, o.Type.Scalar, 0, uint64(v), false)
	return o
}

// SetPointer stores an address in a pointer object.
func (o Object) SetPointer(addr uint64) Object {
	if o.Type.Kind != TypePointer {
		panic(fmt.Sprintf("sim: %s is not a pointer", o.Type.Name))
	}
	o.p.writeScalar(o.Addr, o.Type.Scalar, 0, addr, false)
	return o
}

// SetValues stores consecutive arithmetic values into an array object.
func (o Object) SetValues(values ...float64) Object {
	for i, v := range values {
		o.Index(i).SetFloat(v)
	}
	return o
}

// Float reads an arithmetic value back.
func (o Object) Float() float64 {
	o.mustScalar()
	f, _, _ := o.p.readScalar(o.Addr, o.Type.Scalar)
	return f
}

func (o Object) mustScalar() {
	if o.Type.Kind != TypeScalar && o.Type.Kind != TypePointer {
		panic(fmt.Sprintf("sim: %s is not a scalar", o.Type.Name))
	}
}
