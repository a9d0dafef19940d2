package converter

import (
	"fmt"
)

// Converter decodes a fixed-size block of bytes into a fixed number of values.
type Converter[T Number] interface {
	// ValueCount is the number of values produced by one decode.
	ValueCount() int
	// ByteSize is the number of bytes consumed by one decode.
	ByteSize() int
	// Copy decodes src[srcOffset:srcOffset+ByteSize()] into
	// dst[dstOffset:dstOffset+ValueCount()].
	Copy(src []byte, srcOffset int, dst []T, dstOffset int)
}

// Decode runs c over src starting at offset and returns the produced values.
// It returns an error instead of panicking when src is too short.
func Decode[T Number](c Converter[T], src []byte, offset int) ([]T, error) {
	if offset < 0 || offset+c.ByteSize() > len(src) {
		return nil, fmt.Errorf("buffer of %d bytes too short for %d bytes at offset %d",
			len(src), c.ByteSize(), offset)
	}
	dst := make([]T, c.ValueCount())
	c.Copy(src, offset, dst, 0)
	return dst, nil
}

// Value decodes a single scalar.
type Value[T Number] struct {
	scalar Scalar
}

// NewValue returns a converter for one scalar of the given representation.
func NewValue[T Number](s Scalar) *Value[T] {
	return &Value[T]{scalar: s}
}

// NewValueFor returns a converter for the named arithmetic or pointer type
// of the given size, or false if the type is not a known scalar.
func NewValueFor[T Number](typeName string, size int) (*Value[T], bool) {
	s, ok := ScalarFor(typeName, size)
	if !ok {
		return nil, false
	}
	return NewValue[T](s), true
}

func (v *Value[T]) ValueCount() int { return 1 }
func (v *Value[T]) ByteSize() int   { return v.scalar.Size }

// Scalar returns the decoded representation.
func (v *Value[T]) Scalar() Scalar { return v.scalar }

func (v *Value[T]) Copy(src []byte, srcOffset int, dst []T, dstOffset int) {
	dst[dstOffset] = decodeScalar[T](v.scalar, src[srcOffset:srcOffset+v.scalar.Size])
}

// Member places a converter at a byte offset inside a Struct.
type Member[T Number] struct {
	Converter Converter[T]
	Offset    int
}

// Struct decodes several members laid out inside one block of byteSize bytes.
// Values are produced in member order.
type Struct[T Number] struct {
	members    []Member[T]
	byteSize   int
	valueCount int
}

// NewStruct builds a Struct converter. Every member must fit inside byteSize.
func NewStruct[T Number](byteSize int, members ...Member[T]) (*Struct[T], error) {
	if byteSize <= 0 {
		return nil, fmt.Errorf("struct byte size must be positive, got %d", byteSize)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("struct converter needs at least one member")
	}

	count := 0
	for i, m := range members {
		if m.Converter == nil {
			return nil, fmt.Errorf("member %d has no converter", i)
		}
		if m.Offset < 0 || m.Offset+m.Converter.ByteSize() > byteSize {
			return nil, fmt.Errorf("member %d at offset %d with size %d exceeds struct size %d",
				i, m.Offset, m.Converter.ByteSize(), byteSize)
		}
		count += m.Converter.ValueCount()
	}

	return &Struct[T]{
		members:    append([]Member[T](nil), members...),
		byteSize:   byteSize,
		valueCount: count,
	}, nil
}

func (s *Struct[T]) ValueCount() int { return s.valueCount }
func (s *Struct[T]) ByteSize() int   { return s.byteSize }

func (s *Struct[T]) Copy(src []byte, srcOffset int, dst []T, dstOffset int) {
	for _, m := range s.members {
		m.Converter.Copy(src, srcOffset+m.Offset, dst, dstOffset)
		dstOffset += m.Converter.ValueCount()
	}
}

// Array repeats one converter count times over contiguous elements.
type Array[T Number] struct {
	elem  Converter[T]
	count int
}

// NewArray builds an Array converter. A count of zero yields no values.
func NewArray[T Number](elem Converter[T], count int) (*Array[T], error) {
	if elem == nil {
		return nil, fmt.Errorf("array converter needs an element converter")
	}
	if count < 0 {
		return nil, fmt.Errorf("array count must not be negative, got %d", count)
	}
	return &Array[T]{elem: elem, count: count}, nil
}

func (a *Array[T]) ValueCount() int { return a.elem.ValueCount() * a.count }
func (a *Array[T]) ByteSize() int   { return a.elem.ByteSize() * a.count }

// Count is the number of repeated elements.
func (a *Array[T]) Count() int { return a.count }

func (a *Array[T]) Copy(src []byte, srcOffset int, dst []T, dstOffset int) {
	stride := a.elem.ByteSize()
	values := a.elem.ValueCount()
	for i := 0; i < a.count; i++ {
		a.elem.Copy(src, srcOffset+i*stride, dst, dstOffset+i*values)
	}
}

// Transform rewrites the values produced by another converter in place. It
// never changes the number of values.
type Transform[T Number] struct {
	base Converter[T]
	fn   func(values []T)
}

// NewTransform wraps base. fn receives exactly base.ValueCount() values.
func NewTransform[T Number](base Converter[T], fn func(values []T)) *Transform[T] {
	return &Transform[T]{base: base, fn: fn}
}

func (t *Transform[T]) ValueCount() int { return t.base.ValueCount() }
func (t *Transform[T]) ByteSize() int   { return t.base.ByteSize() }

func (t *Transform[T]) Copy(src []byte, srcOffset int, dst []T, dstOffset int) {
	t.base.Copy(src, srcOffset, dst, dstOffset)
	t.fn(dst[dstOffset : dstOffset+t.base.ValueCount()])
}

// WidthToMax converts a (min, extent) pair at positions i and j into
// (min, max) by adding the minimum to the extent.
func WidthToMax[T Number](i, j int) func(values []T) {
	return func(values []T) {
		values[j] += values[i]
	}
}

// Reorder returns a transform that permutes values so that out[k] = in[perm[k]].
func Reorder[T Number](perm ...int) func(values []T) {
	return func(values []T) {
		tmp := make([]T, len(perm))
		for k, p := range perm {
			tmp[k] = values[p]
		}
		copy(values, tmp)
	}
}
