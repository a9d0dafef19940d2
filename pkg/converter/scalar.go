package converter

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/coral-mesh/geoinspect/pkg/typeid"
)

// Number is the set of types converters can produce.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint |
		~float32 | ~float64
}

// ScalarKind is the machine representation of a scalar.
type ScalarKind int

const (
	KindSigned ScalarKind = iota
	KindUnsigned
	KindFloat
)

// Scalar describes one arithmetic value in debuggee memory.
type Scalar struct {
	Kind ScalarKind
	Size int
}

// Common scalars.
var (
	Float64 = Scalar{Kind: KindFloat, Size: 8}
	Float32 = Scalar{Kind: KindFloat, Size: 4}
	Int8    = Scalar{Kind: KindSigned, Size: 1}
	Int16   = Scalar{Kind: KindSigned, Size: 2}
	Int32   = Scalar{Kind: KindSigned, Size: 4}
	Int64   = Scalar{Kind: KindSigned, Size: 8}
	Uint8   = Scalar{Kind: KindUnsigned, Size: 1}
	Uint16  = Scalar{Kind: KindUnsigned, Size: 2}
	Uint32  = Scalar{Kind: KindUnsigned, Size: 4}
	Uint64  = Scalar{Kind: KindUnsigned, Size: 8}
	Pointer = Uint64
)

func (s Scalar) String() string {
	switch s.Kind {
	case KindFloat:
		return fmt.Sprintf("float%d", s.Size*8)
	case KindUnsigned:
		return fmt.Sprintf("uint%d", s.Size*8)
	default:
		return fmt.Sprintf("int%d", s.Size*8)
	}
}

func (s Scalar) valid() bool {
	switch s.Kind {
	case KindFloat:
		return s.Size == 4 || s.Size == 8
	case KindSigned, KindUnsigned:
		return s.Size == 1 || s.Size == 2 || s.Size == 4 || s.Size == 8
	}
	return false
}

var unsignedNames = map[string]bool{
	"unsigned char":          true,
	"unsigned short":         true,
	"unsigned short int":     true,
	"unsigned int":           true,
	"unsigned":               true,
	"unsigned long":          true,
	"unsigned long int":      true,
	"unsigned long long":     true,
	"unsigned long long int": true,
	"unsigned __int64":       true,
	"unsigned __int32":       true,
	"unsigned __int16":       true,
	"unsigned __int8":        true,
	"size_t":                 true,
	"std::size_t":            true,
	"uint8_t":                true,
	"uint16_t":               true,
	"uint32_t":               true,
	"uint64_t":               true,
	"std::uint8_t":           true,
	"std::uint16_t":          true,
	"std::uint32_t":          true,
	"std::uint64_t":          true,
	"bool":                   true,
	"wchar_t":                true,
	"char16_t":               true,
	"char32_t":               true,
}

var signedNames = map[string]bool{
	"char":             true,
	"signed char":      true,
	"short":            true,
	"short int":        true,
	"signed short":     true,
	"int":              true,
	"signed int":       true,
	"signed":           true,
	"long":             true,
	"long int":         true,
	"signed long":      true,
	"long long":        true,
	"long long int":    true,
	"signed long long": true,
	"__int64":          true,
	"__int32":          true,
	"__int16":          true,
	"__int8":           true,
	"ptrdiff_t":        true,
	"std::ptrdiff_t":   true,
	"int8_t":           true,
	"int16_t":          true,
	"int32_t":          true,
	"int64_t":          true,
	"std::int8_t":      true,
	"std::int16_t":     true,
	"std::int32_t":     true,
	"std::int64_t":     true,
	"std::intptr_t":    true,
	"intptr_t":         true,
	"std::streamsize":  true,
	"std::streamoff":   true,
	"boost::int32_t":   true,
	"boost::int64_t":   true,
}

// ScalarFor maps a type name reported by the debugger and the size the
// debugger reported for it to a Scalar. Pointer types map to unsigned
// integers of the given size.
func ScalarFor(typeName string, size int) (Scalar, bool) {
	name := typeid.Normalize(typeName)

	var s Scalar
	switch {
	case strings.HasSuffix(name, "*"):
		s = Scalar{Kind: KindUnsigned, Size: size}
	case name == "double" || name == "float" || name == "long double":
		s = Scalar{Kind: KindFloat, Size: size}
	case unsignedNames[name] || name == "std::uintptr_t" || name == "uintptr_t":
		s = Scalar{Kind: KindUnsigned, Size: size}
	case signedNames[name]:
		s = Scalar{Kind: KindSigned, Size: size}
	default:
		return Scalar{}, false
	}
	return s, s.valid()
}

// IsArithmetic reports whether typeName names a builtin arithmetic type.
func IsArithmetic(typeName string) bool {
	name := typeid.Normalize(typeName)
	return name == "double" || name == "float" || name == "long double" ||
		unsignedNames[name] || signedNames[name]
}

func decodeScalar[T Number](s Scalar, b []byte) T {
	switch s.Kind {
	case KindFloat:
		if s.Size == 4 {
			return T(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		}
		return T(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	case KindUnsigned:
		switch s.Size {
		case 1:
			return T(b[0])
		case 2:
			return T(binary.LittleEndian.Uint16(b))
		case 4:
			return T(binary.LittleEndian.Uint32(b))
		default:
			return T(binary.LittleEndian.Uint64(b))
		}
	default:
		switch s.Size {
		case 1:
			return T(int8(b[0]))
		case 2:
			return T(int16(binary.LittleEndian.Uint16(b)))
		case 4:
			return T(int32(binary.LittleEndian.Uint32(b)))
		default:
			return T(int64(binary.LittleEndian.Uint64(b)))
		}
	}
}
