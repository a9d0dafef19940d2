// Package geometry holds the value tree produced by extraction: the closed
// set of Kinds a debuggee value can belong to, the geometric Traits discovered
// along with a value, and one Drawable type per kind.
package geometry

// Kind is the semantic category of a loadable value. The declaration order
// is significant: registries search kinds in this order.
type Kind int

const (
	KindPoint Kind = iota
	KindBox
	KindSegment
	KindRay
	KindLine
	KindNSphere
	KindLinestring
	KindRing
	KindPolygon
	KindMultiPoint
	KindMultiLinestring
	KindMultiPolygon
	KindGeometriesContainer
	KindValuesContainer
	KindTurnsContainer
	KindVariant
	KindImage
	KindContainer
	KindOther

	// KindCount is the number of kinds.
	KindCount = int(iota)
)

var kindNames = [KindCount]string{
	"Point",
	"Box",
	"Segment",
	"Ray",
	"Line",
	"NSphere",
	"Linestring",
	"Ring",
	"Polygon",
	"MultiPoint",
	"MultiLinestring",
	"MultiPolygon",
	"GeometriesContainer",
	"ValuesContainer",
	"TurnsContainer",
	"Variant",
	"Image",
	"Container",
	"Other",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= KindCount {
		return "Unknown"
	}
	return kindNames[k]
}

// ParseKind returns the kind with the given name, case-sensitive.
func ParseKind(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

// IsGeometry reports whether values of the kind carry geometric Traits.
func (k Kind) IsGeometry() bool {
	return k <= KindMultiPolygon
}
