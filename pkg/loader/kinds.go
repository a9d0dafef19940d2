package loader

import (
	"strings"

	"github.com/coral-mesh/geoinspect/pkg/geometry"
)

// KindSet is a set of kinds used to constrain a registry lookup.
type KindSet uint32

// Predefined constraints.
var (
	AllKinds = KindSet(1<<uint(geometry.KindCount) - 1)

	// GeometryKinds are the single geometries, Point through MultiPolygon.
	GeometryKinds = kindRange(geometry.KindPoint, geometry.KindMultiPolygon)

	// ValueKinds match containers of elements of any loadable type. They
	// search the registry themselves, so they are excluded from element
	// lookups.
	ValueKinds = KindsOf(geometry.KindValuesContainer, geometry.KindGeometriesContainer)

	// DrawableKinds are the kinds whose loaders produce a value.
	DrawableKinds = AllKinds.Without(geometry.KindImage, geometry.KindContainer, geometry.KindOther)

	// ElementKinds are searched for the elements of a container.
	ElementKinds = DrawableKinds.Minus(ValueKinds)

	// ContainerKinds select container loaders only.
	ContainerKinds = KindsOf(geometry.KindContainer)
)

// KindsOf returns the set holding kinds.
func KindsOf(kinds ...geometry.Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s |= 1 << uint(k)
	}
	return s
}

func kindRange(from, to geometry.Kind) KindSet {
	var s KindSet
	for k := from; k <= to; k++ {
		s |= 1 << uint(k)
	}
	return s
}

// Has reports whether k is in the set.
func (s KindSet) Has(k geometry.Kind) bool {
	return k >= 0 && int(k) < geometry.KindCount && s&(1<<uint(k)) != 0
}

// Without returns the set minus kinds.
func (s KindSet) Without(kinds ...geometry.Kind) KindSet {
	return s.Minus(KindsOf(kinds...))
}

// Minus returns the set minus every kind of other.
func (s KindSet) Minus(other KindSet) KindSet {
	return s &^ other
}

// Kinds lists the members in enumeration order.
func (s KindSet) Kinds() []geometry.Kind {
	var out []geometry.Kind
	for k := 0; k < geometry.KindCount; k++ {
		if s.Has(geometry.Kind(k)) {
			out = append(out, geometry.Kind(k))
		}
	}
	return out
}

func (s KindSet) String() string {
	names := make([]string, 0, geometry.KindCount)
	for _, k := range s.Kinds() {
		names = append(names, k.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}
