package loader

import (
	"github.com/coral-mesh/geoinspect/pkg/converter"
	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/typeid"
)

// Loader is bound to one debuggee type. Loaders are immutable once built and
// hold offsets and sizes only, never addresses.
type Loader interface {
	Kind() geometry.Kind
}

// ValueLoader extracts a value from an instance of its type.
type ValueLoader interface {
	Loader
	Load(env *Env, name string) (geometry.Drawable, error)
}

// GeometryLoader is a ValueLoader whose values carry Traits.
type GeometryLoader interface {
	ValueLoader
	Traits(env *Env, name string) (geometry.Traits, error)
}

// MemoryLoader is a ValueLoader able to decode its values from raw memory.
type MemoryLoader interface {
	ValueLoader
	// Converter decodes one value. It is nil when the layout could not be
	// determined, in which case only Load works.
	Converter() converter.Converter[float64]
	// FromValues builds a value from the output of one Converter decode.
	FromValues(values []float64) geometry.Drawable
}

// Container enumerates the elements of a container type.
type Container interface {
	Loader
	// ElementInfo returns the expression and type of one representative
	// element. The element does not need to exist.
	ElementInfo(env *Env, name string) (elemName, elemType string, err error)
	// LoadSize evaluates the number of elements.
	LoadSize(env *Env, name string) (int, error)
	// MemorySize reads the number of elements from raw memory. It returns
	// ErrMemoryUnavailable instead of guessing.
	MemorySize(env *Env, name string) (int, error)
	// ForEachElement calls fn with the expression of each element in
	// logical order and stops at the first error.
	ForEachElement(env *Env, name string, fn func(elemName string) error) error
	// MemoryRegions calls fn with each run of consecutive elements, in the
	// order of ForEachElement, and stops at the first error.
	MemoryRegions(env *Env, name string, fn func(addr uint64, count int) error) error
}

// Contiguous is a Container storing all elements in one block.
type Contiguous interface {
	Container
	// FirstAddress returns the address of element 0.
	FirstAddress(env *Env, name string) (uint64, error)
}

// Target is what a creator is asked to match: the expression of a
// representative value and its type.
type Target struct {
	Name string
	Type string
	ID   typeid.ID
}

// NewTarget parses typ into a target.
func NewTarget(name, typ string) Target {
	return Target{Name: name, Type: typ, ID: typeid.Parse(typ)}
}

// Creator builds loaders for the types it recognizes.
type Creator interface {
	Name() string
	Kind() geometry.Kind
	// Create returns nil, nil when the type is not recognized. An error
	// means the type was recognized but the loader could not be built.
	Create(env *Env, t Target) (Loader, error)
}

// CreateFunc is the body of a Creator.
type CreateFunc func(env *Env, t Target) (Loader, error)

// NewCreator returns a Creator backed by fn.
func NewCreator(name string, kind geometry.Kind, fn CreateFunc) Creator {
	return &funcCreator{name: name, kind: kind, fn: fn}
}

type funcCreator struct {
	name string
	kind geometry.Kind
	fn   CreateFunc
}

func (c *funcCreator) Name() string                              { return c.name }
func (c *funcCreator) Kind() geometry.Kind                       { return c.kind }
func (c *funcCreator) Create(env *Env, t Target) (Loader, error) { return c.fn(env, t) }
