package container

import (
	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
)

// Storage is a container keeping its elements in an opaque, aligned byte
// buffer next to a size member: boost::container::static_vector and the
// varray used by Boost.Geometry rtree nodes. Elements are reached by
// casting the buffer address.
type Storage struct {
	storage  string
	sizeExpr string
	elemType string
	bufOff   int64
	size     field
}

var _ loader.Contiguous = (*Storage)(nil)

// NewStorage returns the container of name whose elements of type elem live
// in the member storage and whose count is the member size.
func NewStorage(env *loader.Env, name, elem, storage, size string) *Storage {
	return &Storage{
		storage:  storage,
		sizeExpr: size,
		elemType: elem,
		bufOff:   env.Offset(name, name+storage),
		size:     fieldOf(env, name, size),
	}
}

func createStaticVector(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::container::static_vector") {
		return nil, nil
	}
	elem, ok := t.ID.Arg(0)
	if !ok {
		return nil, loader.Failf("static_vector without element type: %s", t.Type)
	}
	return NewStorage(env, t.Name, elem, boostHolder+".storage", boostHolder+".m_size"), nil
}

func createVarray(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::geometry::index::detail::varray") {
		return nil, nil
	}
	elem, ok := t.ID.Arg(0)
	if !ok {
		return nil, loader.Failf("varray without element type: %s", t.Type)
	}
	return NewStorage(env, t.Name, elem, ".m_storage", ".m_size"), nil
}

func (s *Storage) Kind() geometry.Kind { return geometry.KindContainer }

func (s *Storage) ElementInfo(env *loader.Env, name string) (string, string, error) {
	return storageElement(s.elemType, name+s.storage, 0), s.elemType, nil
}

func (s *Storage) LoadSize(env *loader.Env, name string) (int, error) {
	n, err := env.EvalInt(name + s.sizeExpr)
	if err != nil {
		return 0, err
	}
	return checkSize(n)
}

func (s *Storage) MemorySize(env *loader.Env, name string) (int, error) {
	base, err := env.Address(name)
	if err != nil {
		return 0, err
	}
	n, err := s.size.read(env, base)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Storage) ForEachElement(env *loader.Env, name string, fn func(string) error) error {
	n, err := s.LoadSize(env, name)
	if err != nil {
		return err
	}
	return forEachIndexed(n, func(i int) string { return storageElement(s.elemType, name+s.storage, i) }, fn)
}

func (s *Storage) FirstAddress(env *loader.Env, name string) (uint64, error) {
	if s.bufOff < 0 {
		return 0, loader.Unavailablef("storage offset unknown")
	}
	base, err := env.Address(name)
	if err != nil {
		return 0, err
	}
	return base + uint64(s.bufOff), nil
}

func (s *Storage) MemoryRegions(env *loader.Env, name string, fn func(uint64, int) error) error {
	return singleRegion(env, s, name, fn)
}
