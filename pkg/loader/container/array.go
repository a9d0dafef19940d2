package container

import (
	"fmt"

	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
	"github.com/coral-mesh/geoinspect/pkg/typeid"
)

// Array is a fixed-size array: a C array, or a class wrapping one in a
// member such as std::array::_Elems.
type Array struct {
	member   string
	elemType string
	count    int
}

var _ loader.Contiguous = (*Array)(nil)

// NewArray returns the container of the C array reached through member, an
// access path that is empty for plain arrays.
func NewArray(env *loader.Env, name, member string) (*Array, error) {
	typ, err := env.TypeOf(name + member)
	if err != nil {
		return nil, err
	}
	elem, n, ok := typeid.ArrayInfo(typeid.Normalize(typ))
	if !ok {
		return nil, loader.Failf("%s%s is not an array: %s", name, member, typ)
	}
	return &Array{member: member, elemType: elem, count: n}, nil
}

func createCArray(env *loader.Env, t loader.Target) (loader.Loader, error) {
	elem, n, ok := typeid.ArrayInfo(typeid.Normalize(t.Type))
	if !ok {
		return nil, nil
	}
	return &Array{elemType: elem, count: n}, nil
}

func createStdArray(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("std::array") {
		return nil, nil
	}
	return NewArray(env, t.Name, "._Elems")
}

func createBoostArray(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::array") {
		return nil, nil
	}
	return NewArray(env, t.Name, ".elems")
}

func (a *Array) Kind() geometry.Kind { return geometry.KindContainer }

func (a *Array) ElementInfo(env *loader.Env, name string) (string, string, error) {
	return a.element(name, 0), a.elemType, nil
}

func (a *Array) element(name string, i int) string {
	return fmt.Sprintf("%s%s[%d]", name, a.member, i)
}

// LoadSize returns the extent of the array type.
func (a *Array) LoadSize(env *loader.Env, name string) (int, error) { return a.count, nil }

// MemorySize returns the extent of the array type.
func (a *Array) MemorySize(env *loader.Env, name string) (int, error) { return a.count, nil }

func (a *Array) ForEachElement(env *loader.Env, name string, fn func(string) error) error {
	return forEachIndexed(a.count, func(i int) string { return a.element(name, i) }, fn)
}

func (a *Array) FirstAddress(env *loader.Env, name string) (uint64, error) {
	return env.Address(name + a.member)
}

func (a *Array) MemoryRegions(env *loader.Env, name string, fn func(uint64, int) error) error {
	return singleRegion(env, a, name, fn)
}
