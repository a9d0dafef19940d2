package container

import (
	"fmt"

	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
)

const vectorVal = "._Mypair._Myval2"

// Vector is std::vector or a class deriving from it.
type Vector struct {
	elemType string
	elemSize int
	first    field
	last     field
}

var _ loader.Contiguous = (*Vector)(nil)

// NewVector returns the container of name, a std::vector or an instance of
// a type with the same layout.
func NewVector(env *loader.Env, name string) (*Vector, error) {
	elem, err := pointee(env, name+vectorVal+"._Myfirst")
	if err != nil {
		return nil, err
	}
	return &Vector{
		elemType: elem,
		elemSize: elemSize(env, elem),
		first:    fieldOf(env, name, vectorVal+"._Myfirst"),
		last:     fieldOf(env, name, vectorVal+"._Mylast"),
	}, nil
}

func createVector(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("std::vector") {
		return nil, nil
	}
	return NewVector(env, t.Name)
}

func (v *Vector) Kind() geometry.Kind { return geometry.KindContainer }

func (v *Vector) ElementInfo(env *loader.Env, name string) (string, string, error) {
	return v.element(name, 0), v.elemType, nil
}

func (v *Vector) element(name string, i int) string {
	return fmt.Sprintf("%s%s._Myfirst[%d]", name, vectorVal, i)
}

func (v *Vector) LoadSize(env *loader.Env, name string) (int, error) {
	n, err := env.EvalInt(fmt.Sprintf("%s%s._Mylast - %s%s._Myfirst", name, vectorVal, name, vectorVal))
	if err != nil {
		return 0, err
	}
	return checkSize(n)
}

func (v *Vector) MemorySize(env *loader.Env, name string) (int, error) {
	if v.elemSize <= 0 {
		return 0, loader.Unavailablef("unknown size of %s", v.elemType)
	}
	base, err := env.Address(name)
	if err != nil {
		return 0, err
	}
	first, err := v.first.read(env, base)
	if err != nil {
		return 0, err
	}
	last, err := v.last.read(env, base)
	if err != nil {
		return 0, err
	}
	if last < first || (last-first)%uint64(v.elemSize) != 0 {
		return 0, loader.Unavailablef("inconsistent vector bounds 0x%x..0x%x", first, last)
	}
	return int((last - first) / uint64(v.elemSize)), nil
}

func (v *Vector) ForEachElement(env *loader.Env, name string, fn func(string) error) error {
	n, err := v.LoadSize(env, name)
	if err != nil {
		return err
	}
	return forEachIndexed(n, func(i int) string { return v.element(name, i) }, fn)
}

func (v *Vector) FirstAddress(env *loader.Env, name string) (uint64, error) {
	base, err := env.Address(name)
	if err != nil {
		return 0, err
	}
	return v.first.read(env, base)
}

func (v *Vector) MemoryRegions(env *loader.Env, name string, fn func(uint64, int) error) error {
	return singleRegion(env, v, name, fn)
}

const boostHolder = ".m_holder"

// BoostVector is boost::container::vector.
type BoostVector struct {
	elemType string
	start    field
	size     field
}

var _ loader.Contiguous = (*BoostVector)(nil)

func createBoostVector(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::container::vector") {
		return nil, nil
	}
	elem, err := pointee(env, t.Name+boostHolder+".m_start")
	if err != nil {
		return nil, err
	}
	return &BoostVector{
		elemType: elem,
		start:    fieldOf(env, t.Name, boostHolder+".m_start"),
		size:     fieldOf(env, t.Name, boostHolder+".m_size"),
	}, nil
}

func (v *BoostVector) Kind() geometry.Kind { return geometry.KindContainer }

func (v *BoostVector) ElementInfo(env *loader.Env, name string) (string, string, error) {
	return v.element(name, 0), v.elemType, nil
}

func (v *BoostVector) element(name string, i int) string {
	return fmt.Sprintf("%s%s.m_start[%d]", name, boostHolder, i)
}

func (v *BoostVector) LoadSize(env *loader.Env, name string) (int, error) {
	n, err := env.EvalInt(name + boostHolder + ".m_size")
	if err != nil {
		return 0, err
	}
	return checkSize(n)
}

func (v *BoostVector) MemorySize(env *loader.Env, name string) (int, error) {
	base, err := env.Address(name)
	if err != nil {
		return 0, err
	}
	n, err := v.size.read(env, base)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (v *BoostVector) ForEachElement(env *loader.Env, name string, fn func(string) error) error {
	n, err := v.LoadSize(env, name)
	if err != nil {
		return err
	}
	return forEachIndexed(n, func(i int) string { return v.element(name, i) }, fn)
}

func (v *BoostVector) FirstAddress(env *loader.Env, name string) (uint64, error) {
	base, err := env.Address(name)
	if err != nil {
		return 0, err
	}
	return v.start.read(env, base)
}

func (v *BoostVector) MemoryRegions(env *loader.Env, name string, fn func(uint64, int) error) error {
	return singleRegion(env, v, name, fn)
}
