package container

import (
	"fmt"

	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
	"github.com/coral-mesh/geoinspect/pkg/typeid"
)

const dequeVal = "._Mypair._Myval2"

// Deque is std::deque: a map of pointers to fixed-size blocks, with the
// logical element i stored at position _Myoff+i.
type Deque struct {
	elemType  string
	elemSize  int
	blockSize int
	mapPtr    field
	mapSize   field
	off       field
	size      field
}

var _ loader.Container = (*Deque)(nil)

// MSVCDequeBlockSize returns the number of elements per deque block for
// elements of the given size.
func MSVCDequeBlockSize(elemSize int) int {
	switch {
	case elemSize <= 1:
		return 16
	case elemSize <= 2:
		return 8
	case elemSize <= 4:
		return 4
	case elemSize <= 8:
		return 2
	}
	return 1
}

func createDeque(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("std::deque") {
		return nil, nil
	}
	blockPtr, err := pointee(env, t.Name+dequeVal+"._Map")
	if err != nil {
		return nil, err
	}
	elem, ok := typeid.PointerElem(blockPtr)
	if !ok {
		return nil, loader.Failf("unexpected deque map type %s*", blockPtr)
	}
	d := &Deque{
		elemType: elem,
		elemSize: elemSize(env, elem),
		mapPtr:   fieldOf(env, t.Name, dequeVal+"._Map"),
		mapSize:  fieldOf(env, t.Name, dequeVal+"._Mapsize"),
		off:      fieldOf(env, t.Name, dequeVal+"._Myoff"),
		size:     fieldOf(env, t.Name, dequeVal+"._Mysize"),
	}
	d.blockSize = env.Options.DequeBlockSize
	if d.blockSize <= 0 && d.elemSize > 0 {
		d.blockSize = MSVCDequeBlockSize(d.elemSize)
	}
	if d.blockSize <= 0 {
		return nil, loader.Failf("cannot derive block size of %s", t.Type)
	}
	return d, nil
}

func (d *Deque) Kind() geometry.Kind { return geometry.KindContainer }

// BlockSize is the number of elements per block.
func (d *Deque) BlockSize() int { return d.blockSize }

func (d *Deque) ElementInfo(env *loader.Env, name string) (string, string, error) {
	return fmt.Sprintf("%s%s._Map[0][0]", name, dequeVal), d.elemType, nil
}

func (d *Deque) LoadSize(env *loader.Env, name string) (int, error) {
	n, err := env.EvalInt(name + dequeVal + "._Mysize")
	if err != nil {
		return 0, err
	}
	return checkSize(n)
}

func (d *Deque) MemorySize(env *loader.Env, name string) (int, error) {
	base, err := env.Address(name)
	if err != nil {
		return 0, err
	}
	n, err := d.size.read(env, base)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// locate returns the block and index within the block of position pos.
func (d *Deque) locate(pos, mapSize int) (int, int) {
	return (pos / d.blockSize) % mapSize, pos % d.blockSize
}

func (d *Deque) ForEachElement(env *loader.Env, name string, fn func(string) error) error {
	n, err := d.LoadSize(env, name)
	if err != nil || n == 0 {
		return err
	}
	off, err := env.EvalInt(name + dequeVal + "._Myoff")
	if err != nil {
		return err
	}
	mapSize, err := env.EvalInt(name + dequeVal + "._Mapsize")
	if err != nil {
		return err
	}
	if mapSize <= 0 || off < 0 {
		return loader.Failf("invalid deque map size %d offset %d", mapSize, off)
	}
	return forEachIndexed(n, func(i int) string {
		block, idx := d.locate(int(off)+i, int(mapSize))
		return fmt.Sprintf("%s%s._Map[%d][%d]", name, dequeVal, block, idx)
	}, fn)
}

// MemoryRegions yields the used part of each block in logical order. A
// block is visited twice when the elements wrap around the map into the
// block they started in.
func (d *Deque) MemoryRegions(env *loader.Env, name string, fn func(uint64, int) error) error {
	if d.elemSize <= 0 {
		return loader.Unavailablef("unknown size of %s", d.elemType)
	}
	base, err := env.Address(name)
	if err != nil {
		return err
	}
	var vals [4]uint64
	for i, f := range []field{d.mapPtr, d.mapSize, d.off, d.size} {
		if vals[i], err = f.read(env, base); err != nil {
			return err
		}
	}
	blockMap, mapSize, off, size := vals[0], int(vals[1]), int(vals[2]), int(vals[3])
	if size == 0 {
		return nil
	}
	if blockMap == 0 || mapSize <= 0 || size > mapSize*d.blockSize {
		return loader.Unavailablef("inconsistent deque map")
	}

	ptrSize := env.PointerSize()
	for i := 0; i < size; {
		block, idx := d.locate(off+i, mapSize)
		count := min(d.blockSize-idx, size-i)
		blockAddr, err := env.ReadPointer(blockMap + uint64(block*ptrSize))
		if err != nil {
			return err
		}
		if blockAddr == 0 {
			return loader.Unavailablef("null deque block %d", block)
		}
		if err := fn(blockAddr+uint64(idx*d.elemSize), count); err != nil {
			return err
		}
		i += count
	}
	return nil
}
