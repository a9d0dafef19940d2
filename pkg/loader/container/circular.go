package container

import (
	"fmt"

	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
)

// CircularBuffer is boost::circular_buffer. The elements start at m_first
// and wrap from m_end back to m_buff.
type CircularBuffer struct {
	elemType string
	elemSize int
	buff     field
	end      field
	first    field
	size     field
}

var _ loader.Container = (*CircularBuffer)(nil)

func createCircularBuffer(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("boost::circular_buffer") {
		return nil, nil
	}
	elem, err := pointee(env, t.Name+".m_buff")
	if err != nil {
		return nil, err
	}
	return &CircularBuffer{
		elemType: elem,
		elemSize: elemSize(env, elem),
		buff:     fieldOf(env, t.Name, ".m_buff"),
		end:      fieldOf(env, t.Name, ".m_end"),
		first:    fieldOf(env, t.Name, ".m_first"),
		size:     fieldOf(env, t.Name, ".m_size"),
	}, nil
}

func (c *CircularBuffer) Kind() geometry.Kind { return geometry.KindContainer }

func (c *CircularBuffer) ElementInfo(env *loader.Env, name string) (string, string, error) {
	return name + ".m_buff[0]", c.elemType, nil
}

func (c *CircularBuffer) LoadSize(env *loader.Env, name string) (int, error) {
	n, err := env.EvalInt(name + ".m_size")
	if err != nil {
		return 0, err
	}
	return checkSize(n)
}

func (c *CircularBuffer) MemorySize(env *loader.Env, name string) (int, error) {
	base, err := env.Address(name)
	if err != nil {
		return 0, err
	}
	n, err := c.size.read(env, base)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (c *CircularBuffer) ForEachElement(env *loader.Env, name string, fn func(string) error) error {
	n, err := c.LoadSize(env, name)
	if err != nil || n == 0 {
		return err
	}
	toWrap, err := env.EvalInt(name + ".m_end - " + name + ".m_first")
	if err != nil {
		return err
	}
	return forEachIndexed(n, func(i int) string {
		if i < int(toWrap) {
			return fmt.Sprintf("%s.m_first[%d]", name, i)
		}
		return fmt.Sprintf("%s.m_buff[%d]", name, i-int(toWrap))
	}, fn)
}

// MemoryRegions yields the elements up to the end of the buffer, then the
// ones that wrapped to its start.
func (c *CircularBuffer) MemoryRegions(env *loader.Env, name string, fn func(uint64, int) error) error {
	if c.elemSize <= 0 {
		return loader.Unavailablef("unknown size of %s", c.elemType)
	}
	base, err := env.Address(name)
	if err != nil {
		return err
	}
	var vals [4]uint64
	for i, f := range []field{c.buff, c.end, c.first, c.size} {
		if vals[i], err = f.read(env, base); err != nil {
			return err
		}
	}
	buff, end, first, size := vals[0], vals[1], vals[2], int(vals[3])
	if size == 0 {
		return nil
	}
	if buff == 0 || first < buff || end <= first {
		return loader.Unavailablef("inconsistent circular buffer")
	}
	toWrap := int((end - first) / uint64(c.elemSize))
	head := min(size, toWrap)
	if err := fn(first, head); err != nil {
		return err
	}
	if size > head {
		return fn(buff, size-head)
	}
	return nil
}
