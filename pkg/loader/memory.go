package loader

import (
	"errors"

	"github.com/coral-mesh/geoinspect/pkg/converter"
	"github.com/coral-mesh/geoinspect/pkg/geometry"
)

// ForEachMemoryBlock decodes every memory region of a container with elem
// and calls fn once per region, in logical element order.
func ForEachMemoryBlock[T converter.Number](env *Env, c Container, name string, elem converter.Converter[T], fn func(values []T) error) error {
	if elem == nil {
		return Unavailablef("no element converter")
	}
	if !env.MemoryEnabled() {
		return ErrMemoryUnavailable
	}
	return c.MemoryRegions(env, name, func(addr uint64, count int) error {
		if err := env.Check(); err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		arr, err := converter.NewArray(elem, count)
		if err != nil {
			return Unavailablef("%v", err)
		}
		buf, err := env.Read(addr, arr.ByteSize())
		if err != nil {
			return err
		}
		values, err := converter.Decode[T](arr, buf, 0)
		if err != nil {
			return Unavailablef("%v", err)
		}
		return fn(values)
	})
}

// CalcAddressSize returns the address of the first element and the number
// of elements of a contiguous container. The size is read from memory when
// possible and evaluated otherwise. The address is only resolved for a
// non-empty container.
func CalcAddressSize(env *Env, c Contiguous, name string) (uint64, int, error) {
	size, err := c.MemorySize(env, name)
	if errors.Is(err, ErrMemoryUnavailable) {
		size, err = c.LoadSize(env, name)
	}
	if err != nil {
		return 0, 0, err
	}
	if size < 0 {
		return 0, 0, Unavailablef("negative size %d", size)
	}
	if size == 0 {
		return 0, 0, nil
	}
	addr, err := c.FirstAddress(env, name)
	if err != nil {
		return 0, 0, err
	}
	return addr, size, nil
}

// WithFallback runs memory, when the memory path is enabled and memory is
// not nil, and falls back to parsed on any failure other than cancellation.
// Output of a failed memory run is discarded.
func WithFallback[R any](env *Env, memory, parsed func() (R, error)) (R, error) {
	if memory != nil && env.MemoryEnabled() {
		r, err := memory()
		if err == nil {
			return r, nil
		}
		if errors.Is(err, ErrTimedOut) {
			var zero R
			return zero, err
		}
		env.Log.Debug().Err(err).Msg("Memory path failed, using parsed path")
	}
	return parsed()
}

// LoadElements loads every element of a container with elem. The memory
// path is used when elem can decode raw memory.
func LoadElements(env *Env, c Container, name string, elem ValueLoader) ([]geometry.Drawable, error) {
	var memory func() ([]geometry.Drawable, error)
	if ml, ok := elem.(MemoryLoader); ok && ml.Converter() != nil {
		memory = func() ([]geometry.Drawable, error) {
			conv := ml.Converter()
			n := conv.ValueCount()
			var out []geometry.Drawable
			err := ForEachMemoryBlock(env, c, name, conv, func(values []float64) error {
				for i := 0; i+n <= len(values); i += n {
					if err := env.Check(); err != nil {
						return err
					}
					out = append(out, ml.FromValues(values[i:i+n]))
				}
				return nil
			})
			return out, err
		}
	}
	return WithFallback(env, memory, func() ([]geometry.Drawable, error) {
		var out []geometry.Drawable
		err := c.ForEachElement(env, name, func(elemName string) error {
			if err := env.Check(); err != nil {
				return err
			}
			d, err := elem.Load(env, elemName)
			if err != nil {
				return err
			}
			out = append(out, d)
			return nil
		})
		return out, err
	})
}

// LoadValues loads a container of arithmetic elements.
func LoadValues(env *Env, c Container, name string, elem converter.Converter[float64]) ([]float64, error) {
	var memory func() ([]float64, error)
	if elem != nil {
		memory = func() ([]float64, error) {
			var out []float64
			err := ForEachMemoryBlock(env, c, name, elem, func(values []float64) error {
				for _, v := range values {
					if err := env.Check(); err != nil {
						return err
					}
					out = append(out, v)
				}
				return nil
			})
			return out, err
		}
	}
	return WithFallback(env, memory, func() ([]float64, error) {
		var out []float64
		err := c.ForEachElement(env, name, func(elemName string) error {
			if err := env.Check(); err != nil {
				return err
			}
			v, err := env.EvalFloat(elemName)
			if err != nil {
				return err
			}
			out = append(out, v)
			return nil
		})
		return out, err
	})
}
