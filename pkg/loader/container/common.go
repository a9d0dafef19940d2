package container

import (
	"fmt"
	"strings"

	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
	"github.com/coral-mesh/geoinspect/pkg/typeid"
)

// Creators returns the creators of every built-in container.
func Creators() []loader.Creator {
	return []loader.Creator{
		loader.NewCreator("c-array", geometry.KindContainer, createCArray),
		loader.NewCreator("std::array", geometry.KindContainer, createStdArray),
		loader.NewCreator("boost::array", geometry.KindContainer, createBoostArray),
		loader.NewCreator("std::vector", geometry.KindContainer, createVector),
		loader.NewCreator("boost::container::vector", geometry.KindContainer, createBoostVector),
		loader.NewCreator("boost::container::static_vector", geometry.KindContainer, createStaticVector),
		loader.NewCreator("boost::geometry::index::detail::varray", geometry.KindContainer, createVarray),
		loader.NewCreator("std::deque", geometry.KindContainer, createDeque),
		loader.NewCreator("std::list", geometry.KindContainer, createList),
		loader.NewCreator("std::set", geometry.KindContainer, createSet),
		loader.NewCreator("boost::circular_buffer", geometry.KindContainer, createCircularBuffer),
	}
}

// Register appends the built-in container creators to r.
func Register(r *loader.Registry) {
	for _, c := range Creators() {
		r.Register(c)
	}
}

// field locates an integral or pointer member relative to the address of
// its container.
type field struct {
	off  int64
	size int
}

var noField = field{off: -1}

// fieldOf resolves member, an access path such as "._Mypair._Myval2._Mysize",
// on the representative container name.
func fieldOf(env *loader.Env, name, member string) field {
	typ, err := env.TypeOf(name + member)
	if err != nil {
		return noField
	}
	f := field{off: env.Offset(name, name+member), size: env.SizeOf(typ)}
	if f.off < 0 || f.size <= 0 {
		return noField
	}
	return f
}

func (f field) ok() bool { return f.off >= 0 && f.size > 0 }

func (f field) read(env *loader.Env, base uint64) (uint64, error) {
	if !f.ok() {
		return 0, loader.Unavailablef("member offset unknown")
	}
	return env.ReadUint(base+uint64(f.off), f.size)
}

// pointee returns the type a pointer expression points to.
func pointee(env *loader.Env, expr string) (string, error) {
	typ, err := env.TypeOf(expr)
	if err != nil {
		return "", err
	}
	elem, ok := typeid.PointerElem(typeid.Normalize(typ))
	if !ok {
		return "", loader.Failf("%q is not a pointer: %s", expr, typ)
	}
	return elem, nil
}

// elemSize returns the size of typ or -1, which disables the memory path.
func elemSize(env *loader.Env, typ string) int {
	return env.SizeOf(typ)
}

// checkSize validates a size read or evaluated from the debuggee.
func checkSize(n int64) (int, error) {
	if n < 0 {
		return 0, loader.Failf("invalid container size %d", n)
	}
	return int(n), nil
}

// forEachIndexed enumerates elements 0 to n-1 of an indexable container.
func forEachIndexed(n int, elem func(i int) string, fn func(string) error) error {
	for i := 0; i < n; i++ {
		if err := fn(elem(i)); err != nil {
			return err
		}
	}
	return nil
}

// singleRegion yields the one block of a contiguous container.
func singleRegion(env *loader.Env, c loader.Contiguous, name string, fn func(uint64, int) error) error {
	addr, size, err := loader.CalcAddressSize(env, c, name)
	if err != nil {
		return err
	}
	if size == 0 {
		return nil
	}
	return fn(addr, size)
}

// castNode renders an expression viewing addr as a node of type node.
func castNode(node string, addr uint64) string {
	return fmt.Sprintf("((%s*)0x%x)", node, addr)
}

// storageElement renders element i of opaque storage holding elem values.
func storageElement(elem, storage string, i int) string {
	return fmt.Sprintf("((%s*)(&%s))[%d]", elem, storage, i)
}

// Expand substitutes $this in a user expression with the container name.
func Expand(expr, name string) string {
	return strings.ReplaceAll(expr, "$this", "("+name+")")
}
