package container

import (
	"fmt"

	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
	"github.com/coral-mesh/geoinspect/pkg/typeid"
)

// UserArray is a user defined container exposing a pointer to its first
// element and an element count. Expressions use $this for the container.
type UserArray struct {
	pointer  string
	size     string
	elemType string
}

var _ loader.Contiguous = (*UserArray)(nil)

// NewUserArrayCreator returns a creator for instances of the type id whose
// elements start at the pointer expression and number size.
func NewUserArrayCreator(id, pointer, size string) loader.Creator {
	return loader.NewCreator("user:"+id, geometry.KindContainer, func(env *loader.Env, t loader.Target) (loader.Loader, error) {
		if !t.ID.Is(id) {
			return nil, nil
		}
		elem, err := pointee(env, Expand(pointer, t.Name))
		if err != nil {
			return nil, err
		}
		return &UserArray{pointer: pointer, size: size, elemType: elem}, nil
	})
}

func (a *UserArray) Kind() geometry.Kind { return geometry.KindContainer }

func (a *UserArray) element(name string, i int) string {
	return fmt.Sprintf("(%s)[%d]", Expand(a.pointer, name), i)
}

func (a *UserArray) ElementInfo(env *loader.Env, name string) (string, string, error) {
	return a.element(name, 0), a.elemType, nil
}

func (a *UserArray) LoadSize(env *loader.Env, name string) (int, error) {
	n, err := env.EvalInt(Expand(a.size, name))
	if err != nil {
		return 0, err
	}
	return checkSize(n)
}

// MemorySize is unavailable: a user size expression has no known layout.
func (a *UserArray) MemorySize(env *loader.Env, name string) (int, error) {
	return 0, loader.Unavailablef("user defined size")
}

func (a *UserArray) ForEachElement(env *loader.Env, name string, fn func(string) error) error {
	n, err := a.LoadSize(env, name)
	if err != nil {
		return err
	}
	return forEachIndexed(n, func(i int) string { return a.element(name, i) }, fn)
}

func (a *UserArray) FirstAddress(env *loader.Env, name string) (uint64, error) {
	return env.EvalPointer(Expand(a.pointer, name))
}

func (a *UserArray) MemoryRegions(env *loader.Env, name string, fn func(uint64, int) error) error {
	return singleRegion(env, a, name, fn)
}

const maxListNodes = 1 << 24

// UserLinkedList is a user defined singly linked list: a head pointer
// expression, and next and value members of each node.
type UserLinkedList struct {
	head     string
	next     string
	value    string
	size     string
	node     string
	elemType string
	nextOff  int64
	valueOff int64
}

var _ loader.Container = (*UserLinkedList)(nil)

// NewUserLinkedListCreator returns a creator for instances of the type id.
// size may be empty, in which case the list ends at a null next pointer.
func NewUserLinkedListCreator(id, head, next, value, size string) loader.Creator {
	return loader.NewCreator("user:"+id, geometry.KindContainer, func(env *loader.Env, t loader.Target) (loader.Loader, error) {
		if !t.ID.Is(id) {
			return nil, nil
		}
		headExpr := Expand(head, t.Name)
		nodeType, err := pointee(env, headExpr)
		if err != nil {
			return nil, err
		}
		l := &UserLinkedList{head: head, next: next, value: value, size: size, node: nodeType}
		// Offsets and types only, the node is never read.
		node := "(*" + castNode(nodeType, 0) + ")"
		l.nextOff = env.Offset(node, node+"."+next)
		l.valueOff = env.Offset(node, node+"."+value)
		elem, err := env.TypeOf(node + "." + value)
		if err != nil {
			return nil, err
		}
		l.elemType = typeid.Normalize(elem)
		return l, nil
	})
}

func (l *UserLinkedList) Kind() geometry.Kind { return geometry.KindContainer }

func (l *UserLinkedList) ElementInfo(env *loader.Env, name string) (string, string, error) {
	return fmt.Sprintf("(%s)->%s", Expand(l.head, name), l.value), l.elemType, nil
}

func (l *UserLinkedList) LoadSize(env *loader.Env, name string) (int, error) {
	if l.size != "" {
		n, err := env.EvalInt(Expand(l.size, name))
		if err != nil {
			return 0, err
		}
		return checkSize(n)
	}
	n := 0
	err := l.walkParsed(env, name, -1, func(uint64) error {
		n++
		return nil
	})
	return n, err
}

func (l *UserLinkedList) MemorySize(env *loader.Env, name string) (int, error) {
	return 0, loader.Unavailablef("user defined size")
}

// walkParsed follows next pointers by evaluation, for at most limit nodes
// when limit is not negative.
func (l *UserLinkedList) walkParsed(env *loader.Env, name string, limit int, fn func(uint64) error) error {
	addr, err := env.EvalPointer(Expand(l.head, name))
	if err != nil {
		return err
	}
	for i := 0; addr != 0 && (limit < 0 || i < limit); i++ {
		if i >= maxListNodes {
			return loader.Failf("linked list longer than %d nodes", maxListNodes)
		}
		if err := env.Check(); err != nil {
			return err
		}
		if err := fn(addr); err != nil {
			return err
		}
		if addr, err = env.EvalPointer(castNode(l.node, addr) + "->" + l.next); err != nil {
			return err
		}
	}
	return nil
}

func (l *UserLinkedList) ForEachElement(env *loader.Env, name string, fn func(string) error) error {
	n, err := l.LoadSize(env, name)
	if err != nil {
		return err
	}
	visited := 0
	err = l.walkParsed(env, name, n, func(addr uint64) error {
		visited++
		return fn(castNode(l.node, addr) + "->" + l.value)
	})
	if err != nil {
		return err
	}
	if visited != n {
		return loader.Failf("linked list holds %d nodes, expected %d", visited, n)
	}
	return nil
}

// MemoryRegions reads the head pointer by evaluation and chases next
// pointers in memory. Without a size expression the list ends at a null
// next pointer.
func (l *UserLinkedList) MemoryRegions(env *loader.Env, name string, fn func(uint64, int) error) error {
	if l.nextOff < 0 || l.valueOff < 0 {
		return loader.Unavailablef("linked list node layout unknown")
	}
	n := -1
	if l.size != "" {
		var err error
		if n, err = l.LoadSize(env, name); err != nil {
			return err
		}
	}
	addr, err := env.EvalPointer(Expand(l.head, name))
	if err != nil {
		return err
	}
	for i := 0; n < 0 || i < n; i++ {
		if addr == 0 {
			if n < 0 {
				return nil
			}
			return loader.Unavailablef("linked list shorter than its size %d", n)
		}
		if i >= maxListNodes {
			return loader.Unavailablef("linked list longer than %d nodes", maxListNodes)
		}
		if err := fn(addr+uint64(l.valueOff), 1); err != nil {
			return err
		}
		if addr, err = env.ReadPointer(addr + uint64(l.nextOff)); err != nil {
			return err
		}
	}
	return nil
}
