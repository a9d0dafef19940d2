package container

import (
	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
)

const listVal = "._Mypair._Myval2"

// List is std::list: a circular doubly linked list through a sentinel head
// node.
type List struct {
	node     string
	elemType string
	head     field
	size     field
	next     int64
	val      int64
}

var _ loader.Container = (*List)(nil)

func createList(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.Is("std::list") {
		return nil, nil
	}
	node, err := pointee(env, t.Name+listVal+"._Myhead")
	if err != nil {
		return nil, err
	}
	head := "(*" + t.Name + listVal + "._Myhead)"
	elem, err := env.TypeOf(head + "._Myval")
	if err != nil {
		return nil, err
	}
	return &List{
		node:     node,
		elemType: elem,
		head:     fieldOf(env, t.Name, listVal+"._Myhead"),
		size:     fieldOf(env, t.Name, listVal+"._Mysize"),
		next:     env.Offset(head, head+"._Next"),
		val:      env.Offset(head, head+"._Myval"),
	}, nil
}

func (l *List) Kind() geometry.Kind { return geometry.KindContainer }

func (l *List) ElementInfo(env *loader.Env, name string) (string, string, error) {
	return name + listVal + "._Myhead->_Next->_Myval", l.elemType, nil
}

func (l *List) LoadSize(env *loader.Env, name string) (int, error) {
	n, err := env.EvalInt(name + listVal + "._Mysize")
	if err != nil {
		return 0, err
	}
	return checkSize(n)
}

func (l *List) MemorySize(env *loader.Env, name string) (int, error) {
	base, err := env.Address(name)
	if err != nil {
		return 0, err
	}
	n, err := l.size.read(env, base)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (l *List) ForEachElement(env *loader.Env, name string, fn func(string) error) error {
	n, err := l.LoadSize(env, name)
	if err != nil || n == 0 {
		return err
	}
	addr, err := env.EvalPointer(name + listVal + "._Myhead->_Next")
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		node := castNode(l.node, addr)
		if err := fn(node + "->_Myval"); err != nil {
			return err
		}
		if i+1 < n {
			if addr, err = env.EvalPointer(node + "->_Next"); err != nil {
				return err
			}
		}
	}
	return nil
}

// MemoryRegions yields each node's value in turn.
func (l *List) MemoryRegions(env *loader.Env, name string, fn func(uint64, int) error) error {
	if l.next < 0 || l.val < 0 {
		return loader.Unavailablef("list node layout unknown")
	}
	base, err := env.Address(name)
	if err != nil {
		return err
	}
	head, err := l.head.read(env, base)
	if err != nil {
		return err
	}
	size, err := l.size.read(env, base)
	if err != nil {
		return err
	}
	addr, err := env.ReadPointer(head + uint64(l.next))
	if err != nil {
		return err
	}
	for i := uint64(0); i < size; i++ {
		if addr == 0 || addr == head {
			return loader.Unavailablef("list shorter than its size %d", size)
		}
		if err := fn(addr+uint64(l.val), 1); err != nil {
			return err
		}
		if addr, err = env.ReadPointer(addr + uint64(l.next)); err != nil {
			return err
		}
	}
	return nil
}
