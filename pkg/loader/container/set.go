package container

import (
	"github.com/coral-mesh/geoinspect/pkg/geometry"
	"github.com/coral-mesh/geoinspect/pkg/loader"
)

const setVal = "._Mypair._Myval2._Myval2"

// Set is std::set or std::multiset: a red-black tree whose head node holds
// the root in _Parent. Nil leaves are nodes with _Isnil set.
type Set struct {
	node     string
	elemType string
	head     field
	size     field
	left     int64
	parent   int64
	right    int64
	isNil    int64
	val      int64
}

var _ loader.Container = (*Set)(nil)

func createSet(env *loader.Env, t loader.Target) (loader.Loader, error) {
	if !t.ID.IsAny("std::set", "std::multiset") {
		return nil, nil
	}
	node, err := pointee(env, t.Name+setVal+"._Myhead")
	if err != nil {
		return nil, err
	}
	head := "(*" + t.Name + setVal + "._Myhead)"
	elem, err := env.TypeOf(head + "._Myval")
	if err != nil {
		return nil, err
	}
	return &Set{
		node:     node,
		elemType: elem,
		head:     fieldOf(env, t.Name, setVal+"._Myhead"),
		size:     fieldOf(env, t.Name, setVal+"._Mysize"),
		left:     env.Offset(head, head+"._Left"),
		parent:   env.Offset(head, head+"._Parent"),
		right:    env.Offset(head, head+"._Right"),
		isNil:    env.Offset(head, head+"._Isnil"),
		val:      env.Offset(head, head+"._Myval"),
	}, nil
}

func (s *Set) Kind() geometry.Kind { return geometry.KindContainer }

func (s *Set) ElementInfo(env *loader.Env, name string) (string, string, error) {
	return name + setVal + "._Myhead->_Parent->_Myval", s.elemType, nil
}

func (s *Set) LoadSize(env *loader.Env, name string) (int, error) {
	n, err := env.EvalInt(name + setVal + "._Mysize")
	if err != nil {
		return 0, err
	}
	return checkSize(n)
}

func (s *Set) MemorySize(env *loader.Env, name string) (int, error) {
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

// treeWalk visits the nodes of a tree in order. Reading a node is left to
// the path in use.
type treeWalk struct {
	maxDepth int
	visited  int
	isNil    func(addr uint64) (bool, error)
	children func(addr uint64) (left, right uint64, err error)
	visit    func(addr uint64) error
}

func (w *treeWalk) walk(addr uint64, depth int) error {
	if depth > w.maxDepth {
		return loader.Failf("tree deeper than %d", w.maxDepth)
	}
	if addr == 0 {
		return loader.Failf("null tree node")
	}
	isNil, err := w.isNil(addr)
	if err != nil || isNil {
		return err
	}
	left, right, err := w.children(addr)
	if err != nil {
		return err
	}
	if err := w.walk(left, depth+1); err != nil {
		return err
	}
	w.visited++
	if err := w.visit(addr); err != nil {
		return err
	}
	return w.walk(right, depth+1)
}

func (s *Set) maxDepth(env *loader.Env) int {
	if env.Options.MaxDepth > 0 {
		return env.Options.MaxDepth
	}
	return loader.DefaultOptions().MaxDepth
}

func (s *Set) ForEachElement(env *loader.Env, name string, fn func(string) error) error {
	n, err := s.LoadSize(env, name)
	if err != nil || n == 0 {
		return err
	}
	root, err := env.EvalPointer(name + setVal + "._Myhead->_Parent")
	if err != nil {
		return err
	}
	w := &treeWalk{
		maxDepth: s.maxDepth(env),
		isNil: func(addr uint64) (bool, error) {
			v, err := env.EvalInt(castNode(s.node, addr) + "->_Isnil")
			return v != 0, err
		},
		children: func(addr uint64) (uint64, uint64, error) {
			node := castNode(s.node, addr)
			left, err := env.EvalPointer(node + "->_Left")
			if err != nil {
				return 0, 0, err
			}
			right, err := env.EvalPointer(node + "->_Right")
			return left, right, err
		},
		visit: func(addr uint64) error {
			return fn(castNode(s.node, addr) + "->_Myval")
		},
	}
	if err := w.walk(root, 0); err != nil {
		return err
	}
	if w.visited != n {
		return loader.Failf("set holds %d nodes, expected %d", w.visited, n)
	}
	return nil
}

// MemoryRegions yields each node's value by in-order traversal.
func (s *Set) MemoryRegions(env *loader.Env, name string, fn func(uint64, int) error) error {
	for _, off := range []int64{s.left, s.parent, s.right, s.isNil, s.val} {
		if off < 0 {
			return loader.Unavailablef("set node layout unknown")
		}
	}
	base, err := env.Address(name)
	if err != nil {
		return err
	}
	head, err := s.head.read(env, base)
	if err != nil {
		return err
	}
	size, err := s.size.read(env, base)
	if err != nil || size == 0 {
		return err
	}
	root, err := env.ReadPointer(head + uint64(s.parent))
	if err != nil {
		return err
	}
	w := &treeWalk{
		maxDepth: s.maxDepth(env),
		isNil: func(addr uint64) (bool, error) {
			v, err := env.ReadUint(addr+uint64(s.isNil), 1)
			return v != 0, err
		},
		children: func(addr uint64) (uint64, uint64, error) {
			left, err := env.ReadPointer(addr + uint64(s.left))
			if err != nil {
				return 0, 0, err
			}
			right, err := env.ReadPointer(addr + uint64(s.right))
			return left, right, err
		},
		visit: func(addr uint64) error {
			return fn(addr+uint64(s.val), 1)
		},
	}
	if err := w.walk(root, 0); err != nil {
		return err
	}
	if uint64(w.visited) != size {
		return loader.Unavailablef("set holds %d nodes, expected %d", w.visited, size)
	}
	return nil
}
