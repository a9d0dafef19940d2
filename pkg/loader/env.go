package loader

import (
	"encoding/binary"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/coral-mesh/geoinspect/pkg/debugger"
)

// Options tune extraction.
type Options struct {
	// MemoryPath enables raw memory reads when the debugger supports them.
	MemoryPath bool
	// MaxDepth bounds the recursion into tree nodes.
	MaxDepth int
	// DequeBlockSize overrides the number of elements per deque block. Zero
	// derives it from the element size.
	DequeBlockSize int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{MemoryPath: true, MaxDepth: 64}
}

// Env is what loaders need to talk to the debuggee during one load.
type Env struct {
	Debugger debugger.Debugger
	// Memory is nil when the debugger cannot read raw memory.
	Memory   debugger.MemoryReader
	Registry *Registry
	Token    *Token
	Options  Options
	Log      zerolog.Logger

	pointerSize int
}

// NewEnv returns an environment for d. Raw memory reads are used when d
// implements debugger.MemoryReader and opts enable them.
func NewEnv(d debugger.Debugger, r *Registry, opts Options, log zerolog.Logger) *Env {
	e := &Env{
		Debugger:    d,
		Registry:    r,
		Options:     opts,
		Log:         log,
		pointerSize: 8,
	}
	if m, ok := debugger.Memory(d); ok && opts.MemoryPath {
		e.Memory = m
	}
	if n, ok := d.SizeOf("void*"); ok && (n == 4 || n == 8) {
		e.pointerSize = n
	}
	return e
}

// WithToken returns a copy of e checking t.
func (e *Env) WithToken(t *Token) *Env {
	c := *e
	c.Token = t
	return &c
}

// Check returns ErrTimedOut once the load must stop.
func (e *Env) Check() error {
	return e.Token.Check()
}

// MemoryEnabled reports whether raw memory reads are possible.
func (e *Env) MemoryEnabled() bool {
	return e.Memory != nil
}

// PointerSize is the size of a debuggee pointer.
func (e *Env) PointerSize() int {
	return e.pointerSize
}

// Find resolves a loader through the registry.
func (e *Env) Find(kinds KindSet, name, typ string) (Loader, error) {
	if e.Registry == nil {
		return nil, fmt.Errorf("%w: no registry", ErrNotFound)
	}
	return e.Registry.Find(e, kinds, name, typ)
}

// Eval evaluates expr and fails when the debugger reports it invalid.
func (e *Env) Eval(expr string) (debugger.Expression, error) {
	v := e.Debugger.Evaluate(expr)
	if !v.Valid {
		return v, Failf("cannot evaluate %q", expr)
	}
	return v, nil
}

// EvalInt evaluates an integral expression.
func (e *Env) EvalInt(expr string) (int64, error) {
	v, err := e.Eval(expr)
	if err != nil {
		return 0, err
	}
	n, ok := debugger.ParseInt(v.Value)
	if !ok {
		return 0, Failf("%q is not an integer: %s", expr, v.Value)
	}
	return n, nil
}

// EvalFloat evaluates an arithmetic expression.
func (e *Env) EvalFloat(expr string) (float64, error) {
	v, err := e.Eval(expr)
	if err != nil {
		return 0, err
	}
	f, ok := debugger.ParseFloat(v.Value)
	if !ok {
		return 0, Failf("%q is not a number: %s", expr, v.Value)
	}
	return f, nil
}

// EvalPointer evaluates a pointer expression to the address it holds.
func (e *Env) EvalPointer(expr string) (uint64, error) {
	v, err := e.Eval(expr)
	if err != nil {
		return 0, err
	}
	a, ok := debugger.ParseAddress(v.Value)
	if !ok {
		return 0, Failf("%q is not a pointer: %s", expr, v.Value)
	}
	return a, nil
}

// TypeOf returns the type of expr as reported by the debugger. The value
// itself does not need to be readable.
func (e *Env) TypeOf(expr string) (string, error) {
	v := e.Debugger.Evaluate(expr)
	if v.Type == "" {
		return "", Failf("cannot evaluate the type of %q", expr)
	}
	return v.Type, nil
}

// SizeOf returns the size of typ, or -1 when unknown.
func (e *Env) SizeOf(typ string) int {
	if n, ok := e.Debugger.SizeOf(typ); ok && n > 0 {
		return n
	}
	return -1
}

// Offset returns the byte offset of member relative to base, or -1 when
// unknown.
func (e *Env) Offset(base, member string) int64 {
	if off, ok := e.Debugger.AddressOffset(base, member); ok && off >= 0 {
		return off
	}
	return -1
}

// Address returns the address of the object named by expr.
func (e *Env) Address(expr string) (uint64, error) {
	a, ok := e.Debugger.ValueAddress(expr)
	if !ok || a == 0 {
		return 0, Unavailablef("no address for %q", expr)
	}
	return a, nil
}

// Read reads n bytes at addr.
func (e *Env) Read(addr uint64, n int) ([]byte, error) {
	if e.Memory == nil {
		return nil, ErrMemoryUnavailable
	}
	if addr == 0 || n < 0 {
		return nil, Unavailablef("invalid read of %d bytes at 0x%x", n, addr)
	}
	buf := make([]byte, n)
	if err := e.Memory.ReadMemory(addr, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMemoryUnavailable, err)
	}
	return buf, nil
}

// ReadUint reads a little-endian unsigned integer of size bytes.
func (e *Env) ReadUint(addr uint64, size int) (uint64, error) {
	buf, err := e.Read(addr, size)
	if err != nil {
		return 0, err
	}
	switch size {
	case 1:
		return uint64(buf[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(buf)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(buf)), nil
	case 8:
		return binary.LittleEndian.Uint64(buf), nil
	}
	return 0, Unavailablef("unsupported integer size %d", size)
}

// ReadPointer reads a pointer stored at addr.
func (e *Env) ReadPointer(addr uint64) (uint64, error) {
	return e.ReadUint(addr, e.pointerSize)
}
