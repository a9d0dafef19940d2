// Package debugger defines the primitives consumed from the host debugger:
// expression evaluation, size and offset queries, and raw memory reads.
//
// Memory reads are an optional capability. A Debugger that does not also
// implement MemoryReader degrades every loader to expression evaluation.
package debugger

import (
	"strconv"
	"strings"
)

// Expression is the result of evaluating an expression in the debuggee.
type Expression struct {
	// Valid is false when the debugger could not evaluate the expression.
	Valid bool
	// Type is the type string the debugger reports for the value. It may be
	// set on an invalid expression whose value could not be read.
	Type string
	// Value is the debugger's textual rendering of the value.
	Value string
}

// Debugger evaluates expressions against a stopped debuggee.
type Debugger interface {
	// Evaluate evaluates expr in the current frame.
	Evaluate(expr string) Expression
	// SizeOf returns sizeof(typ) in bytes.
	SizeOf(typ string) (int, bool)
	// AddressOffset returns &member - &base in bytes.
	AddressOffset(base, member string) (int64, bool)
	// ValueAddress returns the address of the object denoted by expr.
	ValueAddress(expr string) (uint64, bool)
}

// MemoryReader reads raw bytes from the debuggee.
type MemoryReader interface {
	// ReadMemory fills buf with len(buf) bytes starting at addr.
	ReadMemory(addr uint64, buf []byte) error
}

// Memory returns d's MemoryReader capability if it has one.
func Memory(d Debugger) (MemoryReader, bool) {
	if d == nil {
		return nil, false
	}
	r, ok := d.(MemoryReader)
	return r, ok
}

// ParsedOnly hides the MemoryReader capability of a debugger.
func ParsedOnly(d Debugger) Debugger {
	return parsedOnly{d}
}

type parsedOnly struct{ d Debugger }

func (p parsedOnly) Evaluate(expr string) Expression            { return p.d.Evaluate(expr) }
func (p parsedOnly) SizeOf(typ string) (int, bool)              { return p.d.SizeOf(typ) }
func (p parsedOnly) AddressOffset(base, m string) (int64, bool) { return p.d.AddressOffset(base, m) }
func (p parsedOnly) ValueAddress(expr string) (uint64, bool)    { return p.d.ValueAddress(expr) }

// ParseInt parses the leading integer of a debugger value rendering, such
// as "42", "-3", "0x2a" or "65 'A'".
func ParseInt(value string) (int64, bool) {
	tok := firstToken(value)
	if tok == "" {
		return 0, false
	}
	if tok == "true" {
		return 1, true
	}
	if tok == "false" {
		return 0, true
	}
	n, err := strconv.ParseInt(tok, 0, 64)
	if err == nil {
		return n, true
	}
	u, err := strconv.ParseUint(tok, 0, 64)
	if err == nil {
		return int64(u), true
	}
	return 0, false
}

// ParseAddress parses a pointer rendering such as "0x0000012a4f3c0010" or
// "0x0000012a4f3c0010 {x=1.0 y=2.0}".
func ParseAddress(value string) (uint64, bool) {
	tok := firstToken(value)
	if !strings.HasPrefix(tok, "0x") && !strings.HasPrefix(tok, "0X") {
		return 0, false
	}
	u, err := strconv.ParseUint(tok[2:], 16, 64)
	if err != nil {
		return 0, false
	}
	return u, true
}

// ParseFloat parses the leading number of a debugger value rendering.
func ParseFloat(value string) (float64, bool) {
	tok := firstToken(value)
	if tok == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f, true
	}
	if n, ok := ParseInt(tok); ok {
		return float64(n), true
	}
	return 0, false
}

func firstToken(value string) string {
	value = strings.TrimSpace(value)
	if i := strings.IndexAny(value, " \t{"); i >= 0 {
		value = value[:i]
	}
	return value
}
