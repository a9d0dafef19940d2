// Package sim is an in-process simulated debuggee.
//
// A Process owns a little-endian memory arena, a table of C++ types with real
// layouts (offsets, sizes, alignment) and a set of named variables. It
// implements debugger.Debugger and debugger.MemoryReader: expressions are
// parsed and evaluated against the arena, and raw reads return the very same
// bytes, so expression-driven and memory-driven extraction can be compared
// on one instance.
//
// Supported expression grammar:
//
//	expr    := unary (('+' | '-') unary)*
//	unary   := '*' unary | '&' unary | '-' unary | '(' type ')' unary | postfix
//	postfix := primary ('.' ident | '->' ident | '[' expr ']')*
//	primary := ident | number | '(' expr ')'
//
// Builders in stl.go and boost.go lay out values the way the MSVC standard
// library and Boost do, and snapshot.go reads a YAML description of a
// debuggee.
package sim
