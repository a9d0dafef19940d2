// Package typeid extracts qualified names and template arguments from the
// type strings a debugger reports for a value.
//
// Debuggers format the same declared type slightly differently depending on
// compiler and version (spacing around template brackets, leading class/struct
// keywords, trailing references). Parse normalizes these differences so that
// loader creators can match on a stable identifier.
package typeid

import (
	"strconv"
	"strings"
)

// ID is a normalized type identifier.
type ID struct {
	// Name is the qualified name without template arguments, e.g. "std::vector".
	Name string
	// Args are the top-level template arguments in declaration order.
	Args []string
	// Suffix holds anything following the template argument list, such as
	// an array extent "[4]" or a pointer declarator "*".
	Suffix string
}

// Is reports whether the identifier names exactly the given qualified type,
// excluding pointers and arrays of it.
func (id ID) Is(name string) bool {
	return id.Suffix == "" && id.Name == name
}

// IsAny reports whether the identifier matches one of the names.
func (id ID) IsAny(names ...string) bool {
	for _, n := range names {
		if id.Is(n) {
			return true
		}
	}
	return false
}

// Arg returns the template argument at index i. Debuggers may omit default
// arguments, so callers must handle a missing index.
func (id ID) Arg(i int) (string, bool) {
	if i < 0 || i >= len(id.Args) {
		return "", false
	}
	return id.Args[i], true
}

// String renders the identifier in normalized form.
func (id ID) String() string {
	var b strings.Builder
	b.WriteString(id.Name)
	if len(id.Args) > 0 {
		b.WriteByte('<')
		b.WriteString(strings.Join(id.Args, ","))
		b.WriteByte('>')
	}
	b.WriteString(id.Suffix)
	return b.String()
}

// Parse splits a raw type string into its identifier parts.
func Parse(raw string) ID {
	s := Normalize(raw)

	open := strings.IndexByte(s, '<')
	if open < 0 {
		name, suffix := splitSuffix(s)
		return ID{Name: name, Suffix: suffix}
	}

	end := matchingClose(s, open)
	if end < 0 {
		// Unbalanced, keep the whole string as the name.
		return ID{Name: s}
	}

	args := SplitArgs(s[open+1 : end])
	return ID{
		Name:   s[:open],
		Args:   args,
		Suffix: s[end+1:],
	}
}

// Name is shorthand for Parse(raw).Name.
func Name(raw string) string {
	return Parse(raw).Name
}

// Normalize strips qualifiers and canonicalizes whitespace.
func Normalize(raw string) string {
	s := collapseSpaces(raw)
	for {
		trimmed := s
		for _, p := range []string{"const ", "volatile ", "class ", "struct ", "enum ", "union "} {
			trimmed = strings.TrimPrefix(trimmed, p)
		}
		for _, q := range []string{"&&", "&", "const", "volatile"} {
			if strings.HasSuffix(trimmed, q) && (q != "const" && q != "volatile" || endsWithWord(trimmed, q)) {
				trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, q))
			}
		}
		if trimmed == s {
			break
		}
		s = trimmed
	}
	return tightenPunctuation(s)
}

// SplitArgs splits a comma-separated template argument list at depth zero.
// Commas nested inside <>, () or [] are not split on.
func SplitArgs(list string) []string {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil
	}

	var (
		args  []string
		depth int
		start int
	)
	for i := 0; i < len(list); i++ {
		switch list[i] {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, normalizeArg(list[start:i]))
				start = i + 1
			}
		}
	}
	return append(args, normalizeArg(list[start:]))
}

// ArrayInfo reports the element type and extent of a C array type such as
// "double[4]". For multi-dimensional arrays only the outermost extent is
// split off: "T[2][3]" is an array of 2 "T[3]".
func ArrayInfo(raw string) (elem string, n int, ok bool) {
	s := Normalize(raw)
	if !strings.HasSuffix(s, "]") {
		return "", 0, false
	}

	open := -1
	depth := 0
	for i := 0; i < len(s) && open < 0; i++ {
		switch s[i] {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case '[':
			if depth == 0 {
				open = i
			}
		}
	}
	if open <= 0 {
		return "", 0, false
	}
	closing := strings.IndexByte(s[open:], ']') + open
	n, err := strconv.Atoi(s[open+1 : closing])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return s[:open] + s[closing+1:], n, true
}

// PointerElem reports the pointee type of a pointer type string.
func PointerElem(raw string) (string, bool) {
	s := Normalize(raw)
	if !strings.HasSuffix(s, "*") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimSuffix(s, "*")), true
}

// Equal reports whether two raw type strings denote the same type once
// normalized.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

func normalizeArg(s string) string {
	return Normalize(strings.TrimSpace(s))
}

func splitSuffix(s string) (string, string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '[' || s[i] == '*' {
			return strings.TrimSpace(s[:i]), s[i:]
		}
	}
	return s, ""
}

func matchingClose(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func endsWithWord(s, w string) bool {
	if !strings.HasSuffix(s, w) {
		return false
	}
	if len(s) == len(w) {
		return true
	}
	c := s[len(s)-len(w)-1]
	return c == ' ' || c == '>' || c == '*' || c == '&'
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// tightenPunctuation removes spaces adjacent to punctuation while keeping
// the spaces that separate keywords such as "unsigned int".
func tightenPunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' {
			prev := byte(0)
			if b.Len() > 0 {
				prev = b.String()[b.Len()-1]
			}
			next := byte(0)
			if i+1 < len(s) {
				next = s[i+1]
			}
			if isPunct(prev) || isPunct(next) {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isPunct(c byte) bool {
	switch c {
	case '<', '>', ',', ':', '*', '&', '[', ']', '(', ')':
		return true
	}
	return false
}
