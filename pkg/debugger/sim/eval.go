package sim

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/coral-mesh/geoinspect/pkg/converter"
)

var errSyntax = errors.New("syntax error")

type value struct {
	t       *Type
	lvalue  bool
	addr    uint64
	f       float64
	u       uint64
	isFloat bool
}

func (p *Process) eval(expr string) (value, error) {
	ps := &parser{p: p, s: expr}
	v, err := ps.parseExpr()
	if err != nil {
		return value{}, err
	}
	ps.skip()
	if ps.pos != len(ps.s) {
		return value{}, fmt.Errorf("%w: trailing input %q", errSyntax, ps.s[ps.pos:])
	}
	return v, nil
}

type parser struct {
	p   *Process
	s   string
	pos int
}

func (ps *parser) skip() {
	for ps.pos < len(ps.s) && (ps.s[ps.pos] == ' ' || ps.s[ps.pos] == '\t') {
		ps.pos++
	}
}

func (ps *parser) peek() byte {
	ps.skip()
	if ps.pos >= len(ps.s) {
		return 0
	}
	return ps.s[ps.pos]
}

func (ps *parser) peekAt(off int) byte {
	if ps.pos+off >= len(ps.s) {
		return 0
	}
	return ps.s[ps.pos+off]
}

func (ps *parser) parseExpr() (value, error) {
	left, err := ps.parseUnary()
	if err != nil {
		return value{}, err
	}
	for {
		switch c := ps.peek(); {
		case c == '+':
			ps.pos++
			right, err := ps.parseUnary()
			if err != nil {
				return value{}, err
			}
			if left, err = ps.p.add(left, right); err != nil {
				return value{}, err
			}
		case c == '-' && ps.peekAt(1) != '>':
			ps.pos++
			right, err := ps.parseUnary()
			if err != nil {
				return value{}, err
			}
			if left, err = ps.p.sub(left, right); err != nil {
				return value{}, err
			}
		default:
			return left, nil
		}
	}
}

func (ps *parser) parseUnary() (value, error) {
	switch ps.peek() {
	case '*':
		ps.pos++
		v, err := ps.parseUnary()
		if err != nil {
			return value{}, err
		}
		return ps.p.deref(v)
	case '&':
		ps.pos++
		v, err := ps.parseUnary()
		if err != nil {
			return value{}, err
		}
		return ps.p.addrOf(v)
	case '-':
		ps.pos++
		v, err := ps.parseUnary()
		if err != nil {
			return value{}, err
		}
		return ps.p.negate(v)
	case '(':
		if t, end, ok := ps.castType(); ok {
			ps.pos = end
			v, err := ps.parseUnary()
			if err != nil {
				return value{}, err
			}
			return ps.p.cast(t, v)
		}
	}
	return ps.parsePostfix()
}

// castType checks whether the parenthesized text at the cursor names a type.
func (ps *parser) castType() (*Type, int, bool) {
	depth := 0
	for i := ps.pos; i < len(ps.s); i++ {
		switch ps.s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				inner := strings.TrimSpace(ps.s[ps.pos+1 : i])
				if inner == "" || strings.ContainsAny(inner, "().-+[") && !strings.Contains(inner, "<") {
					return nil, 0, false
				}
				t, ok := ps.p.Type(inner)
				if !ok {
					return nil, 0, false
				}
				return t, i + 1, true
			}
		}
	}
	return nil, 0, false
}

func (ps *parser) parsePostfix() (value, error) {
	v, err := ps.parsePrimary()
	if err != nil {
		return value{}, err
	}
	for {
		switch c := ps.peek(); {
		case c == '.':
			ps.pos++
			name := ps.ident()
			if name == "" {
				return value{}, fmt.Errorf("%w: member name expected", errSyntax)
			}
			if v, err = ps.p.member(v, name); err != nil {
				return value{}, err
			}
		case c == '-' && ps.peekAt(1) == '>':
			ps.pos += 2
			ps.skip()
			name := ps.ident()
			if name == "" {
				return value{}, fmt.Errorf("%w: member name expected", errSyntax)
			}
			if v, err = ps.p.deref(v); err != nil {
				return value{}, err
			}
			if v, err = ps.p.member(v, name); err != nil {
				return value{}, err
			}
		case c == '[':
			ps.pos++
			idx, err := ps.parseExpr()
			if err != nil {
				return value{}, err
			}
			if ps.peek() != ']' {
				return value{}, fmt.Errorf("%w: ']' expected", errSyntax)
			}
			ps.pos++
			if v, err = ps.p.index(v, idx); err != nil {
				return value{}, err
			}
		default:
			return v, nil
		}
	}
}

func (ps *parser) parsePrimary() (value, error) {
	c := ps.peek()
	switch {
	case c == '(':
		ps.pos++
		v, err := ps.parseExpr()
		if err != nil {
			return value{}, err
		}
		if ps.peek() != ')' {
			return value{}, fmt.Errorf("%w: ')' expected", errSyntax)
		}
		ps.pos++
		return v, nil
	case c >= '0' && c <= '9':
		return ps.number()
	case isIdentStart(c):
		name := ps.ident()
		v, ok := ps.p.vars[name]
		if !ok {
			return value{}, fmt.Errorf("identifier %q not found", name)
		}
		return value{t: v.Type, lvalue: true, addr: v.Addr}, nil
	case c == 0:
		return value{}, fmt.Errorf("%w: unexpected end of expression", errSyntax)
	}
	return value{}, fmt.Errorf("%w: unexpected %q", errSyntax, c)
}

func (ps *parser) ident() string {
	start := ps.pos
	for ps.pos < len(ps.s) && (isIdentStart(ps.s[ps.pos]) || ps.s[ps.pos] >= '0' && ps.s[ps.pos] <= '9') {
		ps.pos++
	}
	return ps.s[start:ps.pos]
}

func (ps *parser) number() (value, error) {
	start := ps.pos
	for ps.pos < len(ps.s) {
		c := ps.s[ps.pos]
		if c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F' || c == 'x' || c == 'X' || c == '.' {
			ps.pos++
			continue
		}
		break
	}
	lit := ps.s[start:ps.pos]
	if strings.Contains(lit, ".") && !strings.HasPrefix(lit, "0x") {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return value{}, fmt.Errorf("%w: bad number %q", errSyntax, lit)
		}
		return value{t: ps.p.types["double"], f: f, isFloat: true}, nil
	}
	u, err := strconv.ParseUint(lit, 0, 64)
	if err != nil {
		return value{}, fmt.Errorf("%w: bad number %q", errSyntax, lit)
	}
	t := ps.p.types["int"]
	if u > 0x7fffffff {
		t = ps.p.types["unsigned __int64"]
	}
	return value{t: t, u: u}, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// load turns an lvalue scalar or pointer into an rvalue.
func (p *Process) load(v value) (value, error) {
	if !v.lvalue {
		return v, nil
	}
	switch v.t.Kind {
	case TypeScalar, TypePointer:
		f, u, ok := p.readScalar(v.addr, v.t.Scalar)
		if !ok {
			return value{}, fmt.Errorf("cannot read %s at 0x%x", v.t.Name, v.addr)
		}
		return value{t: v.t, f: f, u: u, isFloat: v.t.Scalar.Kind == converter.KindFloat}, nil
	}
	return v, nil
}

// pointer returns the pointee type and address of a pointer or array value.
func (p *Process) pointer(v value) (*Type, uint64, error) {
	if v.t.Kind == TypeArray && v.lvalue {
		return v.t.Elem, v.addr, nil
	}
	if v.t.Kind != TypePointer {
		return nil, 0, fmt.Errorf("%s is not a pointer", v.t.Name)
	}
	r, err := p.load(v)
	if err != nil {
		return nil, 0, err
	}
	return v.t.Elem, r.u, nil
}

func (p *Process) integer(v value) (int64, error) {
	if v.t.Kind != TypeScalar {
		return 0, fmt.Errorf("%s is not arithmetic", v.t.Name)
	}
	r, err := p.load(v)
	if err != nil {
		return 0, err
	}
	if r.isFloat {
		return int64(r.f), nil
	}
	return int64(r.u), nil
}

func (p *Process) deref(v value) (value, error) {
	elem, addr, err := p.pointer(v)
	if err != nil {
		return value{}, err
	}
	if elem.Kind == TypeVoid {
		return value{}, fmt.Errorf("cannot dereference void pointer")
	}
	return value{t: elem, lvalue: true, addr: addr}, nil
}

func (p *Process) addrOf(v value) (value, error) {
	if !v.lvalue {
		return value{}, fmt.Errorf("cannot take the address of an rvalue")
	}
	return value{t: p.PointerTo(v.t), u: v.addr}, nil
}

func (p *Process) member(v value, name string) (value, error) {
	if !v.lvalue || v.t.Kind != TypeStruct {
		return value{}, fmt.Errorf("%s has no members", v.t.Name)
	}
	f, ok := v.t.Field(name)
	if !ok {
		return value{}, fmt.Errorf("%s has no member %q", v.t.Name, name)
	}
	return value{t: f.Type, lvalue: true, addr: v.addr + uint64(f.Offset)}, nil
}

func (p *Process) index(v value, idx value) (value, error) {
	i, err := p.integer(idx)
	if err != nil {
		return value{}, err
	}
	elem, base, err := p.pointer(v)
	if err != nil {
		return value{}, err
	}
	addr := uint64(int64(base) + i*int64(elem.Size))
	return value{t: elem, lvalue: true, addr: addr}, nil
}

func (p *Process) negate(v value) (value, error) {
	r, err := p.load(v)
	if err != nil {
		return value{}, err
	}
	if r.t.Kind != TypeScalar {
		return value{}, fmt.Errorf("cannot negate %s", r.t.Name)
	}
	if r.isFloat {
		r.f = -r.f
	} else {
		r.u = uint64(-int64(r.u))
	}
	return r, nil
}

func (p *Process) cast(t *Type, v value) (value, error) {
	switch t.Kind {
	case TypePointer:
		var addr uint64
		switch {
		case v.t.Kind == TypePointer || v.t.Kind == TypeArray:
			_, a, err := p.pointer(v)
			if err != nil {
				return value{}, err
			}
			addr = a
		case v.t.Kind == TypeScalar:
			n, err := p.integer(v)
			if err != nil {
				return value{}, err
			}
			addr = uint64(n)
		default:
			return value{}, fmt.Errorf("cannot cast %s to %s", v.t.Name, t.Name)
		}
		return value{t: t, u: addr}, nil
	case TypeScalar:
		r, err := p.load(v)
		if err != nil {
			return value{}, err
		}
		if r.t.Kind != TypeScalar && r.t.Kind != TypePointer {
			return value{}, fmt.Errorf("cannot cast %s to %s", r.t.Name, t.Name)
		}
		out := value{t: t}
		if t.Scalar.Kind == converter.KindFloat {
			out.isFloat = true
			out.f = r.f
			if !r.isFloat {
				out.f = float64(int64(r.u))
			}
		} else {
			out.u = r.u
			if r.isFloat {
				out.u = uint64(int64(r.f))
			}
		}
		return out, nil
	}
	return value{}, fmt.Errorf("cannot cast to %s", t.Name)
}

func (p *Process) isPointerLike(v value) bool {
	return v.t.Kind == TypePointer || v.t.Kind == TypeArray && v.lvalue
}

func (p *Process) add(a, b value) (value, error) {
	if p.isPointerLike(b) && !p.isPointerLike(a) {
		a, b = b, a
	}
	if p.isPointerLike(a) {
		elem, base, err := p.pointer(a)
		if err != nil {
			return value{}, err
		}
		n, err := p.integer(b)
		if err != nil {
			return value{}, err
		}
		return value{t: p.PointerTo(elem), u: uint64(int64(base) + n*int64(elem.Size))}, nil
	}
	return p.arith(a, b, 1)
}

func (p *Process) sub(a, b value) (value, error) {
	if p.isPointerLike(a) {
		elem, base, err := p.pointer(a)
		if err != nil {
			return value{}, err
		}
		if p.isPointerLike(b) {
			_, other, err := p.pointer(b)
			if err != nil {
				return value{}, err
			}
			if elem.Size == 0 {
				return value{}, fmt.Errorf("pointer arithmetic on zero-sized type")
			}
			diff := (int64(base) - int64(other)) / int64(elem.Size)
			return value{t: p.types["__int64"], u: uint64(diff)}, nil
		}
		n, err := p.integer(b)
		if err != nil {
			return value{}, err
		}
		return value{t: p.PointerTo(elem), u: uint64(int64(base) - n*int64(elem.Size))}, nil
	}
	return p.arith(a, b, -1)
}

func (p *Process) arith(a, b value, sign int) (value, error) {
	ra, err := p.load(a)
	if err != nil {
		return value{}, err
	}
	rb, err := p.load(b)
	if err != nil {
		return value{}, err
	}
	if ra.t.Kind != TypeScalar || rb.t.Kind != TypeScalar {
		return value{}, fmt.Errorf("invalid operands %s and %s", ra.t.Name, rb.t.Name)
	}
	if ra.isFloat || rb.isFloat {
		fa, fb := ra.f, rb.f
		if !ra.isFloat {
			fa = float64(int64(ra.u))
		}
		if !rb.isFloat {
			fb = float64(int64(rb.u))
		}
		return value{t: p.types["double"], f: fa + float64(sign)*fb, isFloat: true}, nil
	}
	return value{t: p.types["__int64"], u: uint64(int64(ra.u) + int64(sign)*int64(rb.u))}, nil
}

func (p *Process) render(v value) (string, bool) {
	switch v.t.Kind {
	case TypeVoid:
		return "", false
	case TypeStruct, TypeArray:
		if _, ok := p.offset(v.addr, v.t.Size); v.lvalue && !ok {
			return "", false
		}
		return "{...}", true
	}

	r, err := p.load(v)
	if err != nil {
		return "", false
	}
	if v.t.Kind == TypePointer {
		return fmt.Sprintf("0x%016x", r.u), true
	}
	switch {
	case r.isFloat:
		return strconv.FormatFloat(r.f, 'g', -1, 64), true
	case v.t.Name == "bool":
		return strconv.FormatBool(r.u != 0), true
	case v.t.Name == "char" || v.t.Name == "unsigned char" || v.t.Name == "signed char":
		c := byte(r.u)
		if c >= 0x20 && c < 0x7f {
			return fmt.Sprintf("%d '%c'", int64(r.u), c), true
		}
		return fmt.Sprintf("%d '\\x%02x'", int64(r.u), c), true
	case v.t.Scalar.Kind == converter.KindUnsigned:
		return strconv.FormatUint(r.u, 10), true
	}
	return strconv.FormatInt(int64(r.u), 10), true
}
