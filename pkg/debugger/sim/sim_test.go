package sim

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/geoinspect/pkg/debugger"
)

func TestStructLayout(t *testing.T) {
	p := New()
	s := p.DefineStruct("S", F("c", p.MustType("char")), F("d", p.MustType("double")), F("i", p.MustType("int")))

	assert.Equal(t, 24, s.Size)
	assert.Equal(t, 8, s.Align)
	f, ok := s.Field("d")
	require.True(t, ok)
	assert.Equal(t, 8, f.Offset)
	f, ok = s.Field("i")
	require.True(t, ok)
	assert.Equal(t, 16, f.Offset)

	size, ok := p.SizeOf("S")
	require.True(t, ok)
	assert.Equal(t, 24, size)
	size, ok = p.SizeOf("S *")
	require.True(t, ok)
	assert.Equal(t, PointerSize, size)
	size, ok = p.SizeOf("const S[3]")
	require.True(t, ok)
	assert.Equal(t, 72, size)

	_, ok = p.SizeOf("void")
	assert.False(t, ok)
	_, ok = p.SizeOf("Missing")
	assert.False(t, ok)
}

func TestEvaluate(t *testing.T) {
	p := New()
	pt := p.BGPointType("double", 2, CSCartesian)
	o := p.Declare("pt", pt)
	SetPoint(o, 1.5, -2)
	arr := p.Declare("arr", p.ArrayOf(p.MustType("int"), 3))
	arr.SetValues(10, 20, 30)
	p.Declare("c", p.MustType("char")).SetInt('A')
	p.Declare("flag", p.MustType("bool")).SetInt(1)
	ptr := p.Declare("ptr", p.PointerTo(p.MustType("int")))
	ptr.SetPointer(arr.Addr)

	tests := []struct {
		expr  string
		typ   string
		value string
	}{
		{"pt.m_values[0]", "double", "1.5"},
		{"pt.m_values[1]", "double", "-2"},
		{"arr[2]", "int", "30"},
		{"*(arr + 1)", "int", "20"},
		{"ptr[1]", "int", "20"},
		{"*ptr", "int", "10"},
		{"(&arr[2]) - ptr", "__int64", "2"},
		{"c", "char", "65 'A'"},
		{"flag", "bool", "true"},
		{"(double)arr[0]", "double", "10"},
		{"-arr[0]", "int", "-10"},
		{"pt", pt.Name, "{...}"},
		{fmt.Sprintf("((int*)0x%x)[1]", arr.Addr), "int", "20"},
		{"(*(" + pt.Name + "*)(&pt)).m_values[0]", "double", "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			e := p.Evaluate(tt.expr)
			require.True(t, e.Valid)
			assert.Equal(t, tt.typ, e.Type)
			assert.Equal(t, tt.value, e.Value)
		})
	}

	for _, bad := range []string{"", "nope", "pt.nope", "arr[", "*c", "ptr->x", "pt +", "((int*)0)[0]"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			assert.False(t, p.Evaluate(bad).Valid)
		})
	}
}

func TestAddressQueries(t *testing.T) {
	p := New()
	pt := p.BGPointType("double", 3, CSCartesian)
	box := p.Declare("b", p.BGBoxType(pt))

	off, ok := p.AddressOffset("b", "b.m_max_corner")
	require.True(t, ok)
	assert.Equal(t, int64(24), off)

	addr, ok := p.ValueAddress("b.m_min_corner.m_values[1]")
	require.True(t, ok)
	assert.Equal(t, box.Addr+8, addr)

	_, ok = p.ValueAddress("1")
	assert.False(t, ok)
}

func TestReadMemoryMatchesEvaluation(t *testing.T) {
	p := New()
	v := p.Declare("v", p.VectorType(p.MustType("double")))
	FillVector(v, 4, func(o Object, i int) { o.SetFloat(float64(i) * 1.25) })

	e := p.Evaluate("v._Mypair._Myval2._Myfirst")
	require.True(t, e.Valid)
	first, ok := debugger.ParseAddress(e.Value)
	require.True(t, ok)

	buf := make([]byte, 32)
	require.NoError(t, p.ReadMemory(first, buf))
	for i := 0; i < 4; i++ {
		got := math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
		assert.Equal(t, float64(i)*1.25, got)
	}
	assert.Equal(t, 1, p.Stats().Reads)
	assert.Equal(t, 32, p.Stats().BytesRead)

	assert.Error(t, p.ReadMemory(0, buf))
	assert.Error(t, p.ReadMemory(BaseAddress+uint64(len(p.mem)), buf[:1]))
}

func TestDequeLayout(t *testing.T) {
	p := New()
	d := p.Declare("d", p.DequeType(p.MustType("int")))
	FillDeque(d, 5, 3, 2, 2, func(o Object, i int) { o.SetInt(int64(i + 1)) })

	// Positions 2..6 over two blocks of three wrap back to block 0.
	for i, want := range []string{"1", "2", "3", "4", "5"} {
		pos := 2 + i
		block := (pos / 3) % 2
		expr := fmt.Sprintf("d._Mypair._Myval2._Map[%d][%d]", block, pos%3)
		e := p.Evaluate(expr)
		require.True(t, e.Valid, expr)
		assert.Equal(t, want, e.Value, expr)
	}
}

func TestListAndSetLinks(t *testing.T) {
	p := New()
	l := p.Declare("l", p.ListType(p.MustType("int")))
	FillList(l, 3, func(o Object, i int) { o.SetInt(int64(10 * (i + 1))) })

	assert.Equal(t, "10", p.Evaluate("l._Mypair._Myval2._Myhead->_Next->_Myval").Value)
	assert.Equal(t, "30", p.Evaluate("l._Mypair._Myval2._Myhead->_Prev->_Myval").Value)
	assert.Equal(t, "3", p.Evaluate("l._Mypair._Myval2._Mysize").Value)

	s := p.Declare("s", p.SetType("std::set", p.MustType("int")))
	FillSet(s, 7, func(o Object, i int) { o.SetInt(int64(i)) })

	assert.Equal(t, "3", p.Evaluate("s._Mypair._Myval2._Myval2._Myhead->_Parent->_Myval").Value)
	assert.Equal(t, "0", p.Evaluate("s._Mypair._Myval2._Myval2._Myhead->_Left->_Myval").Value)
	assert.Equal(t, "6", p.Evaluate("s._Mypair._Myval2._Myval2._Myhead->_Right->_Myval").Value)
	assert.Equal(t, "1", p.Evaluate("s._Mypair._Myval2._Myval2._Myhead->_Parent->_Left->_Myval").Value)
	assert.Equal(t, "1 '\\x01'", p.Evaluate("s._Mypair._Myval2._Myval2._Myhead->_Isnil").Value)
}

func TestCircularBufferLayout(t *testing.T) {
	p := New()
	c := p.Declare("c", p.CircularBufferType(p.MustType("double")))
	FillCircularBuffer(c, 4, 3, 3, func(o Object, i int) { o.SetFloat(float64(i + 1)) })

	assert.Equal(t, "1", p.Evaluate("*c.m_first").Value)
	assert.Equal(t, "2", p.Evaluate("c.m_buff[0]").Value)
	assert.Equal(t, "3", p.Evaluate("c.m_buff[1]").Value)
	assert.Equal(t, "4", p.Evaluate("c.m_end - c.m_buff").Value)
	assert.Equal(t, "2", p.Evaluate("c.m_last - c.m_buff").Value)
}

func TestVariantAndRtree(t *testing.T) {
	p := New()
	pt := p.BGPointType("double", 2, CSCartesian)
	box := p.BGBoxType(pt)
	v := p.Declare("v", p.VariantType(pt, box))
	SetPoint(SetVariant(v, 0, pt), 7, 8)
	assert.Equal(t, "0", p.Evaluate("v.which_").Value)
	assert.Equal(t, "8", p.Evaluate("(*("+pt.Name+"*)(&v.storage_)).m_values[1]").Value)

	rt := p.RtreeType(pt, box, 2)
	tree := p.Declare("rt", rt.Tree)
	rt.FillRtree(tree, 5, func(o Object, i int) { SetPoint(o, float64(i), float64(i)) },
		func(i int) ([]float64, []float64) {
			c := []float64{float64(i), float64(i)}
			return c, c
		})

	// Three leaves under two internal nodes under the root.
	assert.Equal(t, "5", p.Evaluate("rt.m_members.values_count").Value)
	assert.Equal(t, "2", p.Evaluate("rt.m_members.leafs_level").Value)
	assert.Equal(t, "1", p.Evaluate("(*rt.m_members.root).which_").Value)
}

func TestLoadSnapshot(t *testing.T) {
	doc := `
variables:
  - name: pt
    shape: point
    points: [[1, 2]]
  - name: poly
    shape: polygon
    points: [[0, 0], [4, 0], [4, 4], [0, 0]]
    inners: [[[1, 1], [2, 1], [2, 2], [1, 1]]]
  - name: xs
    shape: values
    container: deque
    values: [1, 2, 3, 4, 5]
  - name: geo
    shape: box
    cs: geographic
    points: [[0, 0], [10, 10]]
`
	p, err := LoadSnapshot(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"geo", "poly", "pt", "xs"}, p.Vars())
	assert.Equal(t, "2", p.Evaluate("pt.m_values[1]").Value)
	assert.Equal(t, "4", p.Evaluate("poly.m_outer._Mypair._Myval2._Myfirst[1].m_values[0]").Value)
	assert.Equal(t, "5", p.Evaluate("xs._Mypair._Myval2._Mysize").Value)
	assert.Contains(t, p.Evaluate("geo").Type, "geographic")

	for name, doc := range map[string]string{
		"shape":  "variables: [{name: a, shape: blob}]",
		"name":   "variables: [{shape: point, points: [[1, 2]]}]",
		"points": "variables: [{name: a, shape: box, points: [[1, 2]]}]",
		"cs":     "variables: [{name: a, shape: point, cs: polar, points: [[1, 2]]}]",
		"yaml":   "variables: {",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSnapshot(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}
