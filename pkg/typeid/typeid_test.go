package typeid

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantName string
		wantArgs []string
		wantSufx string
	}{
		{
			name:     "nested template arguments",
			raw:      "ns::tmpl<a<x,y>, b>",
			wantName: "ns::tmpl",
			wantArgs: []string{"a<x,y>", "b"},
		},
		{
			name:     "plain name",
			raw:      "double",
			wantName: "double",
		},
		{
			name:     "keyword type keeps inner space",
			raw:      "unsigned  long long",
			wantName: "unsigned long long",
		},
		{
			name:     "const reference stripped",
			raw:      "const std::vector<int,std::allocator<int> > &",
			wantName: "std::vector",
			wantArgs: []string{"int", "std::allocator<int>"},
		},
		{
			name:     "class keyword stripped",
			raw:      "class boost::geometry::model::point<double,2,boost::geometry::cs::cartesian>",
			wantName: "boost::geometry::model::point",
			wantArgs: []string{"double", "2", "boost::geometry::cs::cartesian"},
		},
		{
			name:     "array suffix",
			raw:      "boost::geometry::model::point<double,2,cs> [3]",
			wantName: "boost::geometry::model::point",
			wantArgs: []string{"double", "2", "cs"},
			wantSufx: "[3]",
		},
		{
			name:     "pointer suffix",
			raw:      "std::_List_node<int,void *> *",
			wantName: "std::_List_node",
			wantArgs: []string{"int", "void*"},
			wantSufx: "*",
		},
		{
			name:     "plain array",
			raw:      "double[2]",
			wantName: "double",
			wantSufx: "[2]",
		},
		{
			name:     "function-like argument keeps commas",
			raw:      "holder<std::function<void (int, int)>, x>",
			wantName: "holder",
			wantArgs: []string{"std::function<void(int,int)>", "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := Parse(tt.raw)
			assert.Equal(t, tt.wantName, id.Name)
			assert.Equal(t, tt.wantArgs, id.Args)
			assert.Equal(t, tt.wantSufx, id.Suffix)
		})
	}
}

func TestParse_ArgCountProperty(t *testing.T) {
	nested := []string{"a<x,y>", "b", "c<d<e,f>,g<h>>", "int", "std::pair<int,double>"}

	for n := 1; n <= len(nested); n++ {
		t.Run(fmt.Sprintf("%d args", n), func(t *testing.T) {
			raw := "outer::holder<" + strings.Join(nested[:n], ", ") + ">"
			id := Parse(raw)
			require.Len(t, id.Args, n)
			assert.Equal(t, "outer::holder", id.Name)
			assert.Equal(t, nested[:n], id.Args)
		})
	}
}

func TestParse_FormattingInvariant(t *testing.T) {
	a := Parse("std::vector<std::pair<int,double>,std::allocator<std::pair<int,double>>>")
	b := Parse("std::vector<std::pair<int, double>, std::allocator<std::pair<int, double> > > const &")
	assert.Equal(t, a, b)
	assert.True(t, Equal("double *", "double*"))
}

func TestID_Arg(t *testing.T) {
	id := Parse("boost::geometry::model::box<P>")

	arg, ok := id.Arg(0)
	assert.True(t, ok)
	assert.Equal(t, "P", arg)

	_, ok = id.Arg(1)
	assert.False(t, ok)
	_, ok = id.Arg(-1)
	assert.False(t, ok)
}

func TestID_Is(t *testing.T) {
	assert.True(t, Parse("std::vector<int>").Is("std::vector"))
	assert.False(t, Parse("std::vector<int> *").Is("std::vector"))
	assert.False(t, Parse("std::vector<int>[2]").Is("std::vector"))
	assert.True(t, Parse("std::set<int>").IsAny("std::multiset", "std::set"))
}

func TestArrayInfo(t *testing.T) {
	tests := []struct {
		raw    string
		elem   string
		n      int
		wantOK bool
	}{
		{"double[4]", "double", 4, true},
		{"double [4]", "double", 4, true},
		{"int[2][3]", "int[3]", 2, true},
		{"foo<int[3]>[2]", "foo<int[3]>", 2, true},
		{"foo<int[3]>", "", 0, false},
		{"double", "", 0, false},
		{"double[x]", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			elem, n, ok := ArrayInfo(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.elem, elem)
			assert.Equal(t, tt.n, n)
		})
	}
}

func TestPointerElem(t *testing.T) {
	elem, ok := PointerElem("std::_Tree_node<int,void *> *")
	require.True(t, ok)
	assert.Equal(t, "std::_Tree_node<int,void*>", elem)

	_, ok = PointerElem("int")
	assert.False(t, ok)
}
