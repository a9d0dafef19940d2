package converter

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float64s(values ...float64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func TestStruct_BoxOfTwoPoints(t *testing.T) {
	coord := NewValue[float64](Float64)
	point, err := NewArray[float64](coord, 2)
	require.NoError(t, err)

	box, err := NewStruct[float64](32,
		Member[float64]{Converter: point, Offset: 0},
		Member[float64]{Converter: point, Offset: 16},
	)
	require.NoError(t, err)

	assert.Equal(t, 4, box.ValueCount())
	assert.Equal(t, 32, box.ByteSize())

	values, err := Decode[float64](box, float64s(1, 2, 3, 4), 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, values)
}

func TestRoundTrip_NestedGraph(t *testing.T) {
	// struct { float a; /* pad */ double p[2]; int n; } repeated 3 times.
	f32 := NewValue[float64](Float32)
	f64 := NewValue[float64](Float64)
	i32 := NewValue[float64](Int32)
	pair, err := NewArray[float64](f64, 2)
	require.NoError(t, err)
	elem, err := NewStruct[float64](32,
		Member[float64]{Converter: f32, Offset: 0},
		Member[float64]{Converter: pair, Offset: 8},
		Member[float64]{Converter: i32, Offset: 24},
	)
	require.NoError(t, err)
	all, err := NewArray[float64](elem, 3)
	require.NoError(t, err)

	want := []float64{}
	buf := make([]byte, 96)
	for i := 0; i < 3; i++ {
		base := i * 32
		a, x, y, n := float32(i)+0.5, float64(i*10)+1.25, float64(i*10)+2.5, int32(-i)
		binary.LittleEndian.PutUint32(buf[base:], math.Float32bits(a))
		binary.LittleEndian.PutUint64(buf[base+8:], math.Float64bits(x))
		binary.LittleEndian.PutUint64(buf[base+16:], math.Float64bits(y))
		binary.LittleEndian.PutUint32(buf[base+24:], uint32(n))
		want = append(want, float64(a), x, y, float64(n))
	}

	got, err := Decode[float64](all, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Decoding twice gives the same result; converters keep no state.
	again, err := Decode[float64](all, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestStruct_Validation(t *testing.T) {
	f64 := NewValue[float64](Float64)

	_, err := NewStruct[float64](8, Member[float64]{Converter: f64, Offset: 4})
	assert.Error(t, err)

	_, err = NewStruct[float64](0, Member[float64]{Converter: f64, Offset: 0})
	assert.Error(t, err)

	_, err = NewStruct[float64](16)
	assert.Error(t, err)

	_, err = NewStruct[float64](16, Member[float64]{Converter: f64, Offset: -1})
	assert.Error(t, err)

	_, err = NewStruct[float64](16, Member[float64]{Converter: f64, Offset: 8})
	assert.NoError(t, err)
}

func TestArray_ZeroAndNegative(t *testing.T) {
	f64 := NewValue[float64](Float64)

	empty, err := NewArray[float64](f64, 0)
	require.NoError(t, err)
	values, err := Decode[float64](empty, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, values)

	_, err = NewArray[float64](f64, -1)
	assert.Error(t, err)
}

func TestDecode_ShortBuffer(t *testing.T) {
	arr, err := NewArray[float64](NewValue[float64](Float64), 2)
	require.NoError(t, err)

	_, err = Decode[float64](arr, make([]byte, 15), 0)
	assert.Error(t, err)
	_, err = Decode[float64](arr, make([]byte, 16), 1)
	assert.Error(t, err)
}

func TestTransform(t *testing.T) {
	f64 := NewValue[float64](Float64)
	rect, err := NewArray[float64](f64, 4)
	require.NoError(t, err)

	t.Run("width and height to max corner", func(t *testing.T) {
		// left, bottom, width, height
		tr := NewTransform[float64](rect, func(v []float64) {
			WidthToMax[float64](0, 2)(v)
			WidthToMax[float64](1, 3)(v)
		})
		assert.Equal(t, rect.ValueCount(), tr.ValueCount())

		got, err := Decode[float64](tr, float64s(1, 2, 10, 20), 0)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 11, 22}, got)
	})

	t.Run("interval layout reordered", func(t *testing.T) {
		// xlow, xhigh, ylow, yhigh -> xlow, ylow, xhigh, yhigh
		tr := NewTransform[float64](rect, Reorder[float64](0, 2, 1, 3))
		got, err := Decode[float64](tr, float64s(1, 3, 2, 4), 0)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3, 4}, got)
	})
}

func TestScalarFor(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		want   Scalar
		wantOK bool
	}{
		{"double", 8, Float64, true},
		{"float", 4, Float32, true},
		{"int", 4, Int32, true},
		{"unsigned int", 4, Uint32, true},
		{"unsigned __int64", 8, Uint64, true},
		{"long long", 8, Int64, true},
		{"char", 1, Int8, true},
		{"bool", 1, Uint8, true},
		{"Foo *", 8, Uint64, true},
		{"double", 3, Scalar{Kind: KindFloat, Size: 3}, false},
		{"my::type", 8, Scalar{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ScalarFor(tt.name, tt.size)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestValue_SignedAndUnsigned(t *testing.T) {
	buf := []byte{0xff, 0xff, 0xff, 0xff}

	signed, err := Decode[float64](NewValue[float64](Int32), buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1}, signed)

	unsigned, err := Decode[uint64](NewValue[uint64](Uint32), buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{math.MaxUint32}, unsigned)
}
