package params

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIndicesAreStable(t *testing.T) {
	b := NewBlock()
	first := b.Register()
	second := b.Register()
	require.NoError(t, b.Set(first, Int32(7)))

	for i := 0; i < 10; i++ {
		b.Register()
	}
	third := b.Register()

	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, 12, third)
	assert.Equal(t, 13, b.Len())

	v, err := b.Get(first)
	require.NoError(t, err)
	assert.Equal(t, int32(7), v.Int32At(0))
}

func TestSetOutOfRange(t *testing.T) {
	b := NewBlock()
	b.Register()

	for _, idx := range []int{-1, 1, 100} {
		err := b.Set(idx, Int32(1))
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "index %d", idx)
	}

	_, err := b.Get(5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestBytesRejectsUnsetSlot(t *testing.T) {
	b := NewBlock()
	b.Register()
	idx := b.Register()
	require.NoError(t, b.Set(idx, Int32(3)))

	_, err := b.Bytes()
	assert.ErrorIs(t, err, ErrUnsetSlot)
}

func TestBytesMixedWidthsUseNaturalAlignment(t *testing.T) {
	b := NewBlock()
	values := []Value{
		Int32(5),                // 0
		DevicePtr(0xdeadbeef),   // 8
		Bool(true),              // 16
		Float64Quad(1, 2, 3, 4), // 24
		Float32(0.5),            // 56
		Int32Pair(640, 480),     // 60
		Int64(-9),               // 72
	}
	for _, v := range values {
		require.NoError(t, b.Set(b.Register(), v))
	}

	assert.Equal(t, []int{0, 8, 16, 24, 56, 60, 72}, b.Offsets())

	out, err := b.Bytes()
	require.NoError(t, err)
	assert.Len(t, out, 80)

	assert.Equal(t, uint32(5), binary.LittleEndian.Uint32(out[0:]))
	assert.Equal(t, uint64(0xdeadbeef), binary.LittleEndian.Uint64(out[8:]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(out[16:]))
	assert.Equal(t, 3.0, math.Float64frombits(binary.LittleEndian.Uint64(out[24+16:])))
	assert.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(out[56:])))
	assert.Equal(t, uint32(480), binary.LittleEndian.Uint32(out[64:]))
	assert.Equal(t, int64(-9), int64(binary.LittleEndian.Uint64(out[72:])))
}

func TestSetOverwritesInPlaceWithDifferentWidth(t *testing.T) {
	b := NewBlock()
	idx := b.Register()
	require.NoError(t, b.Set(idx, Float32Quad(1, 2, 3, 4)))
	require.NoError(t, b.Set(idx, Float64Quad(1, 2, 3, 4)))

	v, err := b.Get(idx)
	require.NoError(t, err)
	assert.Equal(t, KindFloat64, v.Kind())
	assert.Equal(t, 32, v.Size())
	assert.Equal(t, 4.0, v.Float64At(3))
}

func TestBoundSlots(t *testing.T) {
	bld := NewBuilder()
	iters := Bind(bld, EncodeInt32)
	flag := Bind(bld, EncodeBool)
	size := Bind(bld, EncodeInt32Pair)

	assert.Equal(t, 0, iters.Index())
	assert.Equal(t, 1, flag.Index())
	assert.Equal(t, 2, size.Index())

	iters.Set(250)
	flag.Set(true)
	size.Set([2]int32{800, 600})

	assert.Equal(t, int32(250), iters.Value().Int32At(0))
	assert.Equal(t, int32(1), flag.Value().Int32At(0))
	assert.Equal(t, int32(600), size.Value().Int32At(1))

	raw, err := bld.Block().Get(flag.Index())
	require.NoError(t, err)
	assert.Equal(t, KindBool, raw.Kind())
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "<unset>", Value{}.String())
	assert.Equal(t, "int32(4)", Int32(4).String())
	assert.Equal(t, "bool(true)", Bool(true).String())
	assert.Equal(t, "int32[640 480]", Int32Pair(640, 480).String())
}
