package params

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Kind identifies the native element encoding held by a parameter slot.
type Kind int

const (
	// KindInvalid marks a registered slot that has not been written yet.
	KindInvalid Kind = iota

	// KindInt32 is a 32-bit signed integer.
	KindInt32

	// KindInt64 is a 64-bit signed integer.
	KindInt64

	// KindFloat32 is an IEEE-754 single precision float.
	KindFloat32

	// KindFloat64 is an IEEE-754 double precision float.
	KindFloat64

	// KindDevicePtr is an opaque 64-bit device address or buffer handle.
	KindDevicePtr

	// KindBool is a boolean encoded as a 32-bit integer holding 0 or 1.
	KindBool
)

// ElementSize returns the byte width of a single element of this kind.
func (k Kind) ElementSize() int {
	switch k {
	case KindInt32, KindFloat32, KindBool:
		return 4
	case KindInt64, KindFloat64, KindDevicePtr:
		return 8
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindDevicePtr:
		return "deviceptr"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// maxElements is the largest element count a single slot may carry (a quad).
const maxElements = 4

// Value is a fixed-size native value stored in a slot. It carries between one and four
// elements of a single Kind, encoded little-endian. Values are plain data and are copied on assignment.
type Value struct {
	kind  Kind
	count int
	raw   [maxElements * 8]byte
}

// Kind returns the element encoding of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// Count returns the number of elements in the value.
func (v Value) Count() int {
	return v.count
}

// Size returns the encoded byte width of the value.
func (v Value) Size() int {
	return v.kind.ElementSize() * v.count
}

// Align returns the natural alignment of the value, which is the width of one element.
func (v Value) Align() int {
	return v.kind.ElementSize()
}

// Bytes returns a copy of the encoded bytes of the value.
func (v Value) Bytes() []byte {
	out := make([]byte, v.Size())
	copy(out, v.raw[:v.Size()])
	return out
}

// Valid reports whether the value has been given an encoding.
func (v Value) Valid() bool {
	return v.kind != KindInvalid && v.count > 0
}

func (v Value) String() string {
	if !v.Valid() {
		return "<unset>"
	}
	if v.count == 1 {
		return fmt.Sprintf("%s(%v)", v.kind, v.element(0))
	}
	elems := make([]any, v.count)
	for i := range elems {
		elems[i] = v.element(i)
	}
	return fmt.Sprintf("%s%v", v.kind, elems)
}

// element decodes the i-th element for display and tests.
func (v Value) element(i int) any {
	size := v.kind.ElementSize()
	b := v.raw[i*size : (i+1)*size]
	switch v.kind {
	case KindInt32:
		return int32(binary.LittleEndian.Uint32(b))
	case KindBool:
		return binary.LittleEndian.Uint32(b) != 0
	case KindFloat32:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case KindInt64:
		return int64(binary.LittleEndian.Uint64(b))
	case KindFloat64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	case KindDevicePtr:
		return binary.LittleEndian.Uint64(b)
	default:
		return nil
	}
}

// Int32At decodes element i as an int32. Bool elements decode to 0 or 1.
func (v Value) Int32At(i int) int32 {
	switch e := v.element(i).(type) {
	case int32:
		return e
	case bool:
		if e {
			return 1
		}
	}
	return 0
}

// Int64At decodes element i as an int64.
func (v Value) Int64At(i int) int64 {
	e, _ := v.element(i).(int64)
	return e
}

// Float32At decodes element i as a float32.
func (v Value) Float32At(i int) float32 {
	e, _ := v.element(i).(float32)
	return e
}

// Float64At decodes element i as a float64.
func (v Value) Float64At(i int) float64 {
	e, _ := v.element(i).(float64)
	return e
}

// PtrAt decodes element i as a device pointer.
func (v Value) PtrAt(i int) uint64 {
	e, _ := v.element(i).(uint64)
	return e
}

func make32(kind Kind, words ...uint32) Value {
	v := Value{kind: kind, count: len(words)}
	for i, w := range words {
		binary.LittleEndian.PutUint32(v.raw[i*4:], w)
	}
	return v
}

func make64(kind Kind, words ...uint64) Value {
	v := Value{kind: kind, count: len(words)}
	for i, w := range words {
		binary.LittleEndian.PutUint64(v.raw[i*8:], w)
	}
	return v
}

// Int32 encodes a single 32-bit integer.
func Int32(x int32) Value { return make32(KindInt32, uint32(x)) }

// Int32Pair encodes two consecutive 32-bit integers, e.g. an output width and height.
func Int32Pair(a, b int32) Value { return make32(KindInt32, uint32(a), uint32(b)) }

// Int64 encodes a single 64-bit integer.
func Int64(x int64) Value { return make64(KindInt64, uint64(x)) }

// Float32 encodes a single precision float.
func Float32(x float32) Value { return make32(KindFloat32, math.Float32bits(x)) }

// Float32Quad encodes four single precision floats.
func Float32Quad(a, b, c, d float32) Value {
	return make32(KindFloat32, math.Float32bits(a), math.Float32bits(b), math.Float32bits(c), math.Float32bits(d))
}

// Float64 encodes a single double precision float.
func Float64(x float64) Value { return make64(KindFloat64, math.Float64bits(x)) }

// Float64Quad encodes four double precision floats.
func Float64Quad(a, b, c, d float64) Value {
	return make64(KindFloat64, math.Float64bits(a), math.Float64bits(b), math.Float64bits(c), math.Float64bits(d))
}

// DevicePtr encodes an opaque device address or buffer handle.
func DevicePtr(p uint64) Value { return make64(KindDevicePtr, p) }

// Bool encodes a boolean as a 32-bit 0 or 1.
func Bool(b bool) Value {
	if b {
		return make32(KindBool, 1)
	}
	return make32(KindBool, 0)
}
