// Package precision models the two numeric widths a fractal kernel can be compiled for,
// and answers whether a plane segment has zoomed past what a width can represent.
package precision

import (
	"fmt"
	"math"
	"strings"

	"github.com/Carmen-Shannon/chaos-go/engine/params"
	"github.com/chewxy/math32"
)

// Mode selects the floating point width used to encode real-valued kernel parameters.
type Mode int

const (
	// Single encodes reals as 32-bit floats. Values are truncated from float64.
	Single Mode = iota

	// Double encodes reals as 64-bit floats.
	Double
)

func (m Mode) String() string {
	switch m {
	case Single:
		return "single"
	case Double:
		return "double"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Bits returns the encoding width in bits.
func (m Mode) Bits() int {
	if m == Single {
		return 32
	}
	return 64
}

// Parse converts a configuration string ("single", "float", "32", "double", "64") to a Mode.
func Parse(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "float", "float32", "32":
		return Single, nil
	case "double", "float64", "64":
		return Double, nil
	default:
		return Single, fmt.Errorf("unknown precision %q", s)
	}
}

// EncodeReal encodes value at this mode's width.
//
// Parameters:
//   - value: the real to encode; Single truncates it to float32
//
// Returns:
//   - params.Value: a one-element Float32 or Float64 value
func (m Mode) EncodeReal(value float64) params.Value {
	if m == Single {
		return params.Float32(float32(value))
	}
	return params.Float64(value)
}

// EncodeRealQuad encodes four reals at this mode's width, in argument order.
// It is used for the plane segment bounds.
//
// Parameters:
//   - v1, v2, v3, v4: the reals to encode
//
// Returns:
//   - params.Value: a four-element Float32 or Float64 value
func (m Mode) EncodeRealQuad(v1, v2, v3, v4 float64) params.Value {
	if m == Single {
		return params.Float32Quad(float32(v1), float32(v2), float32(v3), float32(v4))
	}
	return params.Float64Quad(v1, v2, v3, v4)
}

// QuadEncoder returns EncodeRealQuad as a slot encoder.
func (m Mode) QuadEncoder() params.Encoder[[4]float64] {
	return func(q [4]float64) params.Value {
		return m.EncodeRealQuad(q[0], q[1], q[2], q[3])
	}
}

// ULP returns the gap between |v| rounded to this mode's width and the next representable
// value of larger magnitude. NaN yields NaN and infinities yield +Inf.
func ULP(v float64, m Mode) float64 {
	if math.IsNaN(v) {
		return math.NaN()
	}
	if math.IsInf(v, 0) {
		return math.Inf(1)
	}

	if m == Single {
		f := math32.Abs(float32(v))
		if math32.IsInf(f, 0) {
			return math.Inf(1)
		}
		next := math32.Nextafter(f, math32.Inf(1))
		if math32.IsInf(next, 0) {
			return float64(f - math32.Nextafter(f, 0))
		}
		return float64(next - f)
	}

	a := math.Abs(v)
	next := math.Nextafter(a, math.Inf(1))
	if math.IsInf(next, 0) {
		return a - math.Nextafter(a, 0)
	}
	return next - a
}
