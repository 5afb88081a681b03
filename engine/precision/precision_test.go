package precision

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/chaos-go/common"
	"github.com/Carmen-Shannon/chaos-go/engine/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRealWidth(t *testing.T) {
	s := Single.EncodeReal(0.1)
	assert.Equal(t, params.KindFloat32, s.Kind())
	assert.Equal(t, float32(0.1), s.Float32At(0))

	d := Double.EncodeReal(0.1)
	assert.Equal(t, params.KindFloat64, d.Kind())
	assert.Equal(t, 0.1, d.Float64At(0))
}

func TestEncodeRealQuadKeepsOrder(t *testing.T) {
	q := Double.EncodeRealQuad(-2, -1.5, 1, 1.5)
	require.Equal(t, 4, q.Count())
	assert.Equal(t, []float64{-2, -1.5, 1, 1.5}, []float64{q.Float64At(0), q.Float64At(1), q.Float64At(2), q.Float64At(3)})

	q = Single.QuadEncoder()([4]float64{-2, -1.5, 1, 1.5})
	assert.Equal(t, 16, q.Size())
	assert.Equal(t, float32(1.5), q.Float32At(3))
}

func TestULP(t *testing.T) {
	assert.Equal(t, math.SmallestNonzeroFloat64, ULP(0, Double))
	assert.Equal(t, float64(math.SmallestNonzeroFloat32), ULP(0, Single))
	assert.Equal(t, math.Pow(2, -52), ULP(1, Double))
	assert.Equal(t, math.Pow(2, -23), ULP(-1, Single))
	assert.True(t, math.IsNaN(ULP(math.NaN(), Double)))
	assert.True(t, math.IsInf(ULP(math.Inf(-1), Single), 1))
	assert.Equal(t, math.Pow(2, 971), ULP(math.MaxFloat64, Double))
}

func TestULPRoundsToWidthFirst(t *testing.T) {
	// 1 + 2^-30 is not representable as float32 and rounds to 1.
	assert.Equal(t, math.Pow(2, -23), ULP(1+math.Pow(2, -30), Single))
}

func TestIsAtLimit(t *testing.T) {
	u := ULP(0, Double)
	origin := common.Point{}

	assert.True(t, IsAtLimit(2, 2, origin, common.Point{X: 2 * u, Y: 2 * u}, Double))
	assert.False(t, IsAtLimit(2, 2, origin, common.Point{X: 2000 * u, Y: 2000 * u}, Double))
}

func TestIsAtLimitAtExactlyOneULP(t *testing.T) {
	u := ULP(1, Double)
	lb := common.Point{X: 1, Y: 1}

	assert.True(t, IsAtLimit(2, 2, lb, common.Point{X: 1 + 2*u, Y: 1 + 2*u}, Double))
	assert.False(t, IsAtLimit(2, 2, lb, common.Point{X: 1 + 4*u, Y: 1 + 4*u}, Double))
}

func TestIsAtLimitEitherAxis(t *testing.T) {
	u := ULP(0, Double)
	assert.True(t, IsAtLimit(2, 2, common.Point{}, common.Point{X: 1, Y: 2 * u}, Double))
	assert.False(t, IsAtLimit(640, 480, common.Point{X: -2, Y: -1.5}, common.Point{X: 1, Y: 1.5}, Double))
}

func TestSingleLimitReachedBeforeDouble(t *testing.T) {
	lb := common.Point{X: 0.25, Y: 0.25}
	rt := common.Point{X: 0.25 + 1e-9, Y: 0.25 + 1e-9}
	assert.True(t, IsAtLimit(640, 480, lb, rt, Single))
	assert.False(t, IsAtLimit(640, 480, lb, rt, Double))
}

func TestParse(t *testing.T) {
	m, err := Parse("Double")
	require.NoError(t, err)
	assert.Equal(t, Double, m)

	m, err = Parse("32")
	require.NoError(t, err)
	assert.Equal(t, Single, m)

	_, err = Parse("half")
	assert.Error(t, err)
	assert.Equal(t, "double", Double.String())
	assert.Equal(t, 64, Double.Bits())
}
