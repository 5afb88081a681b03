package precision

import (
	"math"

	"github.com/Carmen-Shannon/chaos-go/common"
)

// IsAtLimit reports whether one output pixel of the segment spanning leftBottom..rightTop is no wider
// (or taller) than one unit in the last place of the left-bottom coordinate at the given width.
// Once that happens neighbouring pixels collapse onto the same representable value.
//
// A pixel exactly one ULP across counts as exhausted: it can no longer be subdivided for supersampling.
// The comparison is deliberately <= rather than a strict <; keep it so a segment of 2 ULP on a 2 pixel output
// reports the limit.
//
// Parameters:
//   - widthPx, heightPx: output size in pixels
//   - leftBottom, rightTop: the segment corners
//   - m: the numeric width to evaluate against
//
// Returns:
//   - bool: true if the zoom depth has exhausted the width
func IsAtLimit(widthPx, heightPx int, leftBottom, rightTop common.Point, m Mode) bool {
	if widthPx <= 0 || heightPx <= 0 {
		return false
	}
	pixelWidth := math.Abs(rightTop.X-leftBottom.X) / float64(widthPx)
	pixelHeight := math.Abs(rightTop.Y-leftBottom.Y) / float64(heightPx)
	maxErrX := ULP(leftBottom.X, m)
	maxErrY := ULP(leftBottom.Y, m)
	return pixelWidth <= maxErrX || pixelHeight <= maxErrY
}
