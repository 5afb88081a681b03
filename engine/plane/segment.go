// Package plane describes the rectangular region of the fractal's coordinate plane mapped onto the output image,
// and the view operations (zoom, pan, resize) applied to it between frames.
package plane

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/chaos-go/common"
)

// ZoomStep is the factor the segment height is multiplied by for one step of zoom in. Zooming out divides by it.
const ZoomStep = 0.9

// DefaultCenter and DefaultZoom describe the initial view: the whole Mandelbrot set with a small margin.
var (
	DefaultCenter = common.Point{X: -0.5, Y: 0}
	DefaultZoom   = 3.0
)

// Segment is an axis-aligned region of the plane given by its left-bottom and right-top corners.
type Segment struct {
	LeftBottom common.Point
	RightTop   common.Point
}

// NewSegment builds a segment from its four bounds, in the order kernels receive them.
func NewSegment(leftBottomX, leftBottomY, rightTopX, rightTopY float64) Segment {
	return Segment{
		LeftBottom: common.Point{X: leftBottomX, Y: leftBottomY},
		RightTop:   common.Point{X: rightTopX, Y: rightTopY},
	}
}

// FromCenter builds a segment around a centre point.
//
// Parameters:
//   - center: the plane point at the middle of the output
//   - zoom: the segment height in plane units
//   - aspect: output width divided by output height
//
// Returns:
//   - Segment: the segment spanning zoom*aspect by zoom units around center
func FromCenter(center common.Point, zoom, aspect float64) Segment {
	halfH := zoom / 2
	halfW := zoom * aspect / 2
	return NewSegment(center.X-halfW, center.Y-halfH, center.X+halfW, center.Y+halfH)
}

// Default returns the initial view for an output of the given aspect ratio.
func Default(aspect float64) Segment {
	return FromCenter(DefaultCenter, DefaultZoom, aspect)
}

// Bounds returns the four bounds as left-bottom x, left-bottom y, right-top x, right-top y.
func (s Segment) Bounds() (float64, float64, float64, float64) {
	return s.LeftBottom.X, s.LeftBottom.Y, s.RightTop.X, s.RightTop.Y
}

func (s Segment) Width() float64 {
	return s.RightTop.X - s.LeftBottom.X
}

func (s Segment) Height() float64 {
	return s.RightTop.Y - s.LeftBottom.Y
}

// Zoom is the segment height in plane units. Smaller is deeper.
func (s Segment) Zoom() float64 {
	return s.Height()
}

func (s Segment) Center() common.Point {
	return common.Point{
		X: s.LeftBottom.X + s.Width()/2,
		Y: s.LeftBottom.Y + s.Height()/2,
	}
}

// Finite reports whether every bound is neither NaN nor infinite.
func (s Segment) Finite() bool {
	for _, v := range []float64{s.LeftBottom.X, s.LeftBottom.Y, s.RightTop.X, s.RightTop.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Ordered reports whether the right-top corner is strictly above and to the right of the left-bottom corner.
func (s Segment) Ordered() bool {
	return s.RightTop.X > s.LeftBottom.X && s.RightTop.Y > s.LeftBottom.Y
}

func (s Segment) String() string {
	return fmt.Sprintf("[(%g, %g) .. (%g, %g)]", s.LeftBottom.X, s.LeftBottom.Y, s.RightTop.X, s.RightTop.Y)
}
