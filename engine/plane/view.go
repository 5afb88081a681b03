package plane

import (
	"math"

	"github.com/Carmen-Shannon/chaos-go/common"
)

// PixelToPlane maps an output pixel position to the plane point under it.
// Pixel coordinates grow right and down from the top-left corner, plane coordinates grow right and up.
//
// Parameters:
//   - px, py: the pixel position, fractional positions allowed
//   - width, height: the output size in pixels
//
// Returns:
//   - common.Point: the plane point under the pixel
func (s Segment) PixelToPlane(px, py float64, width, height int) common.Point {
	return common.Point{
		X: s.LeftBottom.X + px/float64(width)*s.Width(),
		Y: s.RightTop.Y - py/float64(height)*s.Height(),
	}
}

// ZoomAt scales the segment around the plane point under a pixel, keeping that point under the same pixel.
//
// Parameters:
//   - px, py: the pixel position the zoom is anchored at
//   - width, height: the output size in pixels
//   - direction: positive zooms in, negative zooms out, its magnitude is the number of steps
//
// Returns:
//   - Segment: the zoomed segment, or s unchanged when direction is 0
func (s Segment) ZoomAt(px, py float64, width, height int, direction float64) Segment {
	if direction == 0 || width <= 0 || height <= 0 {
		return s
	}
	anchor := s.PixelToPlane(px, py, width, height)
	factor := math.Pow(ZoomStep, direction)

	return NewSegment(
		anchor.X-(anchor.X-s.LeftBottom.X)*factor,
		anchor.Y-(anchor.Y-s.LeftBottom.Y)*factor,
		anchor.X+(s.RightTop.X-anchor.X)*factor,
		anchor.Y+(s.RightTop.Y-anchor.Y)*factor,
	)
}

// Pan moves the segment so the content follows a pointer dragged by dx, dy pixels.
func (s Segment) Pan(dx, dy float64, width, height int) Segment {
	if width <= 0 || height <= 0 {
		return s
	}
	shiftX := -dx / float64(width) * s.Width()
	shiftY := dy / float64(height) * s.Height()
	return NewSegment(s.LeftBottom.X+shiftX, s.LeftBottom.Y+shiftY, s.RightTop.X+shiftX, s.RightTop.Y+shiftY)
}

// Resize adapts the segment to a new output size, keeping its centre and the plane size of one pixel.
// An oldHeight of 0 means the output had no size yet and yields the default view.
//
// Parameters:
//   - oldHeight: the previous output height in pixels
//   - width, height: the new output size in pixels
//
// Returns:
//   - Segment: the resized segment
func (s Segment) Resize(oldHeight, width, height int) Segment {
	if width <= 0 || height <= 0 {
		return s
	}
	aspect := float64(width) / float64(height)
	if oldHeight <= 0 {
		return Default(aspect)
	}
	return FromCenter(s.Center(), s.Zoom()*float64(height)/float64(oldHeight), aspect)
}
