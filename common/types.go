// package common contains helpers and plain data types shared by the engine packages. They are not interface-wrapped structs,
// just plain structs and functions that express commonly used data.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// Point is a coordinate pair on the fractal plane.
type Point struct {
	X, Y float64
}

// ImageData holds tightly packed RGBA pixel data, 4 bytes per pixel, row-major with the first row at the top.
type ImageData struct {
	// Pixels is the RGBA byte slice. Its length is Width*Height*4.
	Pixels []byte

	// Width is the image width in pixels.
	Width int

	// Height is the image height in pixels.
	Height int
}

// ToRGBA wraps the pixel data in an *image.RGBA without copying.
func (d *ImageData) ToRGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    d.Pixels,
		Stride: d.Width * 4,
		Rect:   image.Rect(0, 0, d.Width, d.Height),
	}
}

// Clone returns a deep copy of the image data.
func (d *ImageData) Clone() *ImageData {
	pix := make([]byte, len(d.Pixels))
	copy(pix, d.Pixels)
	return &ImageData{Pixels: pix, Width: d.Width, Height: d.Height}
}

// DecodeImage decodes an encoded image into RGBA pixel data.
// Uses data when it is non-empty, otherwise loads from path on disk.
// Supports PNG and JPEG formats.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - data: encoded image bytes, may be nil
//   - path: file path used when data is empty
//
// Returns:
//   - *ImageData: the decoded pixels
//   - error: error if neither source is set or decoding fails
func DecodeImage(data []byte, path string) (*ImageData, error) {
	var img image.Image
	var err error

	if len(data) > 0 {
		img, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode embedded image: %w", err)
		}
	} else if path != "" {
		file, fileErr := os.Open(path)
		if fileErr != nil {
			return nil, fmt.Errorf("failed to open image file %s: %w", path, fileErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image file %s: %w", path, err)
		}
	} else {
		return nil, fmt.Errorf("image has no data or path")
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return &ImageData{Pixels: rgba.Pix, Width: bounds.Dx(), Height: bounds.Dy()}, nil
}
