// Package palette loads the colour palette kernels map escape times onto.
//
// A palette is the first pixel row of an image, each pixel packed into a uint32 with red in the lowest byte, the
// layout unpack4x8unorm expects. The engine ships a default palette and accepts a PNG override path, which can be
// watched so edits show up without restarting.
package palette

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/chaos-go/common"
)

// ErrEmpty is returned for an image without pixels.
var ErrEmpty = errors.New("palette: image has no pixels")

//go:embed assets/palette.png
var bundledPNG []byte

// Sink receives palettes, typically a gpu.Context.
type Sink interface {
	SetPalette(colors []uint32) error
}

// FromImage packs the first pixel row of img.
//
// Parameters:
//   - img: decoded RGBA pixels
//
// Returns:
//   - []uint32: one packed colour per pixel of the first row
//   - error: ErrEmpty if img has no pixels
func FromImage(img *common.ImageData) ([]uint32, error) {
	if img == nil || img.Width <= 0 || img.Height <= 0 || len(img.Pixels) < img.Width*4 {
		return nil, ErrEmpty
	}
	return common.BytesToUint32(img.Pixels[:img.Width*4]), nil
}

// Decode decodes an encoded PNG or JPEG palette image.
func Decode(data []byte) ([]uint32, error) {
	img, err := common.DecodeImage(data, "")
	if err != nil {
		return nil, err
	}
	return FromImage(img)
}

// Load reads a palette image from disk.
//
// Parameters:
//   - path: the image file
//
// Returns:
//   - []uint32: the packed palette
//   - error: error if the file cannot be read or decoded, or ErrEmpty
func Load(path string) ([]uint32, error) {
	img, err := common.DecodeImage(nil, path)
	if err != nil {
		return nil, fmt.Errorf("load palette %s: %w", path, err)
	}
	return FromImage(img)
}

// Bundled returns the default palette shipped with the engine.
func Bundled() []uint32 {
	colors, err := Decode(bundledPNG)
	if err != nil {
		panic(fmt.Sprintf("bundled palette is invalid: %v", err))
	}
	return colors
}

// LoadOrDefault loads the palette at path, falling back to the bundled one when path is empty or unusable.
func LoadOrDefault(path string) []uint32 {
	if path == "" {
		return Bundled()
	}
	colors, err := Load(path)
	if err != nil {
		common.Logger().Warn("palette fallback to bundled default", slog.String("path", path), slog.Any("error", err))
		return Bundled()
	}
	common.Logger().Info("palette loaded", slog.String("path", path), slog.Int("colors", len(colors)))
	return colors
}
