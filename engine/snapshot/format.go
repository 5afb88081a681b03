package snapshot

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ErrUnsupportedFormat is returned for an image format the saver cannot encode.
var ErrUnsupportedFormat = errors.New("snapshot: unsupported image format")

// Format is an image encoding, named by its canonical file extension.
type Format string

// The supported image encodings.
const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpg"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// DefaultJPEGQuality is the JPEG quality used unless configured otherwise.
const DefaultJPEGQuality = 90

// ParseFormat returns the format for a name or file extension, which can start with a . or not.
//
// Parameters:
//   - name: a format name or extension such as "png", ".jpeg" or "TIF"
//
// Returns:
//   - Format: the canonical format
//   - error: ErrUnsupportedFormat if the name is not recognized
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "bmp":
		return FormatBMP, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	}
	return "", fmt.Errorf("%q: %w", name, ErrUnsupportedFormat)
}

// withExtension appends the format's extension unless filename already ends in one naming the same format.
func withExtension(filename string, format Format) string {
	if f, err := ParseFormat(filepath.Ext(filename)); err == nil && f == format {
		return filename
	}
	return filename + "." + string(format)
}

// Encode writes img to w in the given format.
//
// Parameters:
//   - w: the destination
//   - img: the image to encode
//   - format: the encoding
//   - jpegQuality: JPEG quality in [1, 100], ignored by the other formats
//
// Returns:
//   - error: ErrUnsupportedFormat, or the encoder error
func Encode(w io.Writer, img image.Image, format Format, jpegQuality int) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
}
