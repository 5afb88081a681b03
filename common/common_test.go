package common

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, Clamp(-4, 1, 256))
	assert.Equal(t, 256, Clamp(1000, 1, 256))
	assert.Equal(t, 10, Clamp(10, 1, 256))
	assert.Equal(t, 0.5, Clamp(0.5, 0.0, 1.0))
}

func TestBytesToUint32(t *testing.T) {
	words := []uint32{0x11223344, 0xdeadbeef}
	assert.Equal(t, words, BytesToUint32(SliceToBytes(words)))
	assert.Nil(t, SliceToBytes[uint32](nil))
}

func TestDecodeImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 1))
	src.Set(2, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	img, err := DecodeImage(buf.Bytes(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, img.Width)
	assert.Equal(t, 1, img.Height)
	assert.Equal(t, []byte{10, 20, 30, 255}, img.Pixels[8:12])

	clone := img.Clone()
	clone.Pixels[8] = 99
	assert.Equal(t, byte(10), img.Pixels[8])
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, img.ToRGBA().RGBAAt(2, 0))

	_, err = DecodeImage(nil, "")
	assert.Error(t, err)
}

func TestLoggerDefaultsToSilent(t *testing.T) {
	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(nil)

	Logger().Warn("double limit", slog.Int("width", 2))
	assert.Contains(t, buf.String(), "double limit")
	assert.Contains(t, buf.String(), "width=2")

	SetLogger(nil)
	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))
}
