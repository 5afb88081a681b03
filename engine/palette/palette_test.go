package palette

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/chaos-go/common"
	"github.com/Carmen-Shannon/chaos-go/engine/dispatcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	palettes [][]uint32
}

func (s *recordingSink) SetPalette(colors []uint32) error {
	s.palettes = append(s.palettes, colors)
	return nil
}

// encodePalette writes a two-row PNG whose first row holds colors and whose second row is noise.
func encodePalette(t *testing.T, colors ...color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, len(colors), 2))
	for x, c := range colors {
		img.Set(x, 0, c)
		img.Set(x, 1, color.RGBA{R: 9, G: 9, B: 9, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeUsesFirstRow(t *testing.T) {
	data := encodePalette(t, color.RGBA{R: 1, G: 2, B: 3, A: 255}, color.RGBA{R: 255, A: 255})
	colors, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0xFF030201, 0xFF0000FF}, colors)
}

func TestFromImageEmpty(t *testing.T) {
	_, err := FromImage(nil)
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = FromImage(&common.ImageData{})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestBundled(t *testing.T) {
	colors := Bundled()
	require.Len(t, colors, 256)
	assert.Equal(t, uint32(0xFF640700), colors[0])
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "palette.png")
	require.NoError(t, os.WriteFile(path, encodePalette(t, color.RGBA{G: 255, A: 255}), 0o644))

	assert.Equal(t, []uint32{0xFF00FF00}, LoadOrDefault(path))
	assert.Equal(t, Bundled(), LoadOrDefault(""))
	assert.Equal(t, Bundled(), LoadOrDefault(filepath.Join(dir, "missing.png")))

	_, err := Load(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestWatchEnqueuesReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "palette.png")
	require.NoError(t, os.WriteFile(path, encodePalette(t, color.RGBA{R: 255, A: 255}), 0o644))

	queue := dispatcher.NewActionQueue()
	sink := &recordingSink{}
	var reloaded []uint32
	w, err := Watch(path, queue, sink, WithOnReload(func(colors []uint32) {
		reloaded = colors
	}))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.png"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, encodePalette(t, color.RGBA{B: 255, A: 255}), 0o644))

	assert.Eventually(t, func() bool {
		return queue.Len() > 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Empty(t, sink.palettes, "the sink is only touched on the render thread")

	require.NoError(t, queue.Drain())
	require.NotEmpty(t, sink.palettes)
	assert.Equal(t, []uint32{0xFFFF0000}, sink.palettes[len(sink.palettes)-1])
	assert.Equal(t, []uint32{0xFFFF0000}, reloaded)

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

func TestReloadKeepsPaletteOnBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "palette.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o644))

	sink := &recordingSink{}
	w := &watcher{path: path, sink: sink}
	assert.NoError(t, w.reload())
	assert.Empty(t, sink.palettes)
}
