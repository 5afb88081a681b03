package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDragReportsRelativeMovement(t *testing.T) {
	var d drag

	_, _, ok := d.move(10, 10)
	assert.False(t, ok, "no movement before press")

	d.press(10, 20)
	dx, dy, ok := d.move(15, 18)
	assert.True(t, ok)
	assert.Equal(t, 5.0, dx)
	assert.Equal(t, -2.0, dy)

	_, _, ok = d.move(15, 18)
	assert.False(t, ok, "unchanged position")

	dx, dy, ok = d.move(14, 20)
	assert.True(t, ok)
	assert.Equal(t, -1.0, dx)
	assert.Equal(t, 2.0, dy)

	d.release()
	_, _, ok = d.move(100, 100)
	assert.False(t, ok)
}

func TestBuilderOptions(t *testing.T) {
	w := &engineWindow{}
	for _, opt := range []WindowBuilderOption{WithTitle("t"), WithSize(640, 480), WithMinSize(100, 50)} {
		opt(w)
	}
	assert.Equal(t, "t", w.title)
	assert.Equal(t, 640, w.Width())
	assert.Equal(t, 480, w.Height())
	assert.Equal(t, 100, w.minWidth)
	assert.Equal(t, 50, w.minHeight)
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.Error(t, w.Close())
}
