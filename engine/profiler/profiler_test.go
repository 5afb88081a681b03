package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickAggregatesInterval(t *testing.T) {
	now := time.Unix(0, 0)
	p := NewProfiler(WithInterval(time.Second), WithClock(func() time.Time { return now }))

	frames := []Frame{
		{Dispatched: true, Dispatch: 10 * time.Millisecond},
		{},
		{Dispatched: true, Dispatch: 30 * time.Millisecond},
	}
	for _, f := range frames {
		now = now.Add(250 * time.Millisecond)
		_, logged := p.Tick(f)
		assert.False(t, logged)
	}

	now = now.Add(250 * time.Millisecond)
	last := Frame{State: "refining", SuperSampling: 8, Mode: "single"}
	stats, logged := p.Tick(last)
	assert.True(t, logged)
	assert.InDelta(t, 4.0, stats.FPS, 1e-9)
	assert.Equal(t, 2, stats.Dispatches)
	assert.Equal(t, 20*time.Millisecond, stats.AvgDispatch)
	assert.Equal(t, 30*time.Millisecond, stats.MaxDispatch)
	assert.Equal(t, last, stats.Last)

	now = now.Add(time.Second)
	stats, logged = p.Tick(Frame{})
	assert.True(t, logged)
	assert.Zero(t, stats.Dispatches)
	assert.Zero(t, stats.AvgDispatch)
	assert.InDelta(t, 1.0, stats.FPS, 1e-9)
}
