package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.t = f.t.Add(d)
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestTransition(t *testing.T) {
	refining := func(l int) State { return State{Phase: PhaseRefining, Level: l} }
	waiting := State{Phase: PhaseWaiting}
	complete := State{Phase: PhaseWaiting, Complete: true}
	zooming := State{Phase: PhaseZooming}
	moving := State{Phase: PhaseMoving}

	tests := []struct {
		name  string
		from  State
		event Event
		want  State
	}{
		{"zoom from refining", refining(4), EventZoom, zooming},
		{"drag from waiting", complete, EventDrag, moving},
		{"drag while zooming", zooming, EventDrag, moving},
		{"idle after zoom", zooming, EventIdle, waiting},
		{"idle after move", moving, EventIdle, waiting},
		{"idle while refining", refining(2), EventIdle, refining(2)},
		{"frame while waiting", waiting, EventFrameDone, refining(0)},
		{"frame while refining", refining(2), EventFrameDone, refining(3)},
		{"frame while resting", complete, EventFrameDone, complete},
		{"frame while zooming", zooming, EventFrameDone, zooming},
		{"terminate refining", refining(5), EventTerminate, complete},
		{"terminate zooming", zooming, EventTerminate, zooming},
		{"restart resting", complete, EventRestart, waiting},
		{"restart refining", refining(1), EventRestart, waiting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Transition(tt.from, tt.event))
		})
	}
}

func TestRefiningLevelZeroSizing(t *testing.T) {
	c := NewController().(*controller)
	c.state = State{Phase: PhaseRefining}
	c.ceiling = 5
	c.last = 15 * time.Millisecond

	d := c.Decide()
	assert.True(t, d.Dispatch)
	assert.Equal(t, PassQuality, d.Pass)
	assert.Equal(t, 30*time.Millisecond, d.DesiredFrame)
	assert.Equal(t, 10, d.SuperSampling)
	assert.Equal(t, 10, c.SuperSampling())
}

func TestDesiredFrameByState(t *testing.T) {
	c := NewController().(*controller)
	want := map[State]time.Duration{
		{Phase: PhaseZooming}:            15 * time.Millisecond,
		{Phase: PhaseMoving}:             15 * time.Millisecond,
		{Phase: PhaseWaiting}:            30 * time.Millisecond,
		{Phase: PhaseRefining, Level: 0}: 30 * time.Millisecond,
		{Phase: PhaseRefining, Level: 3}: 240 * time.Millisecond,
	}
	for s, d := range want {
		c.state = s
		assert.Equal(t, d, c.desiredFrame(), s.String())
	}
}

// runRefinement drives Decide and Feedback from the current state until nothing is dispatched, feeding back
// the next level's budget so the ceiling holds steady. It returns the levels that were dispatched.
func runRefinement(t *testing.T, c Controller) []int {
	t.Helper()
	var levels []int
	for i := 0; i < 100; i++ {
		state := c.State()
		d := c.Decide()
		if !d.Dispatch {
			return levels
		}
		require.Equal(t, PhaseRefining, state.Phase)
		levels = append(levels, state.Level)
		c.Feedback(2 * c.(*controller).desiredFrame())
	}
	t.Fatal("refinement did not terminate")
	return nil
}

func TestRefinementTerminatesOnBudgetRegardlessOfCeiling(t *testing.T) {
	for _, ceiling := range []int{1, 10, 200} {
		c := NewController().(*controller)
		c.state = State{Phase: PhaseRefining}
		c.ceiling = ceiling
		c.last = 30 * time.Millisecond

		levels := runRefinement(t, c)
		assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, levels, "ceiling %d", ceiling)
		assert.Equal(t, State{Phase: PhaseWaiting, Complete: true}, c.State())
		assert.Equal(t, 10, c.SuperSampling())
		assert.False(t, c.NeedsFrame())
	}
}

func TestRefinementTerminatesAtMaxSuperSampling(t *testing.T) {
	c := NewController().(*controller)
	c.state = State{Phase: PhaseRefining, Level: 1}
	c.ceiling = 200
	c.last = 15 * time.Millisecond

	d := c.Decide()
	require.True(t, d.Dispatch)
	assert.Equal(t, 256, d.SuperSampling)

	c.Feedback(60 * time.Millisecond)
	assert.Equal(t, State{Phase: PhaseWaiting, Complete: true}, c.State())
	assert.Equal(t, 10, c.SuperSampling())
	assert.False(t, c.Decide().Dispatch)
}

func TestEndToEndZoomThenRefine(t *testing.T) {
	clock := newFakeClock()
	c := NewController(WithClock(clock.Now))

	c.Zoom()
	assert.Equal(t, PhaseZooming, c.State().Phase)
	d := c.Decide()
	assert.True(t, d.Dispatch)
	assert.Equal(t, PassFast, d.Pass)
	assert.Equal(t, 15*time.Millisecond, d.DesiredFrame)
	c.Feedback(15 * time.Millisecond)

	clock.Advance(499 * time.Millisecond)
	c.Decide()
	assert.Equal(t, PhaseZooming, c.State().Phase)
	c.Feedback(15 * time.Millisecond)

	clock.Advance(time.Millisecond)
	d = c.Decide()
	assert.Equal(t, PhaseWaiting, c.State().Phase)
	assert.Equal(t, PassFast, d.Pass)
	assert.Equal(t, 30*time.Millisecond, d.DesiredFrame)
	c.Feedback(30 * time.Millisecond)

	assert.Equal(t, State{Phase: PhaseRefining}, c.State())
	levels := runRefinement(t, c)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, levels)
	assert.Equal(t, State{Phase: PhaseWaiting, Complete: true}, c.State())
	assert.Equal(t, 10, c.SuperSampling())
	assert.False(t, c.NeedsFrame())

	c.Drag()
	assert.Equal(t, PhaseMoving, c.State().Phase)
	assert.True(t, c.NeedsFrame())
}

func TestInputAbortsRefinement(t *testing.T) {
	c := NewController()
	c.Decide()
	c.Feedback(15 * time.Millisecond)
	require.Equal(t, PhaseRefining, c.State().Phase)

	c.Zoom()
	d := c.Decide()
	assert.Equal(t, PhaseZooming, c.State().Phase)
	assert.Equal(t, PassFast, d.Pass)
}

func TestAutomaticQualityDisabled(t *testing.T) {
	c := NewController(WithAutomaticQuality(false))
	c.SetSuperSampling(7)

	d := c.Decide()
	assert.True(t, d.Dispatch)
	assert.Equal(t, 7, d.SuperSampling)
	assert.Zero(t, d.DesiredFrame)
	c.Feedback(time.Second)

	levels := runRefinement(t, c)
	assert.Len(t, levels, 6)
	assert.Equal(t, 7, c.SuperSampling())
	assert.False(t, c.NeedsFrame())

	c.SetSuperSampling(1000)
	assert.Equal(t, 256, c.SuperSampling())
}

func TestFeedbackFloorsAtOneMillisecond(t *testing.T) {
	c := NewController()
	c.Zoom()
	c.Feedback(100 * time.Microsecond)
	assert.Equal(t, time.Millisecond, c.LastFrame())

	d := c.Decide()
	assert.Equal(t, 150, d.SuperSampling)
}

func TestRestart(t *testing.T) {
	c := NewController().(*controller)
	c.state = State{Phase: PhaseWaiting, Complete: true}
	require.False(t, c.NeedsFrame())

	c.Restart()
	assert.True(t, c.NeedsFrame())
	d := c.Decide()
	assert.True(t, d.Dispatch)
	assert.Equal(t, PassFast, d.Pass)
}

func TestTunablesOverride(t *testing.T) {
	c := NewController(
		WithShortestFrame(10*time.Millisecond),
		WithMaxFrame(100*time.Millisecond),
		WithBaselineSuperSampling(4),
		WithBackoffBase(0),
		WithMaxSuperSampling(64),
		WithIdleGrace(time.Second),
	)
	got := c.Tunables()
	assert.Equal(t, 10*time.Millisecond, got.ShortestFrame)
	assert.Equal(t, 100*time.Millisecond, got.MaxFrame)
	assert.Equal(t, 4, got.BaselineSuperSampling)
	assert.Equal(t, 2.0, got.BackoffBase)
	assert.Equal(t, 64, got.MaxSuperSampling)
	assert.Equal(t, time.Second, got.IdleGrace)
	assert.Equal(t, 4, c.SuperSampling())

	c = NewController(WithTunables(Tunables{IdleGrace: 500 * time.Millisecond}))
	assert.Equal(t, DefaultTunables(), c.Tunables())
}
