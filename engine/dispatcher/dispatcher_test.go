package dispatcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/chaos-go/engine/kernel"
	"github.com/Carmen-Shannon/chaos-go/engine/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

type fakeFunction struct {
	name  string
	err   error
	calls []kernel.LaunchOptions
}

func (f *fakeFunction) Name() string {
	return f.name
}

func (f *fakeFunction) Launch(_ context.Context, _ *params.Block, opts kernel.LaunchOptions) error {
	f.calls = append(f.calls, opts)
	return f.err
}

func TestDispatchMeasuresDuration(t *testing.T) {
	clock := &stepClock{step: 42 * time.Millisecond}
	d := NewDispatcher(WithClock(clock.Now))
	fn := &fakeFunction{name: kernel.EntryPointSingle}

	opts := kernel.LaunchOptions{Width: 64, Height: 32, ResetAccumulation: true}
	elapsed, err := d.Dispatch(context.Background(), fn, params.NewBlock(), opts)
	require.NoError(t, err)
	assert.Equal(t, 42*time.Millisecond, elapsed)
	assert.Equal(t, []kernel.LaunchOptions{opts}, fn.calls)
}

func TestDispatchWrapsLaunchError(t *testing.T) {
	boom := errors.New("device lost")
	d := NewDispatcher()
	fn := &fakeFunction{name: kernel.EntryPointDouble, err: boom}

	_, err := d.Dispatch(context.Background(), fn, params.NewBlock(), kernel.LaunchOptions{})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), kernel.EntryPointDouble)

	_, err = d.Dispatch(context.Background(), nil, params.NewBlock(), kernel.LaunchOptions{})
	assert.ErrorIs(t, err, ErrNoFunction)
}

func TestQueueRunsFIFOAndClears(t *testing.T) {
	q := NewActionQueue()
	var order []string
	for _, name := range []string{"a", "b", "c"} {
		q.Enqueue(name, func() error {
			order = append(order, name)
			return nil
		})
	}
	require.Equal(t, 3, q.Len())
	require.NoError(t, q.Drain())
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, q.Len())
}

func TestQueueClearedOnError(t *testing.T) {
	q := NewActionQueue()
	ran := 0
	q.Enqueue("fails", func() error { return errors.New("nope") })
	q.Enqueue("skipped", func() error { ran++; return nil })

	err := q.Drain()
	assert.ErrorContains(t, err, "action fails")
	assert.Equal(t, 0, ran)
	assert.Equal(t, 0, q.Len())
	assert.NoError(t, q.Drain())
}

func TestQueueClearedOnPanic(t *testing.T) {
	q := NewActionQueue()
	q.Enqueue("explodes", func() error { panic("kaboom") })
	q.Enqueue("after", func() error { return nil })

	err := q.Drain()
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "kaboom", pe.Value)
	assert.Equal(t, "action explodes", pe.Op)
	assert.Equal(t, 0, q.Len())
}

func TestQueueDefersActionsEnqueuedWhileDraining(t *testing.T) {
	q := NewActionQueue()
	ran := 0
	q.Enqueue("outer", func() error {
		q.Enqueue("inner", func() error { ran++; return nil })
		return nil
	})
	require.NoError(t, q.Drain())
	assert.Equal(t, 0, ran)
	require.NoError(t, q.Drain())
	assert.Equal(t, 1, ran)
}

func TestPolicyProductionSwallows(t *testing.T) {
	p := NewPolicy(WithDebug(false))
	assert.NoError(t, p.Handle("dispatch", errors.New("driver")))
	assert.NoError(t, p.Guard("render", func() error { panic("driver") }))
	assert.NoError(t, p.Handle("noop", nil))
}

func TestPolicyDebugPropagates(t *testing.T) {
	p := NewPolicy(WithDebug(true))
	boom := errors.New("driver")
	assert.ErrorIs(t, p.Handle("dispatch", boom), boom)
	assert.PanicsWithValue(t, "driver", func() {
		_ = p.Guard("render", func() error { panic("driver") })
	})
	assert.True(t, p.Debug())
}

func TestFrameOrdering(t *testing.T) {
	d := NewDispatcher(WithPolicy(NewPolicy(WithDebug(true))))
	var log []string
	d.Enqueue("first", func() error { log = append(log, "action"); return nil })

	rendered, err := d.Frame(context.Background(), func(context.Context) error {
		log = append(log, "render")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, rendered)
	assert.Equal(t, []string{"action", "render"}, log)
}

func TestFrameSkipAfterAction(t *testing.T) {
	d := NewDispatcher()
	d.Enqueue("snapshot", func() error { d.SkipNextRender(); return nil })

	calls := 0
	render := func(context.Context) error { calls++; return nil }

	rendered, err := d.Frame(context.Background(), render)
	require.NoError(t, err)
	assert.False(t, rendered)

	rendered, err = d.Frame(context.Background(), render)
	require.NoError(t, err)
	assert.True(t, rendered)
	assert.Equal(t, 1, calls)
}

func TestFrameFailedActionSkipsRender(t *testing.T) {
	d := NewDispatcher(WithPolicy(NewPolicy(WithDebug(false))))
	d.Enqueue("bad", func() error { return errors.New("bad") })

	rendered, err := d.Frame(context.Background(), func(context.Context) error {
		t.Fatal("render must not run")
		return nil
	})
	assert.NoError(t, err)
	assert.False(t, rendered)
	assert.Equal(t, 0, d.Queue().Len())
}
