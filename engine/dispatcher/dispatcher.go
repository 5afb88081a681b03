// Package dispatcher runs the render thread's per-frame work: deferred actions first, then at most one synchronous
// kernel dispatch whose wall-clock duration is fed back to the quality controller.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/chaos-go/common"
	"github.com/Carmen-Shannon/chaos-go/engine/kernel"
	"github.com/Carmen-Shannon/chaos-go/engine/params"
)

// ErrNoFunction is returned when Dispatch is called without a bound entry point.
var ErrNoFunction = errors.New("dispatcher: no kernel function bound")

// Dispatcher invokes kernel functions synchronously and owns the per-frame ordering of deferred actions.
type Dispatcher interface {
	// Dispatch launches fn once with block and measures the wall-clock time until it completes.
	//
	// Parameters:
	//   - ctx: passed to the launch
	//   - fn: the bound entry point
	//   - block: the populated parameter block
	//   - opts: grid and accumulation settings
	//
	// Returns:
	//   - time.Duration: the measured duration, also reported on failure
	//   - error: ErrNoFunction, or the launch error wrapped with the entry point name
	Dispatch(ctx context.Context, fn kernel.Function, block *params.Block, opts kernel.LaunchOptions) (time.Duration, error)

	// Enqueue defers an action to the start of the next frame. Safe to call from any goroutine.
	Enqueue(name string, action Action)

	// SkipNextRender makes the next frame stop after its deferred actions. Intended for actions that read back
	// the current output and must not have it overwritten in the same frame.
	SkipNextRender()

	// Frame runs one frame: drains deferred actions, then calls render unless a skip was requested or an action failed.
	// Failures in either step go through the Policy, so in production a failing frame is logged and dropped.
	//
	// Parameters:
	//   - ctx: passed to render
	//   - render: the render step
	//
	// Returns:
	//   - bool: true if render ran
	//   - error: the Policy result
	Frame(ctx context.Context, render func(ctx context.Context) error) (bool, error)

	Queue() *ActionQueue
	Policy() *Policy
}

type dispatcher struct {
	queue  *ActionQueue
	policy *Policy
	now    func() time.Time
	skip   bool
}

var _ Dispatcher = &dispatcher{}

// NewDispatcher creates a Dispatcher with an empty action queue.
//
// Parameters:
//   - options: functional options to apply
//
// Returns:
//   - Dispatcher: the new dispatcher
func NewDispatcher(options ...DispatcherBuilderOption) Dispatcher {
	d := &dispatcher{
		queue: NewActionQueue(),
		now:   time.Now,
	}
	for _, opt := range options {
		opt(d)
	}
	if d.policy == nil {
		d.policy = NewPolicy()
	}
	return d
}

func (d *dispatcher) Dispatch(ctx context.Context, fn kernel.Function, block *params.Block, opts kernel.LaunchOptions) (time.Duration, error) {
	if fn == nil {
		return 0, ErrNoFunction
	}
	start := d.now()
	err := fn.Launch(ctx, block, opts)
	elapsed := d.now().Sub(start)
	if err != nil {
		return elapsed, fmt.Errorf("dispatch %s: %w", fn.Name(), err)
	}
	common.Logger().Debug("dispatch",
		slog.String("function", fn.Name()),
		slog.Duration("elapsed", elapsed),
		slog.Int("width", opts.Width),
		slog.Int("height", opts.Height),
		slog.Bool("reset", opts.ResetAccumulation),
	)
	return elapsed, nil
}

func (d *dispatcher) Enqueue(name string, action Action) {
	d.queue.Enqueue(name, action)
}

func (d *dispatcher) SkipNextRender() {
	d.skip = true
}

func (d *dispatcher) Frame(ctx context.Context, render func(ctx context.Context) error) (bool, error) {
	if err := d.queue.Drain(); err != nil {
		return false, d.policy.Handle("deferred actions", err)
	}
	if d.skip {
		d.skip = false
		return false, nil
	}
	err := d.policy.Guard("render", func() error {
		return render(ctx)
	})
	return true, err
}

func (d *dispatcher) Queue() *ActionQueue {
	return d.queue
}

func (d *dispatcher) Policy() *Policy {
	return d.policy
}

// DispatcherBuilderOption is a functional option for configuring a dispatcher.
// Use the With* functions to create options.
type DispatcherBuilderOption func(d *dispatcher)

// WithPolicy sets the failure policy. Defaults to NewPolicy().
//
// Parameters:
//   - p: the policy
//
// Returns:
//   - DispatcherBuilderOption: option function to apply
func WithPolicy(p *Policy) DispatcherBuilderOption {
	return func(d *dispatcher) {
		d.policy = p
	}
}

// WithClock replaces time.Now for dispatch timing.
func WithClock(now func() time.Time) DispatcherBuilderOption {
	return func(d *dispatcher) {
		d.now = now
	}
}
