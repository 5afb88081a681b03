// Package quality holds the adaptive render quality controller. It keeps interactive frames fast while the view
// is manipulated and, once input goes idle, ramps supersampling through a bounded progressive refinement sequence
// using only the measured duration of the previous dispatch.
//
// The controller reacts to the last measurement alone, with no integral or derivative term, and may oscillate under
// highly variable external load.
package quality

import (
	"log/slog"
	"math"
	"time"

	"github.com/Carmen-Shannon/chaos-go/common"
)

// Pass selects how the dispatcher renders a frame.
type Pass int

const (
	// PassFast renders the frame from scratch.
	PassFast Pass = iota

	// PassQuality accumulates jittered samples onto earlier quality passes.
	PassQuality
)

func (p Pass) String() string {
	if p == PassQuality {
		return "quality"
	}
	return "fast"
}

// Decision is the controller's plan for one frame.
type Decision struct {
	// Dispatch is false when nothing should be rendered this frame.
	Dispatch bool

	// Pass is the render mode for the dispatch.
	Pass Pass

	// SuperSampling is the supersampling ceiling to apply for the dispatch.
	SuperSampling int

	// DesiredFrame is the time budget the ceiling was sized for. Zero when the decision was not computed.
	DesiredFrame time.Duration
}

// Controller is the render quality state machine.
// It is owned by the render thread and is not safe for concurrent use.
type Controller interface {
	// Zoom records a zoom input.
	Zoom()

	// Drag records a drag input.
	Drag()

	// Restart begins a new refinement cycle without user input.
	Restart()

	// Decide plans the next frame. It first fires EventIdle when the idle grace has elapsed, then sizes the
	// supersampling ceiling for the current state, and terminates refinement when the level's budget exceeds
	// MaxFrame.
	//
	// Returns:
	//   - Decision: the plan for the frame
	Decide() Decision

	// Feedback records the measured duration of the dispatch planned by the last Decide and advances the state.
	//
	// Parameters:
	//   - d: wall-clock duration of the dispatch
	Feedback(d time.Duration)

	// NeedsFrame reports whether the render loop should keep producing frames.
	// It is false only while resting after a completed refinement cycle.
	NeedsFrame() bool

	State() State
	SuperSampling() int

	// SetSuperSampling overrides the ceiling, clamped to [1, MaxSuperSampling]. Used while automatic quality is off.
	SetSuperSampling(n int)

	AutomaticQuality() bool
	SetAutomaticQuality(enabled bool)

	LastFrame() time.Duration
	Tunables() Tunables
}

type controller struct {
	tunables  Tunables
	auto      bool
	now       func() time.Time
	state     State
	ceiling   int
	last      time.Duration
	lastInput time.Time
}

var _ Controller = &controller{}

// NewController creates a Controller in the Waiting state with the ceiling at the baseline, so the first frame is fast
// and refinement starts right after it.
//
// Parameters:
//   - options: functional options overriding tunables, the clock or automatic quality
//
// Returns:
//   - Controller: the new controller
func NewController(options ...ControllerBuilderOption) Controller {
	c := &controller{
		tunables: DefaultTunables(),
		auto:     true,
		now:      time.Now,
		state:    State{Phase: PhaseWaiting},
	}
	for _, opt := range options {
		opt(c)
	}
	c.tunables = c.tunables.normalized()
	c.ceiling = common.Clamp(c.tunables.BaselineSuperSampling, 1, c.tunables.MaxSuperSampling)
	c.last = c.tunables.ShortestFrame
	c.lastInput = c.now()
	return c
}

func (c *controller) apply(e Event) {
	next := Transition(c.state, e)
	if next == c.state {
		return
	}
	if next.Phase == PhaseWaiting && next.Complete && c.auto {
		c.ceiling = common.Clamp(c.tunables.BaselineSuperSampling, 1, c.tunables.MaxSuperSampling)
	}
	common.Logger().Debug("render state",
		slog.String("event", e.String()),
		slog.String("from", c.state.String()),
		slog.String("to", next.String()),
		slog.Int("ceiling", c.ceiling),
	)
	c.state = next
}

func (c *controller) Zoom() {
	c.lastInput = c.now()
	c.apply(EventZoom)
}

func (c *controller) Drag() {
	c.lastInput = c.now()
	c.apply(EventDrag)
}

func (c *controller) Restart() {
	c.apply(EventRestart)
}

func (c *controller) Decide() Decision {
	if c.state.Phase == PhaseZooming || c.state.Phase == PhaseMoving {
		if c.now().Sub(c.lastInput) >= c.tunables.IdleGrace {
			c.apply(EventIdle)
		}
	}

	if c.state.Phase == PhaseWaiting && c.state.Complete {
		return Decision{}
	}

	desired := c.desiredFrame()
	if c.state.Phase == PhaseRefining && desired > c.tunables.MaxFrame {
		c.apply(EventTerminate)
		return Decision{}
	}

	d := Decision{
		Dispatch: true,
		Pass:     PassFast,
	}
	if c.state.Phase == PhaseRefining {
		d.Pass = PassQuality
	}
	if c.auto {
		c.ceiling = c.nextCeiling(desired)
		d.DesiredFrame = desired
	}
	d.SuperSampling = c.ceiling
	return d
}

// desiredFrame is the time budget for the current state.
func (c *controller) desiredFrame() time.Duration {
	s := c.tunables.ShortestFrame
	switch c.state.Phase {
	case PhaseWaiting:
		return 2 * s
	case PhaseRefining:
		scale := 2 * math.Pow(c.tunables.BackoffBase, float64(c.state.Level))
		if scale > float64(math.MaxInt64)/float64(s) {
			return time.Duration(math.MaxInt64)
		}
		return time.Duration(float64(s) * scale)
	default:
		return s
	}
}

// nextCeiling scales the ceiling by desired/last, with last floored at one millisecond.
func (c *controller) nextCeiling(desired time.Duration) int {
	lastMs := math.Max(1, float64(c.last)/float64(time.Millisecond))
	desiredMs := float64(desired) / float64(time.Millisecond)
	next := math.Round(float64(c.ceiling) * desiredMs / lastMs)
	next = common.Clamp(next, 1, float64(c.tunables.MaxSuperSampling))
	return int(next)
}

func (c *controller) Feedback(d time.Duration) {
	c.last = max(d, time.Millisecond)

	if c.state.Phase == PhaseRefining && c.ceiling >= c.tunables.MaxSuperSampling {
		c.apply(EventTerminate)
		return
	}
	c.apply(EventFrameDone)
}

func (c *controller) NeedsFrame() bool {
	return !(c.state.Phase == PhaseWaiting && c.state.Complete)
}

func (c *controller) State() State {
	return c.state
}

func (c *controller) SuperSampling() int {
	return c.ceiling
}

func (c *controller) SetSuperSampling(n int) {
	c.ceiling = common.Clamp(n, 1, c.tunables.MaxSuperSampling)
}

func (c *controller) AutomaticQuality() bool {
	return c.auto
}

func (c *controller) SetAutomaticQuality(enabled bool) {
	c.auto = enabled
}

func (c *controller) LastFrame() time.Duration {
	return c.last
}

func (c *controller) Tunables() Tunables {
	return c.tunables
}
