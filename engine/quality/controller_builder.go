package quality

import "time"

// ControllerBuilderOption is a functional option for configuring a controller.
// Use the With* functions to create options.
type ControllerBuilderOption func(c *controller)

// WithTunables replaces every tunable at once. Out-of-domain fields fall back to their defaults.
//
// Parameters:
//   - t: the tunables to use
//
// Returns:
//   - ControllerBuilderOption: option function to apply
func WithTunables(t Tunables) ControllerBuilderOption {
	return func(c *controller) {
		c.tunables = t
	}
}

// WithShortestFrame sets the frame budget used while zooming or moving.
func WithShortestFrame(d time.Duration) ControllerBuilderOption {
	return func(c *controller) {
		c.tunables.ShortestFrame = d
	}
}

// WithMaxFrame sets the refinement budget limit.
func WithMaxFrame(d time.Duration) ControllerBuilderOption {
	return func(c *controller) {
		c.tunables.MaxFrame = d
	}
}

// WithBaselineSuperSampling sets the ceiling restored after a refinement cycle.
func WithBaselineSuperSampling(n int) ControllerBuilderOption {
	return func(c *controller) {
		c.tunables.BaselineSuperSampling = n
	}
}

// WithBackoffBase sets the per-level growth of the refinement budget.
func WithBackoffBase(base float64) ControllerBuilderOption {
	return func(c *controller) {
		c.tunables.BackoffBase = base
	}
}

// WithMaxSuperSampling sets the ceiling cap.
func WithMaxSuperSampling(n int) ControllerBuilderOption {
	return func(c *controller) {
		c.tunables.MaxSuperSampling = n
	}
}

// WithIdleGrace sets how long input must be idle before refinement may start.
func WithIdleGrace(d time.Duration) ControllerBuilderOption {
	return func(c *controller) {
		c.tunables.IdleGrace = d
	}
}

// WithAutomaticQuality enables or disables ceiling sizing. When disabled the ceiling only changes through
// SetSuperSampling, while refinement cycles still terminate. Defaults to enabled.
func WithAutomaticQuality(enabled bool) ControllerBuilderOption {
	return func(c *controller) {
		c.auto = enabled
	}
}

// WithClock replaces time.Now for idle detection.
//
// Parameters:
//   - now: the clock function
//
// Returns:
//   - ControllerBuilderOption: option function to apply
func WithClock(now func() time.Time) ControllerBuilderOption {
	return func(c *controller) {
		c.now = now
	}
}
