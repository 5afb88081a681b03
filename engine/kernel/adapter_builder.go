package kernel

import (
	"github.com/Carmen-Shannon/chaos-go/engine/plane"
	"github.com/Carmen-Shannon/chaos-go/engine/precision"
)

// adapterConfig collects construction-time settings before the adapter's slots are written.
type adapterConfig struct {
	mode          precision.Mode
	width, height int
	segment       *plane.Segment
	maxIterations int
}

// AdapterBuilderOption is a functional option for configuring a new Adapter.
// Use the With* functions to create options.
type AdapterBuilderOption func(c *adapterConfig)

// WithMode sets the precision the adapter encodes reals with. Defaults to precision.Single.
//
// Parameters:
//   - mode: the precision mode
//
// Returns:
//   - AdapterBuilderOption: option function to apply
func WithMode(mode precision.Mode) AdapterBuilderOption {
	return func(c *adapterConfig) {
		c.mode = mode
	}
}

// WithOutputSize sets the initial output size. It is validated like SetOutputSize.
//
// Parameters:
//   - width: output width in pixels
//   - height: output height in pixels
//
// Returns:
//   - AdapterBuilderOption: option function to apply
func WithOutputSize(width, height int) AdapterBuilderOption {
	return func(c *adapterConfig) {
		c.width, c.height = width, height
	}
}

// WithSegment sets the initial plane segment in place of DefaultSegment.
func WithSegment(segment plane.Segment) AdapterBuilderOption {
	return func(c *adapterConfig) {
		c.segment = &segment
	}
}

// WithMaxIterations sets the initial iteration cap.
func WithMaxIterations(n int) AdapterBuilderOption {
	return func(c *adapterConfig) {
		c.maxIterations = n
	}
}
