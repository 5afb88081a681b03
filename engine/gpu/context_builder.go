package gpu

import "github.com/cogentcore/webgpu/wgpu"

// contextConfig collects construction-time settings of a Context.
type contextConfig struct {
	surfaceDescriptor    *wgpu.SurfaceDescriptor
	forceFallbackAdapter bool
	presentMode          wgpu.PresentMode
}

// ContextBuilderOption is a functional option for configuring a new Context.
type ContextBuilderOption func(c *contextConfig)

// WithSurface attaches a presentation surface, typically built from a window with wgpuglfw.
//
// Parameters:
//   - descriptor: the platform surface descriptor
//
// Returns:
//   - ContextBuilderOption: option function to apply
func WithSurface(descriptor *wgpu.SurfaceDescriptor) ContextBuilderOption {
	return func(c *contextConfig) {
		c.surfaceDescriptor = descriptor
	}
}

// WithForceFallbackAdapter requests the software fallback adapter when set.
func WithForceFallbackAdapter(force bool) ContextBuilderOption {
	return func(c *contextConfig) {
		c.forceFallbackAdapter = force
	}
}

// WithVSync selects FIFO presentation when enabled and immediate presentation otherwise.
// VSync is on by default.
func WithVSync(enabled bool) ContextBuilderOption {
	return func(c *contextConfig) {
		if enabled {
			c.presentMode = wgpu.PresentModeFifo
		} else {
			c.presentMode = wgpu.PresentModeImmediate
		}
	}
}
