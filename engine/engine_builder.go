package engine

import (
	"time"

	"github.com/Carmen-Shannon/chaos-go/common"
	"github.com/Carmen-Shannon/chaos-go/engine/dispatcher"
	"github.com/Carmen-Shannon/chaos-go/engine/gpu"
	"github.com/Carmen-Shannon/chaos-go/engine/quality"
	"github.com/Carmen-Shannon/chaos-go/engine/renderer"
	"github.com/Carmen-Shannon/chaos-go/engine/snapshot"
	"github.com/Carmen-Shannon/chaos-go/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithWindow sets the window the engine renders into. Required.
//
// Parameters:
//   - w: an open Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithDevice supplies the GPU device instead of creating a gpu.Context on the window surface.
// The engine takes ownership and releases it on shutdown.
func WithDevice(d Device) EngineBuilderOption {
	return func(e *engine) {
		e.device = d
	}
}

// WithContextOptions passes options to the gpu.Context the engine creates. Ignored with WithDevice.
func WithContextOptions(options ...gpu.ContextBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.contextOptions = append(e.contextOptions, options...)
	}
}

// WithProviderOptions passes options to the kernel provider, e.g. a kernel directory or a forced precision.
func WithProviderOptions(options ...renderer.ProviderBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.providerOptions = append(e.providerOptions, options...)
	}
}

// WithControllerOptions passes options to the quality controller.
func WithControllerOptions(options ...quality.ControllerBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.controllerOptions = append(e.controllerOptions, options...)
	}
}

// WithDebug makes render failures stop the loop instead of being logged and dropped.
//
// Parameters:
//   - debug: true to propagate failures
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDebug(debug bool) EngineBuilderOption {
	return func(e *engine) {
		e.policyOptions = append(e.policyOptions, dispatcher.WithDebug(debug))
	}
}

// WithFractal selects the fractal shown first. Defaults to "mandelbrot"; an unknown name falls back to the first
// available kernel.
func WithFractal(name string) EngineBuilderOption {
	return func(e *engine) {
		e.fractal = common.Coalesce(name, e.fractal)
	}
}

// WithPalette sets the palette image path. An empty path selects the bundled palette.
//
// Parameters:
//   - path: a PNG whose first row holds the colours
//   - watch: reload the palette whenever the file changes
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPalette(path string, watch bool) EngineBuilderOption {
	return func(e *engine) {
		e.palettePath = path
		e.watchPalette = watch
	}
}

// WithSaver replaces the snapshot saver. Defaults to snapshot.NewSaver().
func WithSaver(s snapshot.Saver) EngineBuilderOption {
	return func(e *engine) {
		e.saver = s
	}
}

// WithSnapshotFormat sets the image format of snapshots. Defaults to PNG.
func WithSnapshotFormat(f snapshot.Format) EngineBuilderOption {
	return func(e *engine) {
		e.snapshotFormat = f
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithClock replaces time.Now for the controller, snapshot names and the frame limit.
func WithClock(now func() time.Time) EngineBuilderOption {
	return func(e *engine) {
		e.now = now
	}
}
