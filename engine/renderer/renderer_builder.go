package renderer

import (
	"io/fs"

	"github.com/Carmen-Shannon/chaos-go/common"
	"github.com/Carmen-Shannon/chaos-go/engine/plane"
	"github.com/Carmen-Shannon/chaos-go/engine/precision"
)

// DefaultCacheSize is the number of compiled modules a Provider keeps unless configured otherwise.
const DefaultCacheSize = 4

// DefaultMaxIterations is the iteration cap renderers start with.
const DefaultMaxIterations = 1024

// rendererConfig collects the settings a Provider hands to every renderer it builds.
type rendererConfig struct {
	kernels       fs.FS
	cacheSize     int
	maxIterations int
	forcedMode    *precision.Mode
	adaptiveSS    bool
	visualiseSS   bool
	center        common.Point
	zoom          float64
}

func defaultRendererConfig() *rendererConfig {
	return &rendererConfig{
		kernels:       BundledKernels(),
		cacheSize:     DefaultCacheSize,
		maxIterations: DefaultMaxIterations,
		adaptiveSS:    true,
		center:        plane.DefaultCenter,
		zoom:          plane.DefaultZoom,
	}
}

// ProviderBuilderOption is a functional option applied to a Provider during construction via NewProvider.
type ProviderBuilderOption func(c *rendererConfig)

// WithKernels replaces the bundled kernel sources, for example with os.DirFS of a directory being edited.
//
// Parameters:
//   - kernels: file system holding the .wgsl sources at its root
//
// Returns:
//   - ProviderBuilderOption: a function that applies the kernel source option
func WithKernels(kernels fs.FS) ProviderBuilderOption {
	return func(c *rendererConfig) {
		c.kernels = kernels
	}
}

// WithCacheSize sets how many compiled modules are kept. Values below 1 are raised to 1.
func WithCacheSize(n int) ProviderBuilderOption {
	return func(c *rendererConfig) {
		c.cacheSize = max(n, 1)
	}
}

// WithMaxIterations sets the iteration cap new renderers start with.
func WithMaxIterations(n int) ProviderBuilderOption {
	return func(c *rendererConfig) {
		c.maxIterations = n
	}
}

// WithForcedMode pins renderers to one precision instead of switching to double at the float limit.
//
// Parameters:
//   - mode: the only precision renderers will dispatch with
//
// Returns:
//   - ProviderBuilderOption: a function that applies the forced mode option
func WithForcedMode(mode precision.Mode) ProviderBuilderOption {
	return func(c *rendererConfig) {
		c.forcedMode = &mode
	}
}

// WithAdaptiveSS toggles the early exit for samples inside the set. On by default.
func WithAdaptiveSS(enabled bool) ProviderBuilderOption {
	return func(c *rendererConfig) {
		c.adaptiveSS = enabled
	}
}

// WithVisualiseAdaptiveSS tints pixels that received more than one sample.
func WithVisualiseAdaptiveSS(enabled bool) ProviderBuilderOption {
	return func(c *rendererConfig) {
		c.visualiseSS = enabled
	}
}

// WithInitialView sets the view renderers open with and return to on ResetView.
//
// Parameters:
//   - center: the plane point at the middle of the output
//   - zoom: the segment height in plane units
//
// Returns:
//   - ProviderBuilderOption: a function that applies the initial view option
func WithInitialView(center common.Point, zoom float64) ProviderBuilderOption {
	return func(c *rendererConfig) {
		c.center = center
		c.zoom = zoom
	}
}
