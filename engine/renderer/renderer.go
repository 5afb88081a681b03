// Package renderer turns compiled fractal kernels into renderers driven by the frame loop.
//
// A FractalRenderer owns one adapter per precision its kernel supports and keeps them in step, so switching from
// the single to the double entry point as the view deepens never loses state. Renderers are obtained from a
// Provider, which compiles bundled or user supplied kernel sources and caches the resulting modules.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/chaos-go/common"
	"github.com/Carmen-Shannon/chaos-go/engine/dispatcher"
	"github.com/Carmen-Shannon/chaos-go/engine/gpu/shader"
	"github.com/Carmen-Shannon/chaos-go/engine/kernel"
	"github.com/Carmen-Shannon/chaos-go/engine/plane"
	"github.com/Carmen-Shannon/chaos-go/engine/precision"
	"github.com/Carmen-Shannon/chaos-go/engine/quality"
)

var (
	// ErrNoOutput is returned when a renderer is used before its first Resize.
	ErrNoOutput = errors.New("renderer: output not allocated")

	// ErrClosed is returned by operations on a renderer after Close.
	ErrClosed = errors.New("renderer: closed")
)

// Compiler builds kernel modules from parsed shaders.
type Compiler interface {
	CompileModule(s shader.Shader) (kernel.Module, error)
}

// Target owns the output surface kernels write into.
type Target interface {
	// AllocOutput replaces the output surface with one of the given size.
	//
	// Parameters:
	//   - width, height: the new size in pixels
	//
	// Returns:
	//   - kernel.Output: the descriptor adapters must be pointed at
	//   - error: error if allocation fails
	AllocOutput(width, height int) (kernel.Output, error)

	// ReadOutput copies the current output back to host memory.
	ReadOutput(ctx context.Context) (*common.ImageData, error)
}

// FractalRenderer renders one fractal. It must only be used from the render thread.
type FractalRenderer interface {
	// Name returns the kernel name the renderer was built from.
	Name() string

	// DisplayName returns the human readable fractal name declared by the kernel.
	DisplayName() string

	// Mode returns the precision the next dispatch will use.
	Mode() precision.Mode

	// Adapter returns the adapter of the precision the next dispatch will use.
	Adapter() kernel.Adapter

	// Resize reallocates the output surface and adapts the view to the new size, keeping its centre and the
	// plane size of one pixel row.
	//
	// Parameters:
	//   - width, height: the new output size in pixels
	//
	// Returns:
	//   - error: kernel.ErrInvalidArgument for a non-positive size, or the allocation error
	Resize(width, height int) error

	OutputSize() (int, int)

	// SetSegment replaces the plane segment mapped onto the output.
	SetSegment(seg plane.Segment) error
	Segment() plane.Segment

	SetMaxIterations(n int) error
	MaxIterations() int

	// ZoomAt zooms around the plane point under a pixel and moves the foveation focus there.
	//
	// Parameters:
	//   - px, py: the pixel the zoom is anchored at
	//   - direction: positive zooms in, negative zooms out, one unit per wheel step
	//
	// Returns:
	//   - error: error if the zoomed segment is rejected
	ZoomAt(px, py, direction float64) error

	// Pan moves the view so the content follows a pointer dragged by dx, dy pixels.
	Pan(dx, dy float64) error

	// ResetView returns to the initial view for the current output size.
	ResetView() error

	SetFocus(x, y int)
	SetFocusDefault()
	SetAdaptiveSS(enabled bool)
	SetVisualiseAdaptiveSS(enabled bool)

	// Invalidate makes the next pass start from scratch, for changes the parameter block does not track such as
	// a new palette.
	Invalidate()

	// Render dispatches the kernel once according to a quality decision.
	// Fast passes render from scratch within the foveation radius around the focus; quality passes cover the
	// whole output with jittered samples accumulated onto the previous passes unless a parameter changed.
	//
	// Parameters:
	//   - ctx: passed to the dispatch
	//   - d: the dispatcher measuring the launch
	//   - decision: the controller's plan for this frame
	//
	// Returns:
	//   - time.Duration: the measured dispatch duration, 0 when the decision asked for no dispatch
	//   - error: ErrNoOutput before the first Resize, ErrClosed after Close, or the dispatch error
	Render(ctx context.Context, d dispatcher.Dispatcher, decision quality.Decision) (time.Duration, error)

	// DebugRightBottomPixel reads back the output and logs the colour and plane position of its last pixel.
	DebugRightBottomPixel(ctx context.Context) error

	// Close detaches the renderer. The compiled module stays with the Provider that built it.
	// A closed renderer still reports its last view and iteration count; everything that changes or renders it
	// returns ErrClosed.
	Close() error
}

type fractalRenderer struct {
	name        string
	displayName string
	target      Target

	single   kernel.Adapter
	singleFn kernel.Function
	double   kernel.Adapter
	doubleFn kernel.Function

	initialCenter common.Point
	initialZoom   float64

	lastMode precision.Mode
	rendered bool
	seed     uint32
	closed   bool
}

var _ FractalRenderer = &fractalRenderer{}

// newFractalRenderer resolves the entry points of m and builds one adapter per available precision.
// A forced mode keeps only that precision.
func newFractalRenderer(name, displayName string, m kernel.Module, target Target, cfg *rendererConfig) (*fractalRenderer, error) {
	r := &fractalRenderer{
		name:          name,
		displayName:   displayName,
		target:        target,
		initialCenter: cfg.center,
		initialZoom:   cfg.zoom,
	}

	var err error
	if cfg.forcedMode == nil || *cfg.forcedMode == precision.Single {
		if r.singleFn, err = optionalFunction(m, kernel.EntryPointSingle); err != nil {
			return nil, err
		}
	}
	if cfg.forcedMode == nil || *cfg.forcedMode == precision.Double {
		if r.doubleFn, err = optionalFunction(m, kernel.EntryPointDouble); err != nil {
			return nil, err
		}
	}

	if r.singleFn == nil && r.doubleFn == nil {
		if cfg.forcedMode != nil {
			return nil, fmt.Errorf("%s: no %s entry point: %w", name, *cfg.forcedMode, kernel.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: no render entry point: %w", name, kernel.ErrNotFound)
	}

	if r.singleFn != nil {
		if r.single, err = newAdapter(precision.Single, cfg); err != nil {
			return nil, err
		}
	}
	if r.doubleFn != nil {
		if r.double, err = newAdapter(precision.Double, cfg); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// optionalFunction resolves an entry point, treating a missing one as nil.
func optionalFunction(m kernel.Module, entryPoint string) (kernel.Function, error) {
	fn, err := m.Function(entryPoint)
	if errors.Is(err, kernel.ErrNotFound) {
		return nil, nil
	}
	return fn, err
}

func newAdapter(mode precision.Mode, cfg *rendererConfig) (kernel.Adapter, error) {
	a, err := kernel.NewAdapter(kernel.WithMode(mode), kernel.WithMaxIterations(cfg.maxIterations))
	if err != nil {
		return nil, err
	}
	a.SetAdaptiveSS(cfg.adaptiveSS)
	a.SetVisualiseAdaptiveSS(cfg.visualiseSS)
	return a, nil
}

// adapters returns the adapters the renderer holds, single first.
func (r *fractalRenderer) adapters() []kernel.Adapter {
	out := make([]kernel.Adapter, 0, 2)
	if r.single != nil {
		out = append(out, r.single)
	}
	if r.double != nil {
		out = append(out, r.double)
	}
	return out
}

func (r *fractalRenderer) each(apply func(a kernel.Adapter) error) error {
	for _, a := range r.adapters() {
		if err := apply(a); err != nil {
			return err
		}
	}
	return nil
}

// active picks the single entry point until its precision is exhausted for the current view, then the double one.
func (r *fractalRenderer) active() (kernel.Adapter, kernel.Function) {
	switch {
	case r.single == nil:
		return r.double, r.doubleFn
	case r.double == nil:
		return r.single, r.singleFn
	case r.single.IsAtFloatLimit():
		return r.double, r.doubleFn
	default:
		return r.single, r.singleFn
	}
}

func (r *fractalRenderer) Name() string {
	return r.name
}

func (r *fractalRenderer) DisplayName() string {
	return r.displayName
}

func (r *fractalRenderer) Mode() precision.Mode {
	a, _ := r.active()
	return a.Mode()
}

func (r *fractalRenderer) Adapter() kernel.Adapter {
	a, _ := r.active()
	return a
}

func (r *fractalRenderer) Resize(width, height int) error {
	if r.closed {
		return ErrClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resize to %dx%d: %w", width, height, kernel.ErrInvalidArgument)
	}
	_, oldHeight := r.OutputSize()

	out, err := r.target.AllocOutput(width, height)
	if err != nil {
		return fmt.Errorf("resize to %dx%d: %w", width, height, err)
	}

	seg := r.Segment().Resize(oldHeight, width, height)
	if oldHeight <= 0 {
		seg = plane.FromCenter(r.initialCenter, r.initialZoom, float64(width)/float64(height))
	}
	err = r.each(func(a kernel.Adapter) error {
		a.SetOutput(out)
		if err := a.SetOutputSize(width, height); err != nil {
			return err
		}
		a.SetFocusDefault()
		return setSegment(a, seg)
	})
	if err != nil {
		return err
	}

	common.Logger().Debug("renderer resized",
		slog.String("fractal", r.name),
		slog.Int("width", width),
		slog.Int("height", height),
		slog.String("segment", seg.String()),
	)
	return nil
}

func (r *fractalRenderer) OutputSize() (int, int) {
	a, _ := r.active()
	return a.OutputSize()
}

func setSegment(a kernel.Adapter, seg plane.Segment) error {
	lbx, lby, rtx, rty := seg.Bounds()
	return a.SetPlaneSegment(lbx, lby, rtx, rty)
}

func (r *fractalRenderer) SetSegment(seg plane.Segment) error {
	if r.closed {
		return ErrClosed
	}
	return r.each(func(a kernel.Adapter) error {
		return setSegment(a, seg)
	})
}

func (r *fractalRenderer) Segment() plane.Segment {
	a, _ := r.active()
	return a.PlaneSegment()
}

func (r *fractalRenderer) SetMaxIterations(n int) error {
	if r.closed {
		return ErrClosed
	}
	return r.each(func(a kernel.Adapter) error {
		return a.SetMaxIterations(n)
	})
}

func (r *fractalRenderer) MaxIterations() int {
	a, _ := r.active()
	return a.MaxIterations()
}

func (r *fractalRenderer) ZoomAt(px, py, direction float64) error {
	if r.closed {
		return ErrClosed
	}
	w, h := r.OutputSize()
	if w <= 0 || h <= 0 {
		return ErrNoOutput
	}
	r.SetFocus(int(px), int(py))
	return r.SetSegment(r.Segment().ZoomAt(px, py, w, h, direction))
}

func (r *fractalRenderer) Pan(dx, dy float64) error {
	if r.closed {
		return ErrClosed
	}
	w, h := r.OutputSize()
	if w <= 0 || h <= 0 {
		return ErrNoOutput
	}
	r.SetFocusDefault()
	return r.SetSegment(r.Segment().Pan(dx, dy, w, h))
}

func (r *fractalRenderer) ResetView() error {
	if r.closed {
		return ErrClosed
	}
	w, h := r.OutputSize()
	if w <= 0 || h <= 0 {
		return ErrNoOutput
	}
	r.SetFocusDefault()
	return r.SetSegment(plane.FromCenter(r.initialCenter, r.initialZoom, float64(w)/float64(h)))
}

func (r *fractalRenderer) SetFocus(x, y int) {
	for _, a := range r.adapters() {
		a.SetFocus(x, y)
	}
}

func (r *fractalRenderer) SetFocusDefault() {
	for _, a := range r.adapters() {
		a.SetFocusDefault()
	}
}

func (r *fractalRenderer) SetAdaptiveSS(enabled bool) {
	for _, a := range r.adapters() {
		a.SetAdaptiveSS(enabled)
	}
}

func (r *fractalRenderer) SetVisualiseAdaptiveSS(enabled bool) {
	for _, a := range r.adapters() {
		a.SetVisualiseAdaptiveSS(enabled)
	}
}

func (r *fractalRenderer) Invalidate() {
	r.rendered = false
}

func (r *fractalRenderer) Render(ctx context.Context, d dispatcher.Dispatcher, decision quality.Decision) (time.Duration, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if !decision.Dispatch {
		return 0, nil
	}
	a, fn := r.active()
	w, h := a.OutputSize()
	if w <= 0 || h <= 0 {
		return 0, ErrNoOutput
	}

	switched := r.rendered && a.Mode() != r.lastMode
	if switched {
		common.Logger().Info("precision switched",
			slog.String("fractal", r.name),
			slog.String("from", r.lastMode.String()),
			slog.String("to", a.Mode().String()),
			slog.String("segment", a.PlaneSegment().String()),
		)
	}

	if err := a.SetSuperSamplingLevel(max(decision.SuperSampling, 1)); err != nil {
		return 0, err
	}
	opts := kernel.LaunchOptions{
		Width:             w,
		Height:            h,
		ResetAccumulation: decision.Pass == quality.PassFast || a.Dirty() || switched || !r.rendered,
	}
	if decision.Pass == quality.PassQuality {
		a.SetRenderRadiusToMax()
		a.SetRandomSamples(true)
		r.seed++
		opts.Seed = r.seed
	} else {
		if err := a.SetRenderRadius(kernel.FoveationCenterRadius); err != nil {
			return 0, err
		}
		a.SetRandomSamples(false)
		r.seed = 0
	}

	elapsed, err := d.Dispatch(ctx, fn, a.Block(), opts)
	if err != nil {
		return elapsed, err
	}
	for _, each := range r.adapters() {
		each.ClearDirty()
	}
	r.lastMode = a.Mode()
	r.rendered = true
	return elapsed, nil
}

func (r *fractalRenderer) DebugRightBottomPixel(ctx context.Context) error {
	if r.closed {
		return ErrClosed
	}
	img, err := r.target.ReadOutput(ctx)
	if err != nil {
		return err
	}
	if img.Width <= 0 || img.Height <= 0 || len(img.Pixels) < img.Width*img.Height*4 {
		return ErrNoOutput
	}

	x, y := img.Width-1, img.Height-1
	i := (y*img.Width + x) * 4
	p := r.Segment().PixelToPlane(float64(x)+0.5, float64(y)+0.5, img.Width, img.Height)
	common.Logger().Info("right bottom pixel",
		slog.Int("x", x),
		slog.Int("y", y),
		slog.Int("r", int(img.Pixels[i])),
		slog.Int("g", int(img.Pixels[i+1])),
		slog.Int("b", int(img.Pixels[i+2])),
		slog.Int("a", int(img.Pixels[i+3])),
		slog.Float64("re", p.X),
		slog.Float64("im", p.Y),
		slog.String("mode", r.Mode().String()),
	)
	return nil
}

func (r *fractalRenderer) Close() error {
	r.closed = true
	r.singleFn, r.doubleFn = nil, nil
	return nil
}
