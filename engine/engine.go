package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/chaos-go/common"
	"github.com/Carmen-Shannon/chaos-go/engine/dispatcher"
	"github.com/Carmen-Shannon/chaos-go/engine/gpu"
	"github.com/Carmen-Shannon/chaos-go/engine/palette"
	"github.com/Carmen-Shannon/chaos-go/engine/plane"
	"github.com/Carmen-Shannon/chaos-go/engine/profiler"
	"github.com/Carmen-Shannon/chaos-go/engine/quality"
	"github.com/Carmen-Shannon/chaos-go/engine/renderer"
	"github.com/Carmen-Shannon/chaos-go/engine/snapshot"
	"github.com/Carmen-Shannon/chaos-go/engine/window"
)

// ErrNoWindow is returned by NewEngine when no window was configured.
var ErrNoWindow = errors.New("engine: no window")

// Device is the GPU the engine renders with and presents through. gpu.Context implements it.
type Device interface {
	renderer.Compiler
	renderer.Target
	palette.Sink
	HasSurface() bool
	ConfigureSurface(width, height int) error
	Present() error
	Release()
}

// engine implements the Engine interface.
// Everything runs on the thread that owns the window: input callbacks, deferred actions and the frame itself.
type engine struct {
	window window.Window
	device Device

	contextOptions    []gpu.ContextBuilderOption
	providerOptions   []renderer.ProviderBuilderOption
	controllerOptions []quality.ControllerBuilderOption
	policyOptions     []dispatcher.PolicyBuilderOption

	provider   renderer.Provider
	current    renderer.Handle
	fractal    string
	controller quality.Controller
	dispatcher dispatcher.Dispatcher

	palettePath  string
	watchPalette bool
	watcher      palette.Watcher

	saver          snapshot.Saver
	snapshotFormat snapshot.Format
	snapshotPrefix string

	profiler         *profiler.Profiler
	profilingEnabled bool

	visualise        bool
	title            string
	renderFrameLimit time.Duration
	idleSleep        time.Duration
	now              func() time.Time
	ctx              context.Context

	quitRequested atomic.Bool
	shutdownOnce  sync.Once
}

// Engine is the main entry point of the viewer.
// It owns the window, the GPU device and the render loop, and maps input onto the current fractal renderer.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Controller returns the render quality controller.
	Controller() quality.Controller

	// Dispatcher returns the frame dispatcher. Actions enqueued on it run at the start of the next frame.
	Dispatcher() dispatcher.Dispatcher

	// Renderer returns the handle of the current fractal, absent when its kernel could not be built.
	Renderer() renderer.Handle

	// Fractal returns the kernel name of the current fractal.
	Fractal() string

	// SelectFractal switches to another fractal at the start of the next frame.
	//
	// Parameters:
	//   - name: the kernel name, one of the provider's Fractals
	//   - forceReload: recompile the kernel from source even if it is cached; reloading the current fractal keeps
	//     the view
	SelectFractal(name string, forceReload bool)

	// NextFractal switches to the fractal after the current one in name order, wrapping around.
	NextFractal()

	// SaveSnapshot writes the image currently on screen to a time stamped file.
	SaveSnapshot()

	// EnableProfiler enables periodic frame statistics in the log.
	EnableProfiler()

	// DisableProfiler disables periodic frame statistics.
	DisableProfiler()

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the frame loop and blocks until the window closes, then releases every resource.
	Run()

	// Quit stops the frame loop. Safe to call from any goroutine and more than once.
	Quit()
}

// NewEngine creates the engine: the GPU device on the window surface, the palette, the kernel provider and the
// renderer of the initial fractal sized to the window.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: ErrNoWindow, or the device, palette or provider error
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		fractal:        "mandelbrot",
		snapshotFormat: snapshot.FormatPNG,
		snapshotPrefix: "chaos",
		idleSleep:      10 * time.Millisecond,
		now:            time.Now,
		ctx:            context.Background(),
		profiler:       profiler.NewProfiler(),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.window == nil {
		return nil, ErrNoWindow
	}

	if e.device == nil {
		ctxOptions := append([]gpu.ContextBuilderOption{gpu.WithSurface(e.window.SurfaceDescriptor())}, e.contextOptions...)
		device, err := gpu.NewContext(ctxOptions...)
		if err != nil {
			return nil, fmt.Errorf("create gpu context: %w", err)
		}
		e.device = device
	}

	e.controller = quality.NewController(append([]quality.ControllerBuilderOption{quality.WithClock(e.now)}, e.controllerOptions...)...)
	e.dispatcher = dispatcher.NewDispatcher(dispatcher.WithPolicy(dispatcher.NewPolicy(e.policyOptions...)))
	if e.saver == nil {
		e.saver = snapshot.NewSaver()
	}

	if err := e.device.SetPalette(palette.LoadOrDefault(e.palettePath)); err != nil {
		e.device.Release()
		return nil, fmt.Errorf("upload palette: %w", err)
	}

	provider, err := renderer.NewProvider(e.device, e.device, e.providerOptions...)
	if err != nil {
		e.device.Release()
		return nil, err
	}
	e.provider = provider

	if e.watchPalette && e.palettePath != "" {
		w, err := palette.Watch(e.palettePath, e.dispatcher, e.device, palette.WithOnReload(func([]uint32) {
			e.invalidate()
		}))
		if err != nil {
			common.Logger().Warn("palette watch disabled", slog.String("path", e.palettePath), slog.Any("error", err))
		} else {
			e.watcher = w
		}
	}

	names := provider.Fractals()
	if !slices.Contains(names, e.fractal) && len(names) > 0 {
		common.Logger().Warn("unknown fractal, using first available",
			slog.String("fractal", e.fractal),
			slog.String("using", names[0]),
		)
		e.fractal = names[0]
	}
	e.resizeSurface(e.window.Width(), e.window.Height())
	e.selectFractal(e.fractal, false)

	e.window.SetResizeCallback(e.onResize)
	e.window.SetScrollCallback(e.onScroll)
	e.window.SetDragCallback(e.onDrag)
	e.window.SetKeyDownCallback(e.onKeyDown)
	e.window.SetUpdateCallback(e.frame)

	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Controller() quality.Controller {
	return e.controller
}

func (e *engine) Dispatcher() dispatcher.Dispatcher {
	return e.dispatcher
}

func (e *engine) Renderer() renderer.Handle {
	return e.current
}

func (e *engine) Fractal() string {
	return e.fractal
}

func (e *engine) Run() {
	e.window.ProcessMessages()
	e.shutdown()
}

func (e *engine) Quit() {
	e.quitRequested.Store(true)
}

// shutdown releases everything the engine owns, then closes the window. The device goes first so the surface
// never outlives the window it was created from.
func (e *engine) shutdown() {
	e.shutdownOnce.Do(func() {
		if e.watcher != nil {
			if err := e.watcher.Close(); err != nil {
				common.Logger().Warn("palette watcher close failed", slog.Any("error", err))
			}
		}
		e.saver.Wait()
		if r, ok := e.current.Renderer(); ok {
			r.Close()
		}
		e.provider.Close()
		e.device.Release()
		if err := e.window.Close(); err != nil {
			common.Logger().Debug("window close", slog.Any("error", err))
		}
	})
}

// needsFrame reports whether the next loop iteration has anything to do.
func (e *engine) needsFrame() bool {
	if e.dispatcher.Queue().Len() > 0 {
		return true
	}
	_, ok := e.current.Renderer()
	return ok && e.controller.NeedsFrame()
}

// frame runs one iteration of the render loop: deferred actions, at most one dispatch, then presentation.
func (e *engine) frame() {
	if e.quitRequested.Load() {
		e.shutdown()
		return
	}
	start := e.now()
	if !e.needsFrame() {
		time.Sleep(e.idleSleep)
		return
	}

	var stats profiler.Frame
	if _, err := e.dispatcher.Frame(e.ctx, func(ctx context.Context) error {
		return e.render(ctx, &stats)
	}); err != nil {
		e.Quit()
		return
	}

	if e.profilingEnabled && e.profiler != nil {
		stats.State = e.controller.State().String()
		e.profiler.Tick(stats)
	}

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - e.now().Sub(start); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// render asks the controller for a plan, dispatches the current renderer accordingly and presents the result.
func (e *engine) render(ctx context.Context, stats *profiler.Frame) error {
	r, ok := e.current.Renderer()
	if !ok {
		return nil
	}
	decision := e.controller.Decide()
	elapsed, err := r.Render(ctx, e.dispatcher, decision)
	if err != nil {
		return err
	}
	if !decision.Dispatch {
		return nil
	}
	e.controller.Feedback(elapsed)
	e.updateTitle()

	stats.Dispatched = true
	stats.Dispatch = elapsed
	stats.SuperSampling = decision.SuperSampling
	stats.Mode = r.Mode().String()

	if !e.device.HasSurface() {
		return nil
	}
	return e.device.Present()
}

// selectFractal replaces the current renderer. The old renderer is closed first because a forced reload evicts
// the module it was built from. Reloading the current fractal keeps its view and iteration count.
func (e *engine) selectFractal(name string, forceReload bool) {
	old, hadOld := e.current.Renderer()
	keepView := hadOld && forceReload && old.Name() == name
	var seg plane.Segment
	var iterations int
	if hadOld {
		seg, iterations = old.Segment(), old.MaxIterations()
		old.Close()
	}

	e.fractal = name
	e.current = e.provider.Renderer(name, forceReload)
	if r, ok := e.current.Renderer(); ok {
		r.SetVisualiseAdaptiveSS(e.visualise)
		if w, h := e.window.Width(), e.window.Height(); w > 0 && h > 0 {
			if err := r.Resize(w, h); err != nil {
				common.Logger().Error("resize failed", slog.String("fractal", name), slog.Any("error", err))
			}
		}
		if keepView {
			if err := r.SetSegment(seg); err != nil {
				common.Logger().Warn("restore view failed", slog.Any("error", err))
			}
			if err := r.SetMaxIterations(iterations); err != nil {
				common.Logger().Warn("restore iterations failed", slog.Any("error", err))
			}
		}
		common.Logger().Info("fractal selected",
			slog.String("fractal", name),
			slog.String("display", r.DisplayName()),
			slog.Bool("reloaded", forceReload),
		)
	}
	e.controller.Restart()
	e.updateTitle()
}

func (e *engine) SelectFractal(name string, forceReload bool) {
	e.dispatcher.Enqueue("select fractal", func() error {
		e.selectFractal(name, forceReload)
		return e.current.Err()
	})
}

func (e *engine) NextFractal() {
	names := e.provider.Fractals()
	if len(names) == 0 {
		return
	}
	next := names[0]
	if i := slices.Index(names, e.fractal); i >= 0 {
		next = names[(i+1)%len(names)]
	}
	e.SelectFractal(next, false)
}

func (e *engine) SaveSnapshot() {
	if _, ok := e.current.Renderer(); !ok {
		return
	}
	name := snapshot.TimestampName(e.snapshotPrefix, e.now())
	snapshot.SaveImageAsync(e.dispatcher, e.device, e.saver, name, e.snapshotFormat)
}

// invalidate discards accumulated samples, e.g. after the palette changed.
func (e *engine) invalidate() {
	if r, ok := e.current.Renderer(); ok {
		r.Invalidate()
	}
	e.controller.Restart()
}

func (e *engine) updateTitle() {
	title := fmt.Sprintf("chaos - %s unavailable", e.fractal)
	if r, ok := e.current.Renderer(); ok {
		title = fmt.Sprintf("chaos - %s (%s)", r.DisplayName(), r.Mode())
	}
	if title != e.title {
		e.title = title
		e.window.SetTitle(title)
	}
}

func (e *engine) resizeSurface(width, height int) {
	if !e.device.HasSurface() || width <= 0 || height <= 0 {
		return
	}
	if err := e.device.ConfigureSurface(width, height); err != nil {
		common.Logger().Error("configure surface failed", slog.Any("error", err))
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
