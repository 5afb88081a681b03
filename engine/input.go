package engine

import (
	"log/slog"

	"github.com/Carmen-Shannon/chaos-go/common"
)

// minIterations and maxIterations bound the iteration count the -/= keys can reach.
const (
	minIterations = 16
	maxIterations = 1 << 20
)

func (e *engine) onResize(width, height int) {
	// minimised windows report a zero framebuffer
	if width <= 0 || height <= 0 {
		return
	}
	e.resizeSurface(width, height)
	if r, ok := e.current.Renderer(); ok {
		if err := r.Resize(width, height); err != nil {
			e.report("resize", err)
			return
		}
	}
	e.controller.Restart()
}

func (e *engine) onScroll(delta, x, y float64) {
	r, ok := e.current.Renderer()
	if !ok {
		return
	}
	if err := r.ZoomAt(x, y, delta); err != nil {
		e.report("zoom", err)
		return
	}
	e.controller.Zoom()
}

func (e *engine) onDrag(dx, dy float64) {
	r, ok := e.current.Renderer()
	if !ok {
		return
	}
	if err := r.Pan(dx, dy); err != nil {
		e.report("pan", err)
		return
	}
	e.controller.Drag()
}

func (e *engine) onKeyDown(keyCode uint32) {
	switch keyCode {
	case common.KeyN:
		e.NextFractal()
		return
	case common.KeyF5:
		e.SelectFractal(e.fractal, true)
		return
	case common.KeyP:
		e.SaveSnapshot()
		return
	case common.KeyA:
		enabled := !e.controller.AutomaticQuality()
		e.controller.SetAutomaticQuality(enabled)
		common.Logger().Info("automatic quality", slog.Bool("enabled", enabled))
		e.controller.Restart()
		return
	case common.KeySpace:
		e.controller.Restart()
		return
	}

	r, ok := e.current.Renderer()
	if !ok {
		return
	}
	switch keyCode {
	case common.KeyD:
		// a fractal switch queued earlier in the same frame replaces the renderer before this runs
		e.dispatcher.Enqueue("debug pixel", func() error {
			if r, ok := e.current.Renderer(); ok {
				return r.DebugRightBottomPixel(e.ctx)
			}
			return nil
		})
	case common.KeyR:
		if err := r.ResetView(); err != nil {
			e.report("reset view", err)
			return
		}
		e.controller.Restart()
	case common.KeyV:
		e.visualise = !e.visualise
		r.SetVisualiseAdaptiveSS(e.visualise)
		e.controller.Restart()
	case common.KeyMinus:
		e.setIterations(r.MaxIterations() / 2)
	case common.KeyEqual:
		e.setIterations(r.MaxIterations() * 2)
	}
}

func (e *engine) setIterations(n int) {
	r, ok := e.current.Renderer()
	if !ok {
		return
	}
	n = common.Clamp(n, minIterations, maxIterations)
	if n == r.MaxIterations() {
		return
	}
	if err := r.SetMaxIterations(n); err != nil {
		e.report("max iterations", err)
		return
	}
	common.Logger().Info("max iterations", slog.Int("iterations", n))
	e.controller.Restart()
}

// report routes an input failure through the dispatch policy, which quits the loop in debug mode.
func (e *engine) report(op string, err error) {
	if err := e.dispatcher.Policy().Handle(op, err); err != nil {
		e.Quit()
	}
}
