package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/chaos-go/common"
)

// Frame describes one pass of the render loop.
type Frame struct {
	// Dispatched is true when the frame launched a kernel.
	Dispatched bool

	// Dispatch is the measured kernel duration, zero when nothing was dispatched.
	Dispatch time.Duration

	// State is the quality controller state after the frame.
	State string

	// SuperSampling is the supersampling ceiling the frame used.
	SuperSampling int

	// Mode is the precision the frame rendered with.
	Mode string
}

// Stats summarises the frames of one reporting interval.
type Stats struct {
	FPS         float64
	Dispatches  int
	AvgDispatch time.Duration
	MaxDispatch time.Duration
	Last        Frame
	HeapMB      float64
	AllocRateMB float64
	NumGC       uint32
}

// Profiler tracks frame rate, dispatch timing and memory statistics.
// Outputs stats to the engine logger at a configurable interval.
type Profiler struct {
	now            func() time.Time
	updateInterval time.Duration

	frameCount  int
	dispatches  int
	dispatchSum time.Duration
	dispatchMax time.Duration
	lastTime    time.Time

	memStats       runtime.MemStats
	lastTotalAlloc uint64
}

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(p *Profiler)

// WithInterval sets how often stats are logged. Defaults to 1 second.
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// NewProfiler creates a new Profiler.
//
// Parameters:
//   - options: functional options applied after the defaults
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		now:            time.Now,
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame. When the update interval has elapsed it logs the interval's stats and
// starts a new interval.
//
// Parameters:
//   - f: the frame that just finished
//
// Returns:
//   - Stats: the logged stats, zero when nothing was logged
//   - bool: true if stats were logged this tick
func (p *Profiler) Tick(f Frame) (Stats, bool) {
	p.frameCount++
	if f.Dispatched {
		p.dispatches++
		p.dispatchSum += f.Dispatch
		p.dispatchMax = max(p.dispatchMax, f.Dispatch)
	}

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval || elapsed <= 0 {
		return Stats{}, false
	}

	runtime.ReadMemStats(&p.memStats)
	stats := Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		Dispatches:  p.dispatches,
		MaxDispatch: p.dispatchMax,
		Last:        f,
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		NumGC:       p.memStats.NumGC,
	}
	if p.dispatches > 0 {
		stats.AvgDispatch = p.dispatchSum / time.Duration(p.dispatches)
	}

	common.Logger().Info("profiler",
		slog.Float64("fps", stats.FPS),
		slog.Int("dispatches", stats.Dispatches),
		slog.Duration("avgDispatch", stats.AvgDispatch),
		slog.Duration("maxDispatch", stats.MaxDispatch),
		slog.String("state", f.State),
		slog.Int("superSampling", f.SuperSampling),
		slog.String("mode", f.Mode),
		slog.Float64("heapMB", stats.HeapMB),
		slog.Float64("allocRateMB", stats.AllocRateMB),
		slog.Uint64("gc", uint64(stats.NumGC)),
	)

	p.frameCount = 0
	p.dispatches = 0
	p.dispatchSum = 0
	p.dispatchMax = 0
	p.lastTime = currentTime
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return stats, true
}
