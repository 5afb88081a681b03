package renderer

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/chaos-go/common"
	"github.com/Carmen-Shannon/chaos-go/engine/gpu/shader"
	"github.com/Carmen-Shannon/chaos-go/engine/kernel"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrUnknownFractal is returned for a name no kernel source declares as a fractal.
var ErrUnknownFractal = errors.New("renderer: unknown fractal")

// Provider builds renderers from kernel sources and caches the compiled modules.
// It must only be used from the render thread.
type Provider interface {
	// Fractals returns the kernel names of every source declaring a fractal, sorted.
	Fractals() []string

	// DisplayName returns the human readable name a kernel declares.
	//
	// Parameters:
	//   - name: the kernel name
	//
	// Returns:
	//   - string: the declared display name
	//   - bool: false if name is not a known fractal
	DisplayName(name string) (string, bool)

	// Renderer builds a renderer for the named fractal, compiling its kernel unless a compiled module is
	// cached. Renderers built earlier from the same module must not be used once it is reloaded or evicted.
	//
	// Parameters:
	//   - name: the kernel name, as listed by Fractals
	//   - forceReload: discard the cached module and re-read the sources first
	//
	// Returns:
	//   - Handle: present with the renderer, or absent with ErrUnknownFractal, a compile error or
	//     kernel.ErrNotFound when the kernel lacks the render entry points
	Renderer(name string, forceReload bool) Handle

	// Close releases every cached module.
	Close()
}

type provider struct {
	cfg      *rendererConfig
	compiler Compiler
	target   Target
	pre      shader.PreProcessor
	cache    *lru.Cache[string, kernel.Module]
	fractals map[string]string
}

var _ Provider = &provider{}

// NewProvider creates a Provider compiling kernels with compiler for output owned by target.
// A gpu.Context serves as both.
//
// Parameters:
//   - compiler: builds modules from parsed shaders
//   - target: the output surface renderers resize and read back
//   - options: functional options applied after the defaults
//
// Returns:
//   - Provider: the new provider
//   - error: kernel.ErrInvalidArgument for an unusable initial view, or an error listing the kernel sources
func NewProvider(compiler Compiler, target Target, options ...ProviderBuilderOption) (Provider, error) {
	cfg := defaultRendererConfig()
	for _, opt := range options {
		opt(cfg)
	}
	if !(cfg.zoom > 0) || math.IsInf(cfg.zoom, 0) {
		return nil, fmt.Errorf("initial zoom %v must be positive and finite: %w", cfg.zoom, kernel.ErrInvalidArgument)
	}

	cache, err := lru.NewWithEvict[string, kernel.Module](cfg.cacheSize, closeModuleOnEviction)
	if err != nil {
		return nil, err
	}

	p := &provider{
		cfg:      cfg,
		compiler: compiler,
		target:   target,
		pre:      shader.NewPreProcessor(cfg.kernels),
		cache:    cache,
	}
	if err := p.scan(); err != nil {
		return nil, err
	}
	return p, nil
}

func closeModuleOnEviction(name string, m kernel.Module) {
	if err := m.Close(); err != nil {
		common.Logger().Error("close kernel module", slog.String("fractal", name), slog.Any("error", err))
	}
}

// scan lists the kernel sources and records those declaring a fractal. Sources that fail to pre-process are
// skipped with a warning so one broken file does not hide the others.
func (p *provider) scan() error {
	files, err := fs.Glob(p.cfg.kernels, "*"+shader.Extension)
	if err != nil {
		return fmt.Errorf("list kernel sources: %w", err)
	}

	fractals := make(map[string]string)
	for _, file := range files {
		name := strings.TrimSuffix(file, shader.Extension)
		if _, err := p.pre.Process(name); err != nil {
			common.Logger().Warn("skipping kernel source", slog.String("file", file), slog.Any("error", err))
			continue
		}
		if display := p.pre.FractalName(); display != "" {
			fractals[name] = display
		}
	}
	p.fractals = fractals
	return nil
}

func (p *provider) Fractals() []string {
	names := make([]string, 0, len(p.fractals))
	for name := range p.fractals {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (p *provider) DisplayName(name string) (string, bool) {
	display, ok := p.fractals[name]
	return display, ok
}

func (p *provider) Renderer(name string, forceReload bool) Handle {
	if forceReload {
		p.cache.Remove(name)
		if err := p.scan(); err != nil {
			return p.absent(name, err)
		}
	}
	display, ok := p.fractals[name]
	if !ok {
		return p.absent(name, fmt.Errorf("%q: %w", name, ErrUnknownFractal))
	}

	m, err := p.module(name)
	if err != nil {
		return p.absent(name, err)
	}
	r, err := newFractalRenderer(name, display, m, p.target, p.cfg)
	if err != nil {
		return p.absent(name, err)
	}

	common.Logger().Info("renderer ready",
		slog.String("fractal", name),
		slog.String("display", display),
		slog.Bool("single", r.single != nil),
		slog.Bool("double", r.double != nil),
	)
	return Present(r)
}

func (p *provider) absent(name string, err error) Handle {
	common.Logger().Error("renderer unavailable", slog.String("fractal", name), slog.Any("error", err))
	return Absent(name, err)
}

// module returns the cached module for name, compiling and caching it on a miss.
func (p *provider) module(name string) (kernel.Module, error) {
	if m, ok := p.cache.Get(name); ok {
		return m, nil
	}

	source, err := p.pre.Process(name)
	if err != nil {
		return nil, err
	}
	s, err := shader.NewShader(name, source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	m, err := p.compiler.CompileModule(s)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	p.cache.Add(name, m)

	common.Logger().Info("kernel compiled", slog.String("fractal", name), slog.Int("cached", p.cache.Len()))
	return m, nil
}

func (p *provider) Close() {
	p.cache.Purge()
}
