package renderer

// Handle is the result of asking a Provider for a renderer. It is either present, holding a usable
// FractalRenderer, or absent, holding the reason no renderer could be built.
type Handle struct {
	name     string
	renderer FractalRenderer
	err      error
}

// Present wraps a usable renderer.
func Present(r FractalRenderer) Handle {
	return Handle{name: r.Name(), renderer: r}
}

// Absent records that no renderer exists for name.
//
// Parameters:
//   - name: the fractal that was requested
//   - err: why the renderer is unavailable
//
// Returns:
//   - Handle: an absent handle
func Absent(name string, err error) Handle {
	return Handle{name: name, err: err}
}

// Renderer returns the renderer and true when the handle is present.
func (h Handle) Renderer() (FractalRenderer, bool) {
	return h.renderer, h.renderer != nil
}

// Err returns the reason an absent handle has no renderer, or nil for a present one.
func (h Handle) Err() error {
	return h.err
}

// Name returns the requested fractal name.
func (h Handle) Name() string {
	return h.name
}
