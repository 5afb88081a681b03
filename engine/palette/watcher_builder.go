package palette

// WatcherBuilderOption is a functional option for configuring a palette Watcher.
type WatcherBuilderOption func(w *watcher)

// WithOnReload registers a callback run on the render thread after a reloaded palette reached the sink,
// for example to restart refinement so accumulated samples pick up the new colours.
//
// Parameters:
//   - callback: function receiving the new palette
//
// Returns:
//   - WatcherBuilderOption: option function to apply
func WithOnReload(callback func(colors []uint32)) WatcherBuilderOption {
	return func(w *watcher) {
		w.onReload = callback
	}
}
