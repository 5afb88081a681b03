package snapshot

// SaverBuilderOption is a functional option for configuring a Saver.
type SaverBuilderOption func(s *saver)

// WithWorkers sets the maximum number of concurrent encoders. Values below 1 are raised to 1.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - SaverBuilderOption: option function to apply
func WithWorkers(n int) SaverBuilderOption {
	return func(s *saver) {
		s.workers = max(n, 1)
	}
}

// WithDirectory sets the directory relative file names are resolved against. It is created on first save.
func WithDirectory(dir string) SaverBuilderOption {
	return func(s *saver) {
		s.directory = dir
	}
}

// WithJPEGQuality sets the JPEG quality, clamped to [1, 100].
func WithJPEGQuality(q int) SaverBuilderOption {
	return func(s *saver) {
		s.jpegQuality = min(max(q, 1), 100)
	}
}

// WithOnSaved registers a callback run on the encoding goroutine after each save completes.
//
// Parameters:
//   - callback: function receiving the written path and the error, nil on success
//
// Returns:
//   - SaverBuilderOption: option function to apply
func WithOnSaved(callback func(path string, err error)) SaverBuilderOption {
	return func(s *saver) {
		s.onSaved = callback
	}
}
