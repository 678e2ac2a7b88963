package dedupe

// Option applies a configuration option to a Window.
type Option func(*Window)

// WithMaxSize sets how many recent IDs are remembered. Values below one
// keep the default.
func WithMaxSize(maxSize int) Option {
	return func(w *Window) {
		if maxSize > 0 {
			w.maxSize = maxSize
		}
	}
}
