package runner

import "log/slog"

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.Logger = logger
		}
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithMaxRetries bounds how many invalid replies in a row are tolerated
// before Run gives up. Zero means unlimited.
func WithMaxRetries(n int) Option {
	return func(r *Runner) {
		r.MaxRetries = n
	}
}
