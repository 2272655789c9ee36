package dataflow

import "log/slog"

// DefaultMaxIterations bounds the number of passes over a method.
const DefaultMaxIterations = 10_000

// Options configures the solver.
type Options struct {
	// Logger receives debug output about convergence. Nil discards it.
	Logger *slog.Logger

	// MaxIterations is the maximum number of passes before giving up.
	MaxIterations int

	// DebugChecks verifies map and set invariants after every transfer.
	// Expensive; meant for tests and fuzzing.
	DebugChecks bool
}

// DefaultOptions returns the default solver configuration.
func DefaultOptions() Options {
	return Options{
		Logger:        slog.New(slog.DiscardHandler),
		MaxIterations: DefaultMaxIterations,
	}
}

// Option mutates Options.
type Option func(*Options)

// WithLogger sets the solver logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithMaxIterations sets the pass limit. Values <= 0 keep the default.
func WithMaxIterations(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxIterations = n
		}
	}
}

// WithDebugChecks enables invariant checks after every transfer.
func WithDebugChecks(enabled bool) Option {
	return func(o *Options) {
		o.DebugChecks = enabled
	}
}
