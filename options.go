package ssaflow

import (
	"log/slog"

	"github.com/hupe1980/ssaflow/codec"
	"github.com/hupe1980/ssaflow/resource"
	"github.com/hupe1980/ssaflow/snapshot"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	maxIterations    int
	debugChecks      bool
	resources        resource.Config
	compression      snapshot.Compression
}

// Option configures an Analyzer.
type Option func(*options)

// WithCodec configures the codec used by DecodeMethods.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &ssaflow.BasicMetricsCollector{}
//	a := ssaflow.New(ssaflow.WithMetricsCollector(metrics))
//	// ... use a ...
//	stats := metrics.GetStats()
//	fmt.Printf("Methods: %d, Avg latency: %dns\n", stats.AnalyzeCount, stats.AnalyzeAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := ssaflow.NewJSONLogger(slog.LevelInfo)
//	a := ssaflow.New(ssaflow.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMaxIterations bounds the solver passes per method.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.maxIterations = n
	}
}

// WithDebugChecks verifies set and map invariants after every transfer.
// Meant for tests; it makes the solver several times slower.
func WithDebugChecks(enabled bool) Option {
	return func(o *options) {
		o.debugChecks = enabled
	}
}

// WithConcurrency sets how many methods AnalyzeAll solves at once.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.resources.MaxWorkers = int64(n)
	}
}

// WithMemoryLimit bounds the estimated memory of in-flight solvers.
// A method larger than the limit still runs, but alone.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.resources.MemoryLimitBytes = bytes
	}
}

// WithRateLimit bounds how many methods start per second.
func WithRateLimit(methodsPerSec float64) Option {
	return func(o *options) {
		o.resources.MethodsPerSec = methodsPerSec
	}
}

// WithIOLimit bounds snapshot throughput in bytes per second.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.resources.IOLimitBytesPerSec = bytesPerSec
	}
}

// WithCompression selects the snapshot codec used by Export.
func WithCompression(c snapshot.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		compression:      snapshot.ZSTD,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
