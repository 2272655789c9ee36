package ssaflow

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with ssaflow-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithMethod adds a method field to the logger.
func (l *Logger) WithMethod(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("method", name),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogAnalyze logs a single solver run.
func (l *Logger) LogAnalyze(ctx context.Context, method string, blocks, iterations int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "analyze failed",
			"method", method,
			"blocks", blocks,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "analyze completed",
		"method", method,
		"blocks", blocks,
		"iterations", iterations,
		"duration", duration,
	)
}

// LogBatch logs an AnalyzeAll run.
func (l *Logger) LogBatch(ctx context.Context, count, failed int, duration time.Duration) {
	if failed > 0 {
		l.WarnContext(ctx, "batch completed with failures",
			"total", count,
			"failed", failed,
			"success", count-failed,
		)
		return
	}
	l.InfoContext(ctx, "batch completed",
		"count", count,
		"duration", duration,
	)
}

// LogSnapshot logs a snapshot export or import.
func (l *Logger) LogSnapshot(ctx context.Context, op string, maps int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"op", op,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "snapshot completed",
		"op", op,
		"maps", maps,
	)
}
