package abstraction

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with abstraction-specific context.
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
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithName adds an artifact name field to the logger.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("name", name),
	}
}

// WithK adds a k (bucket count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// LogCluster logs a finished clustering run.
func (l *Logger) LogCluster(ctx context.Context, points int, distortion float32, effectiveK int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "clustering failed",
			"points", points,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "clustering completed",
			"points", points,
			"distortion", distortion,
			"effective_k", effectiveK,
			"duration", duration,
		)
	}
}

// LogLoad logs a histogram load.
func (l *Logger) LogLoad(ctx context.Context, rows, bins int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "histogram load failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "histograms loaded",
			"rows", rows,
			"bins", bins,
		)
	}
}
