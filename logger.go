package graphdatasets

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with toolkit-specific context.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithDataset adds a dataset name field to the logger.
func (l *Logger) WithDataset(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dataset", name),
	}
}

// LogConvert logs the outcome of a conversion run.
func (l *Logger) LogConvert(ctx context.Context, path string, stats *Stats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "conversion failed",
			"path", path,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "conversion completed",
		"path", path,
		"nodes", stats.Nodes,
		"edges", stats.Edges,
		"weighted", stats.Weighted,
		"symmetric", stats.Symmetric,
		"duration", stats.Duration,
	)
}

// LogPhase logs progress of a long-running conversion phase.
func (l *Logger) LogPhase(ctx context.Context, phase string, entries int64, elapsed time.Duration) {
	l.DebugContext(ctx, "phase progress",
		"phase", phase,
		"entries", entries,
		"elapsed", elapsed,
	)
}
