package tesseract

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with decoder-specific context.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithShot adds a shot index field to the logger.
func (l *Logger) WithShot(shot int) *Logger {
	return &Logger{
		Logger: l.Logger.With("shot", shot),
	}
}

// LogCompile logs the result of compiling a model.
func (l *Logger) LogCompile(ctx context.Context, detectors, mechanisms, undetectable, zero int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "model compile failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "model compiled",
		"detectors", detectors,
		"mechanisms", mechanisms,
		"undetectable", undetectable,
		"zero_probability", zero,
	)
}

// LogDecode logs a single decode.
func (l *Logger) LogDecode(ctx context.Context, detections int, cost float64, order int, err error) {
	if err != nil {
		l.WarnContext(ctx, "decode failed",
			"detections", detections,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "decode completed",
		"detections", detections,
		"cost", cost,
		"order", order,
	)
}

// LogRunFailure logs one ordering that found no hypothesis.
func (l *Logger) LogRunFailure(ctx context.Context, order, expansions int, err error) {
	l.DebugContext(ctx, "ordering failed",
		"order", order,
		"expansions", expansions,
		"error", err,
	)
}

// LogBatch logs batch progress or completion.
func (l *Logger) LogBatch(ctx context.Context, done, total, failed int, elapsed time.Duration) {
	if failed > 0 {
		l.WarnContext(ctx, "batch decode progress",
			"done", done,
			"total", total,
			"failed", failed,
			"elapsed", elapsed,
		)
		return
	}
	l.InfoContext(ctx, "batch decode progress",
		"done", done,
		"total", total,
		"elapsed", elapsed,
	)
}
