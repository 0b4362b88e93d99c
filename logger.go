package attnlens

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with attnlens-specific context.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithScene adds a scene (manifest name) field to the logger.
func (l *Logger) WithScene(manifest string) *Logger {
	return &Logger{
		Logger: l.Logger.With("scene", manifest),
	}
}

// WithVariant adds a precision-variant field to the logger.
func (l *Logger) WithVariant(key string) *Logger {
	return &Logger{
		Logger: l.Logger.With("variant", key),
	}
}

// WithCamera adds a camera-name field to the logger.
func (l *Logger) WithCamera(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("camera", name),
	}
}

// LogSceneLoad logs a scene load.
func (l *Logger) LogSceneLoad(ctx context.Context, manifest, variant string, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "scene load failed",
			"scene", manifest,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "scene loaded",
			"scene", manifest,
			"variant", variant,
			"duration", duration,
		)
	}
}

// LogDecode logs a tensor decode.
func (l *Logger) LogDecode(ctx context.Context, variant string, elements int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "decode failed",
			"variant", variant,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "decode completed",
			"variant", variant,
			"elements", elements,
			"duration", duration,
		)
	}
}

// LogQuery logs an attention query.
func (l *Logger) LogQuery(ctx context.Context, kind string, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"kind", kind,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query completed",
			"kind", kind,
			"duration", duration,
		)
	}
}
