// Package logging provides the engine's structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a structured logger scoped to an engine component.
type Logger struct {
	*slog.Logger
}

// New creates a JSON logger for the named component.
func New(component string, level slog.Level) *Logger {
	return NewWithWriter(os.Stdout, component, level)
}

// NewWithWriter creates a logger writing to w. Used by tests.
func NewWithWriter(w io.Writer, component string, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler).With(
		slog.String("component", component),
		slog.String("system", "engine"),
	)
	return &Logger{Logger: logger}
}

// WithScan returns a logger with scan-specific fields.
func (l *Logger) WithScan(scanID string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("scan_id", scanID))}
}

// WithComponent returns a logger re-scoped to a sub-component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("component", component))}
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
