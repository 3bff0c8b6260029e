package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger so components share one handler configuration.
type Logger struct {
	*slog.Logger
}

// New returns a text logger writing to stderr at the given level.
func New(level slog.Level) *Logger {
	return NewLogger(level, os.Stderr)
}

// NewLogger returns a text logger writing to w at the given level.
func NewLogger(level slog.Level, w io.Writer) *Logger {
	return &Logger{slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))}
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return NewLogger(slog.LevelError+1, io.Discard)
}

// Err returns an slog attribute for err under the "error" key.
func Err(err error) slog.Attr {
	return slog.Any("error", err)
}
