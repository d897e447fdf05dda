// Package audit writes the per-run audit trail: one JSON record per
// significant pipeline event, newline-delimited, to a per-run log file.
package audit

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Logger records pipeline events as NDJSON. It is carried explicitly on
// the run context rather than living as package state.
type Logger struct {
	log  *slog.Logger
	file *os.File
}

// New creates a Logger writing to w.
func New(w io.Writer) *Logger {
	return &Logger{log: slog.New(slog.NewJSONHandler(w, nil))}
}

// Open creates a Logger writing to the given file path, creating parent
// directories as needed. Records are appended across invocations on the
// same day.
func Open(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &Logger{log: slog.New(slog.NewJSONHandler(f, nil)), file: f}, nil
}

// Discard returns a Logger that drops all records.
func Discard() *Logger {
	return New(io.Discard)
}

// Event records an informational event with structured attributes.
func (l *Logger) Event(event string, attrs ...any) {
	l.log.Info(event, attrs...)
}

// Warn records a recoverable anomaly, such as a failed classification attempt.
func (l *Logger) Warn(event string, attrs ...any) {
	l.log.Warn(event, attrs...)
}

// Error records a terminal per-item failure, such as exhausted retries.
func (l *Logger) Error(event string, attrs ...any) {
	l.log.Error(event, attrs...)
}

// Close closes the underlying file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
