// Package logger provides structured slog loggers. All logs are written
// in JSON format so the orchestration host can ingest them.
package logger

import (
	"io"
	"log/slog"
)

// New creates a JSON slog.Logger writing to w at the given level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
