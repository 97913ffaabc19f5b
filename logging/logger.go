package logging

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the central application logger. Subsystems derive their
// own with logger.With("component", ...).
func NewLogger(logLevel string) *slog.Logger {
	var level slog.Level

	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)

	return slog.New(handler)
}
