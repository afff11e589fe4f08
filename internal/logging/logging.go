package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"ReviewHarvester/internal/config"
)

// New creates a console slog.Logger from the logging configuration.
// Format "json" selects the JSON handler; anything else is text.
func New(cfg config.LoggingConfig) *slog.Logger {
	return newWithWriter(os.Stdout, cfg)
}

func newWithWriter(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levelFromString(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
