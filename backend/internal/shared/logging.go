package shared

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLogLevel maps a configured level name to a slog level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// NewLogger builds a logger for the configured environment: human readable
// text in development, JSON everywhere else.
func NewLogger(w io.Writer, config *ServiceConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLogLevel(config.LogLevel)}

	var h slog.Handler
	if IsDevelopment(config) {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With("service", config.ServiceName)
}

// SetupLogging installs the service logger as the slog default.
func SetupLogging(config *ServiceConfig) *slog.Logger {
	logger := NewLogger(os.Stderr, config)
	slog.SetDefault(logger)
	return logger
}
