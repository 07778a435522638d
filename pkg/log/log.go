// Package log configures the process-wide slog logger for revisio binaries.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the default logger, tagged with the service name so that
// records from co-deployed revisio binaries stay distinguishable. Level names
// are case-insensitive; unknown names fall back to info. LOG_FORMAT=json
// switches to JSON records.
func Setup(serviceName, logLevel string) {
	var level slog.Level

	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler).With("service", serviceName))
}

func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
