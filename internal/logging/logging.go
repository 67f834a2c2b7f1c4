// Package logging configures the process-wide slog default.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init installs a text handler on stderr. The level comes from
// IPV6CONF_LOG_LEVEL, falling back to LOG_LEVEL; anything unrecognized
// stays at error so log lines do not bleed into the terminal UI.
func Init() {
	logger := slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: levelFromEnv(),
		}),
	)
	slog.SetDefault(logger)
}

func levelFromEnv() slog.Level {
	raw, ok := os.LookupEnv("IPV6CONF_LOG_LEVEL")
	if !ok {
		raw, ok = os.LookupEnv("LOG_LEVEL")
	}
	if !ok {
		return slog.LevelError
	}
	switch strings.ToLower(raw) {
	case "debug", "dev", "development":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
