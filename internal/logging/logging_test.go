package logging

import (
	"log/slog"
	"os"
	"testing"
)

func TestLevelFromEnv(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
		want  slog.Level
	}{
		{"default is error", "", "", slog.LevelError},
		{"debug", "IPV6CONF_LOG_LEVEL", "debug", slog.LevelDebug},
		{"dev alias", "IPV6CONF_LOG_LEVEL", "dev", slog.LevelDebug},
		{"info", "IPV6CONF_LOG_LEVEL", "info", slog.LevelInfo},
		{"warning alias", "IPV6CONF_LOG_LEVEL", "warning", slog.LevelWarn},
		{"case folded", "IPV6CONF_LOG_LEVEL", "DEBUG", slog.LevelDebug},
		{"garbage stays quiet", "IPV6CONF_LOG_LEVEL", "loud", slog.LevelError},
		{"legacy variable", "LOG_LEVEL", "info", slog.LevelInfo},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Scrub whatever the host environment carries; t.Setenv also
			// registers the restore.
			t.Setenv("IPV6CONF_LOG_LEVEL", "")
			t.Setenv("LOG_LEVEL", "")
			os.Unsetenv("IPV6CONF_LOG_LEVEL")
			os.Unsetenv("LOG_LEVEL")
			if tc.key != "" {
				t.Setenv(tc.key, tc.value)
			}
			if got := levelFromEnv(); got != tc.want {
				t.Errorf("levelFromEnv() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestProjectVariableWins(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("IPV6CONF_LOG_LEVEL", "warn")
	if got := levelFromEnv(); got != slog.LevelWarn {
		t.Errorf("levelFromEnv() = %v, want warn", got)
	}
}
