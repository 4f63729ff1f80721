package logger

import (
	"testing"

	"go.uber.org/zap"

	"maliyet-backend/internal/config"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		level, format string
		enabled       zap.AtomicLevel
	}{
		{"debug", "console", zap.NewAtomicLevelAt(zap.DebugLevel)},
		{"warn", "json", zap.NewAtomicLevelAt(zap.WarnLevel)},
	}
	for _, c := range cases {
		log, err := New(&config.Config{LogLevel: c.level, LogFormat: c.format})
		if err != nil {
			t.Fatalf("%s/%s: unexpected error: %v", c.level, c.format, err)
		}
		if !log.Core().Enabled(c.enabled.Level()) {
			t.Fatalf("%s: level not enabled", c.level)
		}
		if c.level == "warn" && log.Core().Enabled(zap.InfoLevel) {
			t.Fatalf("warn logger must drop info")
		}
	}
}
