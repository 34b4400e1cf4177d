package main

import (
	"context"
	"log/slog"
	"testing"

	"custodia-hq/custodia/pkg/config"
)

// TestParseLogLevel covers the level mapping including the unknown-value
// fallback.
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"trace", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.level); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

// TestConfigureLogging verifies the configured level is honored and the
// verbose flag forces debug over it.
func TestConfigureLogging(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	ctx := context.Background()

	logger := configureLogging(config.LoggingConfig{Level: "warn", Format: "text"}, false)
	if logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("Debug must be disabled at warn level")
	}
	if !logger.Enabled(ctx, slog.LevelWarn) {
		t.Error("Warn must be enabled at warn level")
	}

	logger = configureLogging(config.LoggingConfig{Level: "warn", Format: "json"}, true)
	if !logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("Verbose must force debug regardless of the configured level")
	}
}

// TestNewCollector verifies the collector follows the metrics enable
// switch.
func TestNewCollector(t *testing.T) {
	if c := newCollector(&config.MetricsConfig{Enabled: false}); c != nil {
		t.Error("Disabled metrics must yield a nil collector")
	}

	c := newCollector(&config.MetricsConfig{
		Enabled:   true,
		Namespace: "custodia",
		Subsystem: "evidence",
	})
	if c == nil {
		t.Fatal("Enabled metrics must yield a collector")
	}
	if c.Registry() == nil {
		t.Error("Collector must carry a registry for the /metrics endpoint")
	}
}
