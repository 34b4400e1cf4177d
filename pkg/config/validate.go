package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

var validBackends = map[string]bool{
	"memory": true,
	"sqlite": true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json": true,
	"text": true,
}

// Validate checks the configuration for consistency. It is called after
// defaults and again after environment overrides.
func Validate(cfg *Config) error {
	if !validBackends[cfg.Audit.Backend] {
		return fmt.Errorf("audit.backend: unknown backend %q (want memory or sqlite)", cfg.Audit.Backend)
	}
	if cfg.Audit.AsyncBuffer <= 0 {
		return fmt.Errorf("audit.async_buffer: must be positive, got %d", cfg.Audit.AsyncBuffer)
	}
	if cfg.Audit.WriteTimeout <= 0 {
		return fmt.Errorf("audit.write_timeout: must be positive, got %s", cfg.Audit.WriteTimeout)
	}
	if cfg.Audit.Backend == "sqlite" && cfg.Audit.SQLite.Path == "" {
		return fmt.Errorf("audit.sqlite.path: required for the sqlite backend")
	}
	if cfg.Audit.SQLite.MaxIdleConns > cfg.Audit.SQLite.MaxOpenConns {
		return fmt.Errorf("audit.sqlite.max_idle_conns: %d exceeds max_open_conns %d",
			cfg.Audit.SQLite.MaxIdleConns, cfg.Audit.SQLite.MaxOpenConns)
	}

	if cfg.Audit.Retention.Days < 0 {
		return fmt.Errorf("audit.retention.days: must not be negative, got %d", cfg.Audit.Retention.Days)
	}
	if cfg.Audit.Retention.MaxEntries < 0 {
		return fmt.Errorf("audit.retention.max_entries: must not be negative, got %d", cfg.Audit.Retention.MaxEntries)
	}
	if cfg.Audit.Retention.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Audit.Retention.Schedule); err != nil {
			return fmt.Errorf("audit.retention.schedule: invalid cron expression %q: %w",
				cfg.Audit.Retention.Schedule, err)
		}
	}
	if cfg.Audit.Retention.ArchiveBeforeDelete && cfg.Audit.Retention.ArchivePath == "" {
		return fmt.Errorf("audit.retention.archive_path: required when archive_before_delete is set")
	}

	if cfg.Scopes.Path == "" {
		return fmt.Errorf("scopes.path: required")
	}

	if !validLogLevels[cfg.Telemetry.Logging.Level] {
		return fmt.Errorf("telemetry.logging.level: unknown level %q", cfg.Telemetry.Logging.Level)
	}
	if !validLogFormats[cfg.Telemetry.Logging.Format] {
		return fmt.Errorf("telemetry.logging.format: unknown format %q", cfg.Telemetry.Logging.Format)
	}

	return nil
}
