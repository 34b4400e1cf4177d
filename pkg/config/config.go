// Package config loads and validates the service configuration from YAML
// files, with defaults and environment variable overrides.
//
// The loading sequence is: parse YAML, apply defaults, apply CUSTODIA_*
// environment overrides, validate. Environment variables always win over
// file values.
package config

import "time"

// Config is the root configuration.
type Config struct {
	// Audit configures the audit trail.
	Audit AuditConfig `yaml:"audit"`

	// Scopes configures the actor scope source.
	Scopes ScopesConfig `yaml:"scopes"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// AuditConfig configures the audit logger and its storage backend.
type AuditConfig struct {
	// Enabled turns audit recording on or off.
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend: "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// AsyncBuffer is the capacity of the async write queue.
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds a single storage append.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Memory configures the in-memory backend.
	Memory MemoryConfig `yaml:"memory"`

	// SQLite configures the SQLite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Retention configures trail pruning.
	Retention RetentionConfig `yaml:"retention"`
}

// MemoryConfig configures the in-memory audit backend.
type MemoryConfig struct {
	// Capacity is the maximum number of retained entries.
	Capacity int `yaml:"capacity"`
}

// SQLiteConfig configures the SQLite audit backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string `yaml:"path"`

	// MaxOpenConns limits open database connections.
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns limits idle database connections.
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables write-ahead logging.
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the SQLite busy timeout.
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig configures audit trail pruning.
type RetentionConfig struct {
	// Days is the number of days to retain entries. 0 keeps forever.
	Days int `yaml:"days"`

	// MaxEntries caps the total entry count. 0 means unlimited.
	MaxEntries int64 `yaml:"max_entries"`

	// Schedule is the cron expression for automatic pruning. Empty
	// disables the scheduler.
	Schedule string `yaml:"schedule"`

	// ArchiveBeforeDelete exports entries to JSON before deletion.
	ArchiveBeforeDelete bool `yaml:"archive_before_delete"`

	// ArchivePath is the archive directory.
	ArchivePath string `yaml:"archive_path"`
}

// ScopesConfig configures the actor scope source.
type ScopesConfig struct {
	// Path is the scope YAML file or directory.
	Path string `yaml:"path"`

	// Watch enables hot-reload of scope files.
	Watch bool `yaml:"watch"`

	// DebounceInterval is the reload debounce quiet period.
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// TelemetryConfig configures logging and metrics.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus collector.
type MetricsConfig struct {
	// Enabled turns metric collection on or off.
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric namespace prefix.
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem prefix.
	Subsystem string `yaml:"subsystem"`

	// ListenAddress is where the service exposes /metrics and /health.
	ListenAddress string `yaml:"listen_address"`
}
