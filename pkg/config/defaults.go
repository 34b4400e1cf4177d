package config

import "time"

// ApplyDefaults fills unset fields with production defaults. Booleans
// cannot be distinguished from an explicit false, so Enabled flags default
// in DefaultConfig only.
func ApplyDefaults(cfg *Config) {
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = "sqlite"
	}
	if cfg.Audit.AsyncBuffer <= 0 {
		cfg.Audit.AsyncBuffer = 1000
	}
	if cfg.Audit.WriteTimeout <= 0 {
		cfg.Audit.WriteTimeout = 5 * time.Second
	}
	if cfg.Audit.Memory.Capacity <= 0 {
		cfg.Audit.Memory.Capacity = 10000
	}
	if cfg.Audit.SQLite.Path == "" {
		cfg.Audit.SQLite.Path = "data/audit.db"
	}
	if cfg.Audit.SQLite.MaxOpenConns <= 0 {
		cfg.Audit.SQLite.MaxOpenConns = 10
	}
	if cfg.Audit.SQLite.MaxIdleConns <= 0 {
		cfg.Audit.SQLite.MaxIdleConns = 5
	}
	if cfg.Audit.SQLite.BusyTimeout <= 0 {
		cfg.Audit.SQLite.BusyTimeout = 5 * time.Second
	}
	if cfg.Audit.Retention.ArchivePath == "" {
		cfg.Audit.Retention.ArchivePath = "data/archives/"
	}

	if cfg.Scopes.Path == "" {
		cfg.Scopes.Path = "config/scopes.yaml"
	}
	if cfg.Scopes.DebounceInterval <= 0 {
		cfg.Scopes.DebounceInterval = 100 * time.Millisecond
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "json"
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = "custodia"
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = "evidence"
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = "127.0.0.1:9464"
	}
}

// DefaultConfig returns a fully populated default configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Audit.Enabled = true
	cfg.Audit.SQLite.WALMode = true
	cfg.Audit.Retention.Days = 365
	cfg.Audit.Retention.Schedule = "0 3 * * *"
	cfg.Scopes.Watch = true
	cfg.Telemetry.Metrics.Enabled = true
	ApplyDefaults(cfg)
	return cfg
}
