package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	return path
}

// TestDefaultConfig verifies the shipped defaults validate.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("Default configuration invalid: %v", err)
	}
	if cfg.Audit.Backend != "sqlite" {
		t.Errorf("Expected sqlite default backend, got %s", cfg.Audit.Backend)
	}
	if !cfg.Audit.Enabled {
		t.Error("Audit must be enabled by default")
	}
	if cfg.Audit.WriteTimeout != 5*time.Second {
		t.Errorf("Unexpected default write timeout: %s", cfg.Audit.WriteTimeout)
	}
}

// TestLoadConfig loads a partial file and checks defaults fill the rest.
func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
audit:
  enabled: true
  backend: memory
  memory:
    capacity: 500
scopes:
  path: /etc/custodia/scopes.yaml
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.Audit.Backend != "memory" {
		t.Errorf("Expected memory backend, got %s", cfg.Audit.Backend)
	}
	if cfg.Audit.Memory.Capacity != 500 {
		t.Errorf("Expected capacity 500, got %d", cfg.Audit.Memory.Capacity)
	}
	if cfg.Audit.AsyncBuffer != 1000 {
		t.Errorf("Default async buffer not applied: %d", cfg.Audit.AsyncBuffer)
	}
	if cfg.Telemetry.Logging.Level != "info" {
		t.Errorf("Default log level not applied: %s", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Metrics.ListenAddress != "127.0.0.1:9464" {
		t.Errorf("Default metrics listen address not applied: %s", cfg.Telemetry.Metrics.ListenAddress)
	}
	if cfg.Scopes.Path != "/etc/custodia/scopes.yaml" {
		t.Errorf("Scope path lost: %s", cfg.Scopes.Path)
	}
}

// TestLoadConfig_ValidationErrors covers rejection of bad values.
func TestLoadConfig_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown backend",
			yaml: "audit:\n  backend: postgres\n",
		},
		{
			name: "bad cron schedule",
			yaml: "audit:\n  retention:\n    schedule: nope\n",
		},
		{
			name: "negative retention days",
			yaml: "audit:\n  retention:\n    days: -5\n",
		},
		{
			name: "unknown log level",
			yaml: "telemetry:\n  logging:\n    level: verbose\n",
		},
		{
			name: "malformed yaml",
			yaml: "audit: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.yaml)
			if _, err := LoadConfig(path); err == nil {
				t.Fatal("Expected load failure")
			}
		})
	}
}

// TestLoadConfig_MissingFile verifies a clear error for a missing path.
func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

// TestEnvOverrides verifies CUSTODIA_* variables win over file values.
func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
audit:
  backend: sqlite
  sqlite:
    path: data/file.db
`)

	t.Setenv("CUSTODIA_AUDIT_BACKEND", "memory")
	t.Setenv("CUSTODIA_AUDIT_SQLITE_PATH", "/var/lib/custodia/audit.db")
	t.Setenv("CUSTODIA_AUDIT_RETENTION_DAYS", "30")
	t.Setenv("CUSTODIA_TELEMETRY_LOGGING_LEVEL", "debug")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() failed: %v", err)
	}
	if cfg.Audit.Backend != "memory" {
		t.Errorf("Backend override lost: %s", cfg.Audit.Backend)
	}
	if cfg.Audit.SQLite.Path != "/var/lib/custodia/audit.db" {
		t.Errorf("SQLite path override lost: %s", cfg.Audit.SQLite.Path)
	}
	if cfg.Audit.Retention.Days != 30 {
		t.Errorf("Retention override lost: %d", cfg.Audit.Retention.Days)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("Log level override lost: %s", cfg.Telemetry.Logging.Level)
	}
}

// TestEnvOverrides_Revalidated verifies a bad override fails the load.
func TestEnvOverrides_Revalidated(t *testing.T) {
	path := writeConfig(t, "audit:\n  backend: memory\n")

	t.Setenv("CUSTODIA_AUDIT_BACKEND", "postgres")

	if _, err := LoadConfigWithEnvOverrides(path); err == nil {
		t.Fatal("Expected validation failure after override")
	}
}
