package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the audit log schema.
// There is deliberately no UPDATE path anywhere in this package: entries
// are append-only.
const Schema = `
-- Audit log entries
CREATE TABLE IF NOT EXISTS audit_log (
    id TEXT PRIMARY KEY,
    timestamp TIMESTAMP NOT NULL,

    -- Who
    actor_id TEXT NOT NULL,
    actor_name TEXT,

    -- What
    action TEXT NOT NULL,
    resource_type TEXT NOT NULL,
    resource_id TEXT NOT NULL,

    -- Where from
    ip_address TEXT,
    user_agent TEXT,

    -- Outcome
    result TEXT NOT NULL,
    reason TEXT,
    metadata TEXT,
    sanitized BOOLEAN NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_actor ON audit_log(actor_id);
CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_log(resource_id);
CREATE INDEX IF NOT EXISTS idx_audit_result ON audit_log(result);

-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

// InsertSchemaVersion records the schema version (idempotent).
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?);`

// GetSchemaVersion retrieves the recorded schema version.
const GetSchemaVersion = `SELECT version FROM schema_version LIMIT 1;`

// InsertEntry is the append statement.
const InsertEntry = `
INSERT INTO audit_log (
    id, timestamp, actor_id, actor_name, action, resource_type,
    resource_id, ip_address, user_agent, result, reason, metadata, sanitized
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
