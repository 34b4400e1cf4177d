package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"custodia-hq/custodia/pkg/audit"
	"custodia-hq/custodia/pkg/evidence"
)

// SQLiteConfig contains configuration for the SQLite audit backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging for concurrent readers.
	// Default: true
	WALMode bool

	// BusyTimeout is the wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/audit.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements audit.Storage using SQLite. The schema has no
// update statements: the table is append-only by construction.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens (or creates) the audit database and initializes
// the schema.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "audit.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite audit storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize sets up the schema and pragmas.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return audit.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return audit.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return audit.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return audit.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return audit.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return audit.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Append persists one sanitized entry.
func (s *SQLiteStorage) Append(ctx context.Context, entry *audit.Entry) error {
	if entry == nil {
		return audit.NewStorageError("sqlite", "append", errors.New("nil entry"))
	}
	if !entry.Sanitized {
		return audit.NewStorageError("sqlite", "append", errors.New("entry not sanitized"))
	}

	metadata, err := marshalMetadata(entry.Metadata)
	if err != nil {
		return audit.NewStorageError("sqlite", "append", err)
	}

	_, err = s.db.ExecContext(ctx, InsertEntry,
		entry.ID,
		entry.Timestamp,
		entry.ActorID,
		entry.ActorName,
		string(entry.Action),
		entry.ResourceType,
		entry.ResourceID,
		entry.IPAddress,
		entry.UserAgent,
		string(entry.Result),
		entry.Reason,
		metadata,
		entry.Sanitized,
	)
	if err != nil {
		return audit.NewStorageError("sqlite", "append", err)
	}

	return nil
}

// List retrieves entries matching the filter, newest-first.
func (s *SQLiteStorage) List(ctx context.Context, filter *audit.Filter) ([]*audit.Entry, error) {
	query, args := buildListQuery(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "list", err)
	}
	defer rows.Close()

	var results []*audit.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, audit.NewStorageError("sqlite", "scan", err)
		}
		results = append(results, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, audit.NewStorageError("sqlite", "list", err)
	}

	return results, nil
}

// Count returns the number of entries matching the filter.
func (s *SQLiteStorage) Count(ctx context.Context, filter *audit.Filter) (int64, error) {
	where, args := buildWhere(filter)

	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_log"+where, args...).Scan(&count)
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "count", err)
	}

	return count, nil
}

// Prune deletes entries older than the cutoff and, if keepMax > 0, the
// oldest entries beyond keepMax.
func (s *SQLiteStorage) Prune(ctx context.Context, cutoff time.Time, keepMax int64) (int64, error) {
	var total int64

	res, err := s.db.ExecContext(ctx, "DELETE FROM audit_log WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "prune_age", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}

	if keepMax > 0 {
		res, err = s.db.ExecContext(ctx, `
			DELETE FROM audit_log WHERE id IN (
				SELECT id FROM audit_log
				ORDER BY timestamp DESC
				LIMIT -1 OFFSET ?
			)`, keepMax)
		if err != nil {
			return total, audit.NewStorageError("sqlite", "prune_count", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}

	return total, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return audit.NewStorageError("sqlite", "close", err)
	}
	return nil
}

// buildListQuery assembles the filtered, newest-first SELECT.
func buildListQuery(filter *audit.Filter) (string, []interface{}) {
	where, args := buildWhere(filter)

	query := `SELECT id, timestamp, actor_id, actor_name, action, resource_type,
		resource_id, ip_address, user_agent, result, reason, metadata, sanitized
		FROM audit_log` + where + " ORDER BY timestamp DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	} else if filter != nil && filter.Offset > 0 {
		// SQLite needs a LIMIT clause before OFFSET.
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filter.Offset)
	}

	return query, args
}

// buildWhere assembles the WHERE clause for a filter.
func buildWhere(filter *audit.Filter) (string, []interface{}) {
	if filter == nil {
		return "", nil
	}

	var conds []string
	var args []interface{}

	if filter.StartTime != nil {
		conds = append(conds, "timestamp >= ?")
		args = append(args, *filter.StartTime)
	}
	if filter.EndTime != nil {
		conds = append(conds, "timestamp <= ?")
		args = append(args, *filter.EndTime)
	}
	if filter.ActorID != "" {
		conds = append(conds, "actor_id = ?")
		args = append(args, filter.ActorID)
	}
	if filter.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, string(filter.Action))
	}
	if filter.Result != "" {
		conds = append(conds, "result = ?")
		args = append(args, string(filter.Result))
	}
	if filter.ResourceID != "" {
		conds = append(conds, "resource_id = ?")
		args = append(args, filter.ResourceID)
	}

	if len(conds) == 0 {
		return "", nil
	}

	where := " WHERE " + conds[0]
	for _, c := range conds[1:] {
		where += " AND " + c
	}
	return where, args
}

// scanEntry reads one row into an Entry.
func scanEntry(rows *sql.Rows) (*audit.Entry, error) {
	var entry audit.Entry
	var action, result, metadata string

	err := rows.Scan(
		&entry.ID,
		&entry.Timestamp,
		&entry.ActorID,
		&entry.ActorName,
		&action,
		&entry.ResourceType,
		&entry.ResourceID,
		&entry.IPAddress,
		&entry.UserAgent,
		&result,
		&entry.Reason,
		&metadata,
		&entry.Sanitized,
	)
	if err != nil {
		return nil, err
	}

	entry.Action = evidence.Action(action)
	entry.Result = audit.Result(result)

	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	return &entry, nil
}

// marshalMetadata serializes metadata to JSON; empty maps store as "".
func marshalMetadata(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(data), nil
}
