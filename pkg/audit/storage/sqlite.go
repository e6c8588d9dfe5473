package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"solara-hq/quotient/pkg/audit"
	"solara-hq/quotient/pkg/quota"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
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

const schema = `
CREATE TABLE IF NOT EXISTS quota_events (
	event_id        TEXT PRIMARY KEY,
	timestamp       DATETIME NOT NULL,
	user_id         TEXT NOT NULL,
	tier_id         TEXT NOT NULL DEFAULT '',
	event_type      TEXT NOT NULL,
	current_usage   REAL NOT NULL,
	quota_limit     REAL NOT NULL,
	percentage_used REAL NOT NULL,
	session_id      TEXT NOT NULL DEFAULT '',
	metadata        TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_events_user_time ON quota_events(user_id, timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_events_type ON quota_events(event_type);
CREATE INDEX IF NOT EXISTS idx_events_time ON quota_events(timestamp);
`

// SQLiteStorage implements audit.Storage using SQLite.
type SQLiteStorage struct {
	db        *sql.DB
	config    *SQLiteConfig
	closeOnce sync.Once
	logger    *slog.Logger
}

// NewSQLiteStorage creates a new SQLite audit storage backend.
// It initializes the schema and enables WAL mode if configured.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.MaxOpenConns == 0 {
		config.MaxOpenConns = 10
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 5
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
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
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
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

	if _, err := s.db.Exec(schema); err != nil {
		return audit.NewStorageError("sqlite", "create_schema", err)
	}

	return nil
}

// Store persists an audit event.
func (s *SQLiteStorage) Store(ctx context.Context, event *audit.Event) error {
	metadata, _ := json.Marshal(event.Metadata)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quota_events (
			event_id, timestamp, user_id, tier_id, event_type,
			current_usage, quota_limit, percentage_used, session_id, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.EventID, event.Timestamp, event.UserID, event.TierID, string(event.Type),
		event.CurrentUsage, event.QuotaLimit, event.PercentageUsed, event.SessionID, string(metadata),
	)
	if err != nil {
		return audit.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Query retrieves events matching the query filters, newest first.
func (s *SQLiteStorage) Query(ctx context.Context, query *audit.Query) ([]*audit.Event, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT event_id, timestamp, user_id, tier_id, event_type, current_usage, quota_limit, percentage_used, session_id, metadata FROM quota_events"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}
	sqlQuery += " ORDER BY timestamp DESC"

	limit := 100
	if query != nil && query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)

	if query != nil && query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	events := []*audit.Event{}
	for rows.Next() {
		event, err := scanRow(rows)
		if err != nil {
			return nil, audit.NewStorageError("sqlite", "scan", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, audit.NewStorageError("sqlite", "query", err)
	}

	return events, nil
}

// Count returns the number of events matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *audit.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM quota_events"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, audit.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes events matching the query filters.
// Returns the number of events deleted.
func (s *SQLiteStorage) Delete(ctx context.Context, query *audit.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "DELETE FROM quota_events"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "delete", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "delete", err)
	}
	return count, nil
}

// Close releases resources held by the storage backend. It is idempotent.
func (s *SQLiteStorage) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		if err := s.db.Close(); err != nil {
			closeErr = audit.NewStorageError("sqlite", "close", err)
			return
		}
		s.logger.Info("SQLite audit storage closed")
	})
	return closeErr
}

// buildWhereClause builds a SQL WHERE clause from query filters.
// Returns the clause (without "WHERE") and the query arguments.
func buildWhereClause(query *audit.Query) (string, []interface{}) {
	if query == nil {
		return "", nil
	}

	var conditions []string
	var args []interface{}

	if query.StartTime != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, *query.StartTime)
	}
	if query.EndTime != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, *query.EndTime)
	}
	if query.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, query.UserID)
	}
	if query.TierID != "" {
		conditions = append(conditions, "tier_id = ?")
		args = append(args, query.TierID)
	}
	if query.Type != "" {
		conditions = append(conditions, "event_type = ?")
		args = append(args, string(query.Type))
	}

	whereClause := ""
	for i, condition := range conditions {
		if i > 0 {
			whereClause += " AND "
		}
		whereClause += condition
	}

	return whereClause, args
}

// scanRow scans a database row into an Event.
func scanRow(rows *sql.Rows) (*audit.Event, error) {
	var event audit.Event
	var eventType, metadata string

	err := rows.Scan(
		&event.EventID, &event.Timestamp, &event.UserID, &event.TierID, &eventType,
		&event.CurrentUsage, &event.QuotaLimit, &event.PercentageUsed, &event.SessionID, &metadata,
	)
	if err != nil {
		return nil, err
	}

	event.Type = quota.EventType(eventType)
	if metadata != "" && metadata != "{}" {
		json.Unmarshal([]byte(metadata), &event.Metadata)
	}

	return &event, nil
}
