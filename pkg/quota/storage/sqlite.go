package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"solara-hq/quotient/pkg/quota"
)

const (
	entityTier       = "tier"
	entityAssignment = "assignment"
	entityOverride   = "override"
)

// SQLiteBackend implements quota.Store using SQLite. Records are stored as
// JSON keyed by (entity_type, id), with kind and subject columns for the
// lookups the resolvers perform. Suitable for single-instance deployments
// where policy must survive restarts.
type SQLiteBackend struct {
	db        *sql.DB
	dbPath    string
	closeOnce sync.Once

	getStmt    *sql.Stmt
	putStmt    *sql.Stmt
	deleteStmt *sql.Stmt
	listStmt   *sql.Stmt
	kindStmt   *sql.Stmt
}

// SQLiteBackendConfig configures the SQLite backend.
type SQLiteBackendConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteBackend creates a SQLite store with default settings.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	return NewSQLiteBackendWithConfig(SQLiteBackendConfig{DBPath: dbPath})
}

// NewSQLiteBackendWithConfig creates a SQLite store with custom
// configuration.
func NewSQLiteBackendWithConfig(cfg SQLiteBackendConfig) (*SQLiteBackend, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, quota.NewStoreError("sqlite", "open", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	backend := &SQLiteBackend{
		db:     db,
		dbPath: cfg.DBPath,
	}

	if err := backend.initSchema(); err != nil {
		db.Close()
		return nil, quota.NewStoreError("sqlite", "init_schema", err)
	}
	if err := backend.prepareStatements(); err != nil {
		db.Close()
		return nil, quota.NewStoreError("sqlite", "prepare", err)
	}

	return backend, nil
}

func (s *SQLiteBackend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS policy_records (
		entity_type TEXT NOT NULL,
		id TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		record TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (entity_type, id)
	);

	CREATE INDEX IF NOT EXISTS idx_policy_kind_subject
		ON policy_records(entity_type, kind, subject);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteBackend) prepareStatements() error {
	var err error

	s.getStmt, err = s.db.Prepare(`
		SELECT record FROM policy_records
		WHERE entity_type = ? AND id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.putStmt, err = s.db.Prepare(`
		INSERT INTO policy_records (entity_type, id, kind, subject, record, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (entity_type, id) DO UPDATE SET
			kind = excluded.kind,
			subject = excluded.subject,
			record = excluded.record,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare put statement: %w", err)
	}

	s.deleteStmt, err = s.db.Prepare(`
		DELETE FROM policy_records
		WHERE entity_type = ? AND id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT record FROM policy_records
		WHERE entity_type = ?
		ORDER BY id
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	s.kindStmt, err = s.db.Prepare(`
		SELECT record FROM policy_records
		WHERE entity_type = ? AND kind = ? AND (? = '' OR subject = ?)
		ORDER BY id
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare kind statement: %w", err)
	}

	return nil
}

// GetTier returns the tier with the given ID.
func (s *SQLiteBackend) GetTier(ctx context.Context, tierID string) (*quota.Tier, error) {
	var record string
	err := s.getStmt.QueryRowContext(ctx, entityTier, tierID).Scan(&record)
	if err == sql.ErrNoRows {
		return nil, &quota.NotFoundError{Entity: "tier", Key: tierID}
	}
	if err != nil {
		return nil, quota.NewStoreError("sqlite", "get_tier", err)
	}

	var tier quota.Tier
	if err := json.Unmarshal([]byte(record), &tier); err != nil {
		return nil, quota.NewStoreError("sqlite", "unmarshal_tier", err)
	}
	return &tier, nil
}

// PutTier creates or replaces a tier.
func (s *SQLiteBackend) PutTier(ctx context.Context, tier *quota.Tier) error {
	return s.put(ctx, entityTier, tier.TierID, "", "", tier, "put_tier")
}

// DeleteTier removes a tier.
func (s *SQLiteBackend) DeleteTier(ctx context.Context, tierID string) error {
	return s.delete(ctx, entityTier, tierID, "delete_tier")
}

// ListTiers returns all tiers ordered by tier ID.
func (s *SQLiteBackend) ListTiers(ctx context.Context) ([]*quota.Tier, error) {
	rows, err := s.listStmt.QueryContext(ctx, entityTier)
	if err != nil {
		return nil, quota.NewStoreError("sqlite", "list_tiers", err)
	}
	defer rows.Close()

	var tiers []*quota.Tier
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, quota.NewStoreError("sqlite", "scan", err)
		}
		var tier quota.Tier
		if err := json.Unmarshal([]byte(record), &tier); err != nil {
			return nil, quota.NewStoreError("sqlite", "unmarshal_tier", err)
		}
		tiers = append(tiers, &tier)
	}
	if err := rows.Err(); err != nil {
		return nil, quota.NewStoreError("sqlite", "list_tiers", err)
	}
	return tiers, nil
}

// GetUserAssignment returns the direct-user assignment for a user, or nil.
func (s *SQLiteBackend) GetUserAssignment(ctx context.Context, userID string) (*quota.Assignment, error) {
	assignments, err := s.queryAssignments(ctx, string(quota.AssignmentDirectUser), userID)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, nil
	}
	return assignments[0], nil
}

// ListRoleAssignments returns all assignments for a JWT role.
func (s *SQLiteBackend) ListRoleAssignments(ctx context.Context, role string) ([]*quota.Assignment, error) {
	return s.queryAssignments(ctx, string(quota.AssignmentJWTRole), role)
}

// ListAssignmentsByType returns all assignments of a type, ordered by
// priority descending.
func (s *SQLiteBackend) ListAssignmentsByType(ctx context.Context, typ quota.AssignmentType) ([]*quota.Assignment, error) {
	assignments, err := s.queryAssignments(ctx, string(typ), "")
	if err != nil {
		return nil, err
	}

	// Priority ordering lives in the JSON, not in a column; sort here.
	for i := 1; i < len(assignments); i++ {
		for j := i; j > 0 && higherPriority(assignments[j], assignments[j-1]); j-- {
			assignments[j], assignments[j-1] = assignments[j-1], assignments[j]
		}
	}
	return assignments, nil
}

func higherPriority(a, b *quota.Assignment) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.AssignmentID < b.AssignmentID
}

func (s *SQLiteBackend) queryAssignments(ctx context.Context, kind, subject string) ([]*quota.Assignment, error) {
	rows, err := s.kindStmt.QueryContext(ctx, entityAssignment, kind, subject, subject)
	if err != nil {
		return nil, quota.NewStoreError("sqlite", "query_assignments", err)
	}
	defer rows.Close()

	var assignments []*quota.Assignment
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, quota.NewStoreError("sqlite", "scan", err)
		}
		var a quota.Assignment
		if err := json.Unmarshal([]byte(record), &a); err != nil {
			return nil, quota.NewStoreError("sqlite", "unmarshal_assignment", err)
		}
		assignments = append(assignments, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, quota.NewStoreError("sqlite", "query_assignments", err)
	}
	return assignments, nil
}

// PutAssignment creates or replaces an assignment.
func (s *SQLiteBackend) PutAssignment(ctx context.Context, a *quota.Assignment) error {
	return s.put(ctx, entityAssignment, a.AssignmentID, string(a.Type), a.Subject, a, "put_assignment")
}

// DeleteAssignment removes an assignment.
func (s *SQLiteBackend) DeleteAssignment(ctx context.Context, assignmentID string) error {
	return s.delete(ctx, entityAssignment, assignmentID, "delete_assignment")
}

// ListOverridesForUser returns all overrides for a user.
func (s *SQLiteBackend) ListOverridesForUser(ctx context.Context, userID string) ([]*quota.Override, error) {
	rows, err := s.kindStmt.QueryContext(ctx, entityOverride, "", userID, userID)
	if err != nil {
		return nil, quota.NewStoreError("sqlite", "list_overrides", err)
	}
	defer rows.Close()

	var overrides []*quota.Override
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, quota.NewStoreError("sqlite", "scan", err)
		}
		var o quota.Override
		if err := json.Unmarshal([]byte(record), &o); err != nil {
			return nil, quota.NewStoreError("sqlite", "unmarshal_override", err)
		}
		overrides = append(overrides, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, quota.NewStoreError("sqlite", "list_overrides", err)
	}
	return overrides, nil
}

// PutOverride creates or replaces an override.
func (s *SQLiteBackend) PutOverride(ctx context.Context, o *quota.Override) error {
	return s.put(ctx, entityOverride, o.OverrideID, "", o.UserID, o, "put_override")
}

// DeleteOverride removes an override.
func (s *SQLiteBackend) DeleteOverride(ctx context.Context, overrideID string) error {
	return s.delete(ctx, entityOverride, overrideID, "delete_override")
}

func (s *SQLiteBackend) put(ctx context.Context, entityType, id, kind, subject string, v any, op string) error {
	record, err := json.Marshal(v)
	if err != nil {
		return quota.NewStoreError("sqlite", op, err)
	}

	_, err = s.putStmt.ExecContext(ctx, entityType, id, kind, subject, string(record), time.Now().Unix())
	if err != nil {
		return quota.NewStoreError("sqlite", op, err)
	}
	return nil
}

func (s *SQLiteBackend) delete(ctx context.Context, entityType, id, op string) error {
	_, err := s.deleteStmt.ExecContext(ctx, entityType, id)
	if err != nil {
		return quota.NewStoreError("sqlite", op, err)
	}
	return nil
}

// Close releases resources. It is idempotent.
func (s *SQLiteBackend) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.getStmt, s.putStmt, s.deleteStmt, s.listStmt, s.kindStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}
