package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteLedger implements Ledger using SQLite for durable counters.
//
// Atomicity of Increment relies on the database's upsert arithmetic, not on
// caller-side read-then-write: the add happens inside a single statement,
// so concurrent increments never lose updates. The connection pool is
// capped at one writer, which SQLite requires anyway.
type SQLiteLedger struct {
	db        *sql.DB
	dbPath    string
	closeOnce sync.Once

	readStmt    *sql.Stmt
	incrStmt    *sql.Stmt
	setStmt     *sql.Stmt
	periodsStmt *sql.Stmt
}

// SQLiteLedgerConfig configures the SQLite ledger.
type SQLiteLedgerConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteLedger creates a SQLite-backed ledger with default settings.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	return NewSQLiteLedgerWithConfig(SQLiteLedgerConfig{DBPath: dbPath})
}

// NewSQLiteLedgerWithConfig creates a SQLite-backed ledger with custom
// configuration.
func NewSQLiteLedgerWithConfig(cfg SQLiteLedgerConfig) (*SQLiteLedger, error) {
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
		return nil, newError("sqlite", "open", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	l := &SQLiteLedger{
		db:     db,
		dbPath: cfg.DBPath,
	}

	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, newError("sqlite", "init_schema", err)
	}
	if err := l.prepareStatements(); err != nil {
		db.Close()
		return nil, newError("sqlite", "prepare", err)
	}

	return l, nil
}

func (l *SQLiteLedger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage_records (
		user_id TEXT NOT NULL,
		period_key TEXT NOT NULL,
		current_usage REAL NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, period_key)
	);

	CREATE INDEX IF NOT EXISTS idx_usage_period ON usage_records(period_key);
	`

	_, err := l.db.Exec(schema)
	return err
}

func (l *SQLiteLedger) prepareStatements() error {
	var err error

	l.readStmt, err = l.db.Prepare(`
		SELECT current_usage FROM usage_records
		WHERE user_id = ? AND period_key = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare read statement: %w", err)
	}

	// The add happens entirely inside the upsert, so concurrent callers
	// never observe or overwrite each other's partial state.
	l.incrStmt, err = l.db.Prepare(`
		INSERT INTO usage_records (user_id, period_key, current_usage, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, period_key) DO UPDATE SET
			current_usage = current_usage + excluded.current_usage,
			updated_at = excluded.updated_at
		RETURNING current_usage
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare increment statement: %w", err)
	}

	l.setStmt, err = l.db.Prepare(`
		INSERT INTO usage_records (user_id, period_key, current_usage, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, period_key) DO UPDATE SET
			current_usage = excluded.current_usage,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare reconcile statement: %w", err)
	}

	l.periodsStmt, err = l.db.Prepare(`
		SELECT period_key FROM usage_records
		WHERE user_id = ?
		ORDER BY period_key
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare periods statement: %w", err)
	}

	return nil
}

// Read returns the current usage for a user and period.
func (l *SQLiteLedger) Read(ctx context.Context, userID, periodKey string) (float64, error) {
	var amount float64
	err := l.readStmt.QueryRowContext(ctx, userID, periodKey).Scan(&amount)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, newError("sqlite", "read", err)
	}
	return amount, nil
}

// Increment atomically adds delta and returns the new total.
func (l *SQLiteLedger) Increment(ctx context.Context, userID, periodKey string, delta float64) (float64, error) {
	var total float64
	err := l.incrStmt.QueryRowContext(ctx, userID, periodKey, delta, time.Now().Unix()).Scan(&total)
	if err != nil {
		return 0, newError("sqlite", "increment", err)
	}
	return total, nil
}

// ReconcileSet sets the counter to an absolute value.
func (l *SQLiteLedger) ReconcileSet(ctx context.Context, userID, periodKey string, amount float64) error {
	_, err := l.setStmt.ExecContext(ctx, userID, periodKey, amount, time.Now().Unix())
	if err != nil {
		return newError("sqlite", "reconcile_set", err)
	}
	return nil
}

// Periods returns all period keys with recorded usage for a user.
func (l *SQLiteLedger) Periods(ctx context.Context, userID string) ([]string, error) {
	rows, err := l.periodsStmt.QueryContext(ctx, userID)
	if err != nil {
		return nil, newError("sqlite", "periods", err)
	}
	defer rows.Close()

	var periods []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, newError("sqlite", "scan", err)
		}
		periods = append(periods, key)
	}
	if err := rows.Err(); err != nil {
		return nil, newError("sqlite", "periods", err)
	}
	return periods, nil
}

// Close releases resources. It is idempotent.
func (l *SQLiteLedger) Close() error {
	var closeErr error

	l.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{l.readStmt, l.incrStmt, l.setStmt, l.periodsStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		if l.db != nil {
			_, _ = l.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = l.db.Close()
		}
	})

	return closeErr
}
