package config

import "time"

// Config is the root configuration structure for Quotient. It contains all
// configuration sections for quota enforcement, policy storage, the usage
// ledger, audit recording, reconciliation, and telemetry.
type Config struct {
	// Quota contains quota checker configuration including the failure
	// policy applied when the usage ledger is unavailable.
	Quota QuotaConfig `yaml:"quota"`

	// Server contains configuration for the HTTP quota API.
	Server ServerConfig `yaml:"server"`

	// Policy contains configuration for the policy store holding tiers,
	// assignments, and overrides.
	Policy PolicyConfig `yaml:"policy"`

	// Ledger contains configuration for the usage ledger.
	Ledger LedgerConfig `yaml:"ledger"`

	// Audit contains configuration for the audit event trail.
	Audit AuditConfig `yaml:"audit"`

	// Reconciler contains configuration for scheduled reconciliation of
	// the ledger against the billing source of truth.
	Reconciler ReconcilerConfig `yaml:"reconciler"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// QuotaConfig contains quota checker configuration.
type QuotaConfig struct {
	// Enabled controls whether quota enforcement is active. When false,
	// every check is allowed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// FailurePolicy decides the outcome of a quota check when the usage
	// ledger is unavailable.
	// Options: "fail_open", "fail_closed"
	// Default: "fail_open"
	FailurePolicy string `yaml:"failure_policy"`
}

// ServerConfig contains configuration for the HTTP quota API.
type ServerConfig struct {
	// Enabled controls whether the HTTP quota API is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address and port to bind to.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request on a
	// keep-alive connection.
	// Default: 60s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is how long to wait for in-flight requests during
	// graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// PolicyConfig contains configuration for the policy store.
type PolicyConfig struct {
	// Backend specifies the policy store backend.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// SeedFile is an optional YAML file of tiers, assignments, and
	// overrides loaded into the store at startup. Empty means no seeding.
	SeedFile string `yaml:"seed_file"`

	// Watch enables automatic reloading of the seed file when it changes.
	// Only effective when SeedFile is set.
	// Default: false
	Watch bool `yaml:"watch"`
}

// LedgerConfig contains configuration for the usage ledger.
type LedgerConfig struct {
	// Backend specifies the ledger backend.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig contains SQLite backend configuration.
type SQLiteConfig struct {
	// Path is the file path for the SQLite database.
	Path string `yaml:"path"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// AuditConfig contains configuration for the audit event trail.
type AuditConfig struct {
	// Enabled controls whether audit recording is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend specifies the audit storage backend.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite AuditSQLiteConfig `yaml:"sqlite"`

	// Recorder contains audit recorder configuration.
	Recorder RecorderConfig `yaml:"recorder"`

	// Retention contains retention policy configuration.
	Retention RetentionConfig `yaml:"retention"`

	// Export contains export configuration.
	Export ExportConfig `yaml:"export"`
}

// AuditSQLiteConfig contains SQLite configuration for audit storage.
type AuditSQLiteConfig struct {
	// Path is the file path for the SQLite database.
	// Default: "data/audit.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RecorderConfig contains audit recorder configuration.
type RecorderConfig struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout is the timeout for writing an event to storage.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig contains retention policy configuration.
type RetentionConfig struct {
	// Days is the number of days to retain audit events. Events older
	// than this are eligible for deletion.
	// 0 means keep events forever (no pruning).
	// Default: 90
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for scheduling pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`

	// ArchiveBeforeDelete enables archiving events before deletion.
	// Default: false
	ArchiveBeforeDelete bool `yaml:"archive_before_delete"`

	// ArchivePath is the directory to store archived events.
	// Default: "data/archives/"
	ArchivePath string `yaml:"archive_path"`
}

// ExportConfig contains export configuration.
type ExportConfig struct {
	// JSONPretty enables pretty-printing for JSON exports.
	// Default: true
	JSONPretty bool `yaml:"json_pretty"`

	// CSVIncludeHeader includes a header row in CSV exports.
	// Default: true
	CSVIncludeHeader bool `yaml:"csv_include_header"`
}

// ReconcilerConfig contains configuration for scheduled reconciliation.
type ReconcilerConfig struct {
	// Enabled controls whether scheduled reconciliation is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Schedule is a cron expression for scheduling reconciliation runs.
	// Default: "0 * * * *" (hourly)
	Schedule string `yaml:"schedule"`

	// BillingExport is the path to the billing export file the ledger is
	// reconciled against. Required when Enabled is true.
	BillingExport string `yaml:"billing_export"`

	// Tolerance is the absolute drift in USD below which the ledger is
	// left untouched.
	// Default: 0.01
	Tolerance float64 `yaml:"tolerance"`

	// RunTimeout is the maximum duration of a single reconciliation run.
	// Default: 5m
	RunTimeout time.Duration `yaml:"run_timeout"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether the Prometheus metrics endpoint is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address and port for the metrics server.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`
}
