package config

import "time"

// Default values for configuration fields.
const (
	// Quota defaults
	DefaultFailurePolicy = "fail_open"

	// Server defaults
	DefaultServerAddress         = "127.0.0.1:8080"
	DefaultServerReadTimeout     = 10 * time.Second
	DefaultServerWriteTimeout    = 10 * time.Second
	DefaultServerIdleTimeout     = 60 * time.Second
	DefaultServerShutdownTimeout = 10 * time.Second

	// Policy store defaults
	DefaultPolicyBackend = "memory"

	// Ledger defaults
	DefaultLedgerBackend = "memory"

	// Shared SQLite defaults
	DefaultBusyTimeout = 5 * time.Second

	// Audit defaults
	DefaultAuditBackend       = "sqlite"
	DefaultAuditDBPath        = "data/audit.db"
	DefaultAuditMaxOpenConns  = 10
	DefaultAuditMaxIdleConns  = 5
	DefaultAuditAsyncBuffer   = 1000
	DefaultAuditWriteTimeout  = 5 * time.Second
	DefaultAuditRetentionDays = 90
	DefaultAuditPruneSchedule = "0 3 * * *"
	DefaultAuditArchivePath   = "data/archives/"

	// Reconciler defaults
	DefaultReconcileSchedule  = "0 * * * *"
	DefaultReconcileTolerance = 0.01
	DefaultReconcileTimeout   = 5 * time.Minute

	// Telemetry defaults
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultMetricsAddress = "127.0.0.1:9090"
	DefaultMetricsPath    = "/metrics"
)

// NewDefaultConfig returns a Config populated with all default values,
// including the enabled-style flags that ApplyDefaults leaves alone.
// Intended for programmatic use and tests.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Quota.Enabled = true
	cfg.Server.Enabled = true
	cfg.Audit.Enabled = true
	cfg.Audit.SQLite.WALMode = true
	cfg.Audit.Export.JSONPretty = true
	cfg.Audit.Export.CSVIncludeHeader = true
	cfg.Telemetry.Metrics.Enabled = true
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in default values for zero-valued configuration
// fields. Boolean fields are not defaulted here: YAML cannot distinguish
// "false" from "unset", so enabled-style flags default true only in
// NewDefaultConfig.
func ApplyDefaults(cfg *Config) {
	if cfg.Quota.FailurePolicy == "" {
		cfg.Quota.FailurePolicy = DefaultFailurePolicy
	}

	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultServerAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultServerIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}

	if cfg.Policy.Backend == "" {
		cfg.Policy.Backend = DefaultPolicyBackend
	}
	if cfg.Policy.SQLite.BusyTimeout == 0 {
		cfg.Policy.SQLite.BusyTimeout = DefaultBusyTimeout
	}

	if cfg.Ledger.Backend == "" {
		cfg.Ledger.Backend = DefaultLedgerBackend
	}
	if cfg.Ledger.SQLite.BusyTimeout == 0 {
		cfg.Ledger.SQLite.BusyTimeout = DefaultBusyTimeout
	}

	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.SQLite.Path == "" {
		cfg.Audit.SQLite.Path = DefaultAuditDBPath
	}
	if cfg.Audit.SQLite.MaxOpenConns == 0 {
		cfg.Audit.SQLite.MaxOpenConns = DefaultAuditMaxOpenConns
	}
	if cfg.Audit.SQLite.MaxIdleConns == 0 {
		cfg.Audit.SQLite.MaxIdleConns = DefaultAuditMaxIdleConns
	}
	if cfg.Audit.SQLite.BusyTimeout == 0 {
		cfg.Audit.SQLite.BusyTimeout = DefaultBusyTimeout
	}
	if cfg.Audit.Recorder.AsyncBuffer == 0 {
		cfg.Audit.Recorder.AsyncBuffer = DefaultAuditAsyncBuffer
	}
	if cfg.Audit.Recorder.WriteTimeout == 0 {
		cfg.Audit.Recorder.WriteTimeout = DefaultAuditWriteTimeout
	}
	if cfg.Audit.Retention.Days == 0 {
		cfg.Audit.Retention.Days = DefaultAuditRetentionDays
	}
	if cfg.Audit.Retention.PruneSchedule == "" {
		cfg.Audit.Retention.PruneSchedule = DefaultAuditPruneSchedule
	}
	if cfg.Audit.Retention.ArchivePath == "" {
		cfg.Audit.Retention.ArchivePath = DefaultAuditArchivePath
	}

	if cfg.Reconciler.Schedule == "" {
		cfg.Reconciler.Schedule = DefaultReconcileSchedule
	}
	if cfg.Reconciler.Tolerance == 0 {
		cfg.Reconciler.Tolerance = DefaultReconcileTolerance
	}
	if cfg.Reconciler.RunTimeout == 0 {
		cfg.Reconciler.RunTimeout = DefaultReconcileTimeout
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}
