package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"solara-hq/quotient/pkg/audit"
	auditstorage "solara-hq/quotient/pkg/audit/storage"
	"solara-hq/quotient/pkg/config"
	"solara-hq/quotient/pkg/ledger"
	"solara-hq/quotient/pkg/quota"
	"solara-hq/quotient/pkg/quota/storage"
)

// initLogging configures the process-wide default logger from config.
func initLogging(cfg *config.Config) {
	var level slog.Level
	switch cfg.Telemetry.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.Telemetry.Logging.AddSource,
	}

	var handler slog.Handler
	if cfg.Telemetry.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// buildPolicyStore creates the configured policy store backend.
func buildPolicyStore(cfg *config.Config) (quota.Store, error) {
	switch cfg.Policy.Backend {
	case "sqlite":
		return storage.NewSQLiteBackendWithConfig(storage.SQLiteBackendConfig{
			DBPath:      cfg.Policy.SQLite.Path,
			BusyTimeout: cfg.Policy.SQLite.BusyTimeout,
		})
	case "memory":
		return storage.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported policy backend: %s", cfg.Policy.Backend)
	}
}

// buildLedger creates the configured usage ledger backend.
func buildLedger(cfg *config.Config) (ledger.Ledger, error) {
	switch cfg.Ledger.Backend {
	case "sqlite":
		return ledger.NewSQLiteLedgerWithConfig(ledger.SQLiteLedgerConfig{
			DBPath:      cfg.Ledger.SQLite.Path,
			BusyTimeout: cfg.Ledger.SQLite.BusyTimeout,
		})
	case "memory":
		return ledger.NewMemoryLedger(), nil
	default:
		return nil, fmt.Errorf("unsupported ledger backend: %s", cfg.Ledger.Backend)
	}
}

// buildAuditStorage creates the configured audit storage backend.
func buildAuditStorage(cfg *config.Config) (audit.Storage, error) {
	switch cfg.Audit.Backend {
	case "sqlite":
		return auditstorage.NewSQLiteStorage(&auditstorage.SQLiteConfig{
			Path:         cfg.Audit.SQLite.Path,
			MaxOpenConns: cfg.Audit.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.Audit.SQLite.MaxIdleConns,
			WALMode:      cfg.Audit.SQLite.WALMode,
			BusyTimeout:  cfg.Audit.SQLite.BusyTimeout,
		})
	case "memory":
		return auditstorage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported audit backend: %s", cfg.Audit.Backend)
	}
}

// seedPolicyStore loads and applies the seed file when one is configured.
func seedPolicyStore(ctx context.Context, cfg *config.Config, store quota.Store) error {
	if cfg.Policy.SeedFile == "" {
		return nil
	}

	seed, err := quota.LoadSeed(cfg.Policy.SeedFile)
	if err != nil {
		return err
	}
	return seed.Apply(ctx, quota.NewAdmin(store))
}
