package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	currentMu sync.RWMutex
	current   *Config
)

// Init loads the configuration at path, applies environment overrides, and
// installs it as the configuration returned by Current. A later Init
// replaces the installed configuration, so reloading is just another Init
// against the same path; when loading fails the previous configuration
// stays installed.
func Init(path string) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, err
	}

	currentMu.Lock()
	current = cfg
	currentMu.Unlock()
	return cfg, nil
}

// Current returns the configuration installed by the last successful Init,
// or nil before the first one. Components take a *Config at construction;
// this accessor exists for handlers that outlive the startup path.
func Current() *Config {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Environment variables follow the
// naming convention QUOTIENT_SECTION_FIELD (e.g. QUOTIENT_QUOTA_FAILURE_POLICY).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format QUOTIENT_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Quota overrides
	if val := os.Getenv("QUOTIENT_QUOTA_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Quota.Enabled = b
		}
	}
	if val := os.Getenv("QUOTIENT_QUOTA_FAILURE_POLICY"); val != "" {
		cfg.Quota.FailurePolicy = val
	}

	// Server overrides
	if val := os.Getenv("QUOTIENT_SERVER_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Server.Enabled = b
		}
	}
	if val := os.Getenv("QUOTIENT_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}

	// Policy store overrides
	if val := os.Getenv("QUOTIENT_POLICY_BACKEND"); val != "" {
		cfg.Policy.Backend = val
	}
	if val := os.Getenv("QUOTIENT_POLICY_SQLITE_PATH"); val != "" {
		cfg.Policy.SQLite.Path = val
	}
	if val := os.Getenv("QUOTIENT_POLICY_SEED_FILE"); val != "" {
		cfg.Policy.SeedFile = val
	}
	if val := os.Getenv("QUOTIENT_POLICY_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Policy.Watch = b
		}
	}

	// Ledger overrides
	if val := os.Getenv("QUOTIENT_LEDGER_BACKEND"); val != "" {
		cfg.Ledger.Backend = val
	}
	if val := os.Getenv("QUOTIENT_LEDGER_SQLITE_PATH"); val != "" {
		cfg.Ledger.SQLite.Path = val
	}

	// Audit overrides
	if val := os.Getenv("QUOTIENT_AUDIT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Audit.Enabled = b
		}
	}
	if val := os.Getenv("QUOTIENT_AUDIT_BACKEND"); val != "" {
		cfg.Audit.Backend = val
	}
	if val := os.Getenv("QUOTIENT_AUDIT_SQLITE_PATH"); val != "" {
		cfg.Audit.SQLite.Path = val
	}
	if val := os.Getenv("QUOTIENT_AUDIT_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Audit.Retention.Days = i
		}
	}
	if val := os.Getenv("QUOTIENT_AUDIT_PRUNE_SCHEDULE"); val != "" {
		cfg.Audit.Retention.PruneSchedule = val
	}

	// Reconciler overrides
	if val := os.Getenv("QUOTIENT_RECONCILER_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Reconciler.Enabled = b
		}
	}
	if val := os.Getenv("QUOTIENT_RECONCILER_SCHEDULE"); val != "" {
		cfg.Reconciler.Schedule = val
	}
	if val := os.Getenv("QUOTIENT_RECONCILER_BILLING_EXPORT"); val != "" {
		cfg.Reconciler.BillingExport = val
	}
	if val := os.Getenv("QUOTIENT_RECONCILER_TOLERANCE"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Reconciler.Tolerance = f
		}
	}
	if val := os.Getenv("QUOTIENT_RECONCILER_RUN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Reconciler.RunTimeout = d
		}
	}

	// Telemetry overrides
	if val := os.Getenv("QUOTIENT_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("QUOTIENT_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("QUOTIENT_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("QUOTIENT_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
	if val := os.Getenv("QUOTIENT_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}
