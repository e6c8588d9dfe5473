// Package config provides configuration management for Quotient.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with comprehensive validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention QUOTIENT_SECTION_FIELD.
// For example:
//
//   - QUOTIENT_QUOTA_FAILURE_POLICY overrides quota.failure_policy
//   - QUOTIENT_LEDGER_SQLITE_PATH overrides ledger.sqlite.path
//   - QUOTIENT_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Process configuration
//
// Init loads and installs the process configuration in one step:
//
//	cfg, err := config.Init("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Quota.FailurePolicy)
//
// Calling Init again replaces the installed configuration, which is how a
// reload works; Current returns whatever the last successful Init
// installed. Components should still take a *Config at construction, so
// tests can inject explicit instances.
//
// # Validation
//
// All configuration is validated automatically during loading. Validation
// errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - quota.failure_policy: invalid failure policy "open": must be one of fail_open, fail_closed
//	  - ledger.sqlite.path: path is required when backend is sqlite
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	quota:
//	  enabled: true
//	  failure_policy: "fail_open"
//
//	policy:
//	  backend: "sqlite"
//	  sqlite:
//	    path: "data/policy.db"
//	  seed_file: "./tiers.yaml"
//	  watch: true
//
//	ledger:
//	  backend: "sqlite"
//	  sqlite:
//	    path: "data/usage.db"
//
//	audit:
//	  enabled: true
//	  backend: "sqlite"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// # Thread Safety
//
// All configuration access is thread-safe. The singleton pattern uses
// read-write locks to allow concurrent reads while protecting against
// concurrent writes during reload operations.
package config
