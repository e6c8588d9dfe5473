package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return NewDefaultConfig()
}

func fieldsOf(err error) []string {
	verr, ok := err.(ValidationError)
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		fields = append(fields, fe.Field)
	}
	return fields
}

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected validation error for %s", field)
	}
	for _, f := range fieldsOf(err) {
		if f == field {
			return
		}
	}
	t.Errorf("expected error for field %s, got: %v", field, err)
}

func TestValidate_DefaultConfigValid(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidate_FailurePolicy(t *testing.T) {
	cfg := validConfig()
	cfg.Quota.FailurePolicy = "fail_fast"
	assertFieldError(t, Validate(cfg), "quota.failure_policy")
}

func TestValidate_ServerListenAddress(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Enabled = true
	cfg.Server.ListenAddress = ""
	assertFieldError(t, Validate(cfg), "server.listen_address")
}

func TestValidate_PolicyBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Policy.Backend = "postgres"
	assertFieldError(t, Validate(cfg), "policy.backend")
}

func TestValidate_PolicySQLiteRequiresPath(t *testing.T) {
	cfg := validConfig()
	cfg.Policy.Backend = "sqlite"
	cfg.Policy.SQLite.Path = ""
	assertFieldError(t, Validate(cfg), "policy.sqlite.path")
}

func TestValidate_WatchRequiresSeedFile(t *testing.T) {
	cfg := validConfig()
	cfg.Policy.Watch = true
	cfg.Policy.SeedFile = ""
	assertFieldError(t, Validate(cfg), "policy.watch")
}

func TestValidate_LedgerSQLiteRequiresPath(t *testing.T) {
	cfg := validConfig()
	cfg.Ledger.Backend = "sqlite"
	cfg.Ledger.SQLite.Path = ""
	assertFieldError(t, Validate(cfg), "ledger.sqlite.path")
}

func TestValidate_AuditPruneSchedule(t *testing.T) {
	cfg := validConfig()
	cfg.Audit.Retention.PruneSchedule = "not a cron expr"
	assertFieldError(t, Validate(cfg), "audit.retention.prune_schedule")
}

func TestValidate_ArchiveRequiresPath(t *testing.T) {
	cfg := validConfig()
	cfg.Audit.Retention.ArchiveBeforeDelete = true
	cfg.Audit.Retention.ArchivePath = ""
	assertFieldError(t, Validate(cfg), "audit.retention.archive_path")
}

func TestValidate_ReconcilerRequiresBillingExport(t *testing.T) {
	cfg := validConfig()
	cfg.Reconciler.Enabled = true
	cfg.Reconciler.BillingExport = ""
	assertFieldError(t, Validate(cfg), "reconciler.billing_export")
}

func TestValidate_ReconcilerSchedule(t *testing.T) {
	cfg := validConfig()
	cfg.Reconciler.Schedule = "every 5 minutes"
	assertFieldError(t, Validate(cfg), "reconciler.schedule")
}

func TestValidate_NegativeTolerance(t *testing.T) {
	cfg := validConfig()
	cfg.Reconciler.Tolerance = -1
	assertFieldError(t, Validate(cfg), "reconciler.tolerance")
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Telemetry.Logging.Level = "trace"
	assertFieldError(t, Validate(cfg), "telemetry.logging.level")
}

func TestValidate_MetricsPath(t *testing.T) {
	cfg := validConfig()
	cfg.Telemetry.Metrics.Enabled = true
	cfg.Telemetry.Metrics.Path = "metrics"
	assertFieldError(t, Validate(cfg), "telemetry.metrics.path")
}

func TestValidate_CollectsMultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Quota.FailurePolicy = "bogus"
	cfg.Telemetry.Logging.Level = "bogus"
	cfg.Telemetry.Logging.Format = "bogus"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}

	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(verr.Errors), verr)
	}
	if !strings.Contains(verr.Error(), "3 errors") {
		t.Errorf("expected summary message to mention count, got: %s", verr.Error())
	}
}
