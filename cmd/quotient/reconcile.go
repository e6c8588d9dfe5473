package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"solara-hq/quotient/pkg/cli"
	"solara-hq/quotient/pkg/config"
	"solara-hq/quotient/pkg/ledger"
)

var reconcileFlags struct {
	billingExport string
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile the ledger against a billing export",
	Long: `Run one reconciliation pass against a billing export file.

The billing export is the authoritative record of spend. Ledger counters
that drift beyond the configured tolerance are overwritten with the
exported value. Live increments landing during the pass may be absorbed
into a correction; the discrepancy is bounded by one pass and fixed on
the next run.

Examples:
  # Reconcile against the export from the config
  quotient reconcile

  # Reconcile against a specific file
  quotient reconcile --file billing-2026-08.yaml`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVarP(&reconcileFlags.billingExport, "file", "f", "", "billing export file (defaults to reconciler.billing_export from config)")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := config.Init(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	initLogging(cfg)

	path := reconcileFlags.billingExport
	if path == "" {
		path = cfg.Reconciler.BillingExport
	}
	if path == "" {
		return fmt.Errorf("no billing export: pass --file or set reconciler.billing_export in config")
	}

	usageLedger, err := buildLedger(cfg)
	if err != nil {
		return cli.NewCommandError("reconcile", fmt.Errorf("failed to open usage ledger: %w", err))
	}
	defer usageLedger.Close()

	reconciler := ledger.NewReconciler(usageLedger, ledger.NewFileCostSource(path), ledger.ReconcilerConfig{
		Tolerance:  cfg.Reconciler.Tolerance,
		RunTimeout: cfg.Reconciler.RunTimeout,
	})

	if err := reconciler.Run(context.Background(), time.Now().UTC()); err != nil {
		return cli.NewCommandError("reconcile", err)
	}

	fmt.Printf("✓ Reconciled ledger against %s\n", path)
	return nil
}
