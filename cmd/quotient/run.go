package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"solara-hq/quotient/pkg/audit"
	"solara-hq/quotient/pkg/audit/retention"
	"solara-hq/quotient/pkg/cli"
	"solara-hq/quotient/pkg/config"
	"solara-hq/quotient/pkg/ledger"
	"solara-hq/quotient/pkg/quota"
	"solara-hq/quotient/pkg/server"
)

var runFlags struct {
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Quotient daemon",
	Long: `Start the Quotient daemon with the specified configuration.

The daemon loads the policy seed file, serves the Prometheus metrics
endpoint, and runs the background schedulers: audit retention pruning,
ledger reconciliation against the billing export, and seed file watching.

Examples:
  # Start with default config
  quotient run

  # Start with custom config
  quotient run --config /etc/quotient/config.yaml

  # Validate config without starting
  quotient run --dry-run`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Init(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	initLogging(cfg)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Quotient v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Policy store
	store, err := buildPolicyStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to create policy store: %w", err)
	}
	defer store.Close()

	if err := seedPolicyStore(ctx, cfg, store); err != nil {
		return fmt.Errorf("failed to seed policy store: %w", err)
	}

	admin := quota.NewAdmin(store)
	if err := admin.ValidateDeployment(ctx); err != nil {
		slog.Warn("policy deployment incomplete", "error", err)
	}
	fmt.Printf("✓ Policy store initialized (%s)\n", cfg.Policy.Backend)

	// Usage ledger
	usageLedger, err := buildLedger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create usage ledger: %w", err)
	}
	defer usageLedger.Close()
	fmt.Printf("✓ Usage ledger initialized (%s)\n", cfg.Ledger.Backend)

	// Audit trail
	var events quota.EventSink
	var pruner *retention.Pruner
	if cfg.Audit.Enabled {
		auditStorage, err := buildAuditStorage(cfg)
		if err != nil {
			return fmt.Errorf("failed to create audit storage: %w", err)
		}
		defer auditStorage.Close()

		recorder := audit.NewRecorder(auditStorage, &audit.RecorderConfig{
			Enabled:      true,
			AsyncBuffer:  cfg.Audit.Recorder.AsyncBuffer,
			WriteTimeout: cfg.Audit.Recorder.WriteTimeout,
		})
		defer recorder.Close()
		events = recorder

		if cfg.Audit.Retention.PruneSchedule != "" {
			pruner = retention.NewPruner(auditStorage, &retention.Config{
				RetentionDays:       cfg.Audit.Retention.Days,
				PruneSchedule:       cfg.Audit.Retention.PruneSchedule,
				ArchiveBeforeDelete: cfg.Audit.Retention.ArchiveBeforeDelete,
				ArchivePath:         cfg.Audit.Retention.ArchivePath,
			})
			if err := pruner.Start(ctx); err != nil {
				slog.Warn("failed to start retention scheduler", "error", err)
			} else {
				defer pruner.Stop()
			}
		}
		fmt.Printf("✓ Audit trail initialized (%s)\n", cfg.Audit.Backend)
	}

	// Quota checker
	checker := quota.NewChecker(store, usageLedger, events, quota.CheckerConfig{
		Disabled:      !cfg.Quota.Enabled,
		FailurePolicy: quota.FailurePolicy(cfg.Quota.FailurePolicy),
		Metrics:       quota.NewMetrics(),
	})
	inspector := quota.NewInspector(store, usageLedger)
	if cfg.Quota.Enabled {
		fmt.Printf("✓ Quota checker ready (failure policy: %s)\n", cfg.Quota.FailurePolicy)
	} else {
		fmt.Println("✓ Quota checker ready (enforcement disabled)")
	}

	// Reconciler
	if cfg.Reconciler.Enabled {
		source := ledger.NewFileCostSource(cfg.Reconciler.BillingExport)
		reconciler := ledger.NewReconciler(usageLedger, source, ledger.ReconcilerConfig{
			Schedule:   cfg.Reconciler.Schedule,
			Tolerance:  cfg.Reconciler.Tolerance,
			RunTimeout: cfg.Reconciler.RunTimeout,
		})
		if err := reconciler.Start(ctx); err != nil {
			slog.Warn("failed to start reconciler", "error", err)
		} else {
			defer reconciler.Stop()
			fmt.Printf("✓ Reconciler scheduled (%s)\n", cfg.Reconciler.Schedule)
		}
	}

	// Seed file watcher
	if cfg.Policy.Watch && cfg.Policy.SeedFile != "" {
		watcher, err := quota.NewSeedWatcher(quota.SeedWatcherConfig{
			Path: cfg.Policy.SeedFile,
		}, admin)
		if err != nil {
			return fmt.Errorf("failed to create seed watcher: %w", err)
		}
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				slog.Error("seed watcher exited", "error", err)
			}
		}()
		defer watcher.Stop()
		fmt.Printf("✓ Watching seed file: %s\n", cfg.Policy.SeedFile)
	}

	// Metrics endpoint
	var metricsSrv *http.Server
	if cfg.Telemetry.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Telemetry.Metrics.Path, promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:         cfg.Telemetry.Metrics.ListenAddress,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("metrics server starting",
				"address", cfg.Telemetry.Metrics.ListenAddress,
				"path", cfg.Telemetry.Metrics.Path,
			)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server failed", "error", err)
			}
		}()
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n",
			cfg.Telemetry.Metrics.ListenAddress, cfg.Telemetry.Metrics.Path)
	}

	// Quota API server
	var apiServer *server.Server
	serverErr := make(chan error, 1)
	if cfg.Server.Enabled {
		apiServer = server.NewServer(&cfg.Server, checker, inspector, store)
		go func() {
			if err := apiServer.Start(ctx); err != nil {
				serverErr <- err
			}
		}()
		fmt.Printf("✓ Quota API: http://%s\n", cfg.Server.ListenAddress)
	}

	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case sig := <-cli.WaitForShutdown():
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
	case err := <-serverErr:
		slog.Error("quota API server failed", "error", err)
	}
	cancel()

	if apiServer != nil {
		if err := apiServer.Shutdown(context.Background()); err != nil {
			slog.Error("quota API shutdown failed", "error", err)
		}
	}

	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", "error", err)
		}
	}

	fmt.Println("✓ Stopped")
	return nil
}
