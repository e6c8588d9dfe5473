package main

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"solara-hq/quotient/pkg/cli"
	"solara-hq/quotient/pkg/ledger"
	"solara-hq/quotient/pkg/quota"
	"solara-hq/quotient/pkg/quota/storage"
)

var benchmarkFlags struct {
	checks      int
	concurrency int
	users       int
}

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Measure quota check throughput",
	Long: `Run synthetic quota checks against an in-memory policy store and
usage ledger to measure decision throughput and latency.

The benchmark seeds a small policy (default, role, and domain assignments
plus an override) and spreads checks across synthetic users so every
precedence branch is exercised.

Examples:
  # Default run
  quotient benchmark

  # Heavier load
  quotient benchmark --checks 500000 --concurrency 16`,
	RunE: runBenchmark,
}

func init() {
	rootCmd.AddCommand(benchmarkCmd)

	benchmarkCmd.Flags().IntVar(&benchmarkFlags.checks, "checks", 100000, "total checks to run")
	benchmarkCmd.Flags().IntVar(&benchmarkFlags.concurrency, "concurrency", 8, "concurrent workers")
	benchmarkCmd.Flags().IntVar(&benchmarkFlags.users, "users", 1000, "synthetic user population")
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	fmt.Println("Quotient Benchmark")
	fmt.Println("==================")
	fmt.Printf("Checks:      %d\n", benchmarkFlags.checks)
	fmt.Printf("Concurrency: %d\n", benchmarkFlags.concurrency)
	fmt.Printf("Users:       %d\n", benchmarkFlags.users)
	fmt.Println()

	ctx := context.Background()
	checker, err := benchmarkChecker(ctx)
	if err != nil {
		return fmt.Errorf("failed to build benchmark fixture: %w", err)
	}

	fmt.Println("Running...")
	results, err := runCheckLoad(ctx, checker)
	if err != nil {
		return err
	}

	displayBenchmark(results)
	return nil
}

// benchmarkChecker seeds an in-memory policy exercising every precedence
// branch and a ledger with uneven spend.
func benchmarkChecker(ctx context.Context) (*quota.Checker, error) {
	store := storage.NewMemoryBackend()
	admin := quota.NewAdmin(store)

	tiers := []*quota.Tier{
		{TierID: "free", TierName: "Free", MonthlyCostLimit: 10, PeriodType: quota.PeriodMonthly, SoftLimitPercentage: 80, ActionOnLimit: quota.ActionBlock, Enabled: true},
		{TierID: "pro", TierName: "Pro", MonthlyCostLimit: 250, DailyCostLimit: 25, PeriodType: quota.PeriodMonthly, SoftLimitPercentage: 80, ActionOnLimit: quota.ActionDowngrade, BudgetModelID: "small-model", DowngradeThreshold: 90, Enabled: true},
		{TierID: "team", TierName: "Team", MonthlyCostLimit: 1000, PeriodType: quota.PeriodMonthly, SoftLimitPercentage: 80, ActionOnLimit: quota.ActionWarn, Enabled: true},
	}
	for _, tier := range tiers {
		if err := admin.SaveTier(ctx, tier); err != nil {
			return nil, err
		}
	}

	assignments := []*quota.Assignment{
		{AssignmentID: "default", Type: quota.AssignmentDefault, TierID: "free", Enabled: true},
		{AssignmentID: "engineers", Type: quota.AssignmentJWTRole, Subject: "engineer", TierID: "pro", Priority: 100, Enabled: true},
		{AssignmentID: "corp", Type: quota.AssignmentEmailDomain, Subject: "*.example.com", TierID: "team", Priority: 50, Enabled: true},
		{AssignmentID: "user-0", Type: quota.AssignmentDirectUser, Subject: "user-0", TierID: "team", Priority: 10, Enabled: true},
	}
	for _, a := range assignments {
		if err := admin.SaveAssignment(ctx, a); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	usage := ledger.NewMemoryLedger()
	for i := 0; i < benchmarkFlags.users; i++ {
		userID := fmt.Sprintf("user-%d", i)
		if _, err := usage.Increment(ctx, userID, ledger.MonthlyKey(now), float64(i%300)); err != nil {
			return nil, err
		}
	}

	return quota.NewChecker(store, usage, nil, quota.CheckerConfig{}), nil
}

type benchmarkResults struct {
	totalChecks int
	failed      int
	duration    time.Duration
	latencies   []time.Duration
}

func runCheckLoad(ctx context.Context, checker *quota.Checker) (*benchmarkResults, error) {
	total := benchmarkFlags.checks
	workers := benchmarkFlags.concurrency
	if workers < 1 {
		workers = 1
	}

	results := &benchmarkResults{
		totalChecks: total,
		latencies:   make([]time.Duration, total),
	}

	progress := cli.NewProgressReporter(nil)
	progress.Start(int64(total))

	var completed atomic.Int64
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				progress.Update(completed.Load())
			case <-done:
				return
			}
		}
	}()

	now := time.Now().UTC()
	start := time.Now()

	var (
		wg     sync.WaitGroup
		failMu sync.Mutex
	)
	perWorker := total / workers
	for w := 0; w < workers; w++ {
		lo := w * perWorker
		hi := lo + perWorker
		if w == workers-1 {
			hi = total
		}

		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(lo)))
			for i := lo; i < hi; i++ {
				user := quota.User{ID: fmt.Sprintf("user-%d", rng.Intn(benchmarkFlags.users))}
				switch rng.Intn(3) {
				case 0:
					user.Roles = []string{"engineer"}
				case 1:
					user.EmailDomain = "eng.example.com"
				}

				checkStart := time.Now()
				_, err := checker.Check(ctx, user, "bench", "gpt-4o", now)
				results.latencies[i] = time.Since(checkStart)
				completed.Add(1)
				if err != nil {
					failMu.Lock()
					results.failed++
					failMu.Unlock()
				}
			}
		}(lo, hi)
	}
	wg.Wait()
	close(done)
	progress.Finish()

	results.duration = time.Since(start)
	return results, nil
}

func displayBenchmark(results *benchmarkResults) {
	fmt.Println()
	fmt.Println("Results:")
	fmt.Println("--------")
	fmt.Printf("Checks:     %d total, %d failed\n", results.totalChecks, results.failed)
	fmt.Printf("Duration:   %.2fs\n", results.duration.Seconds())
	if results.duration > 0 {
		fmt.Printf("Throughput: %.0f checks/s\n",
			float64(results.totalChecks)/results.duration.Seconds())
	}

	if len(results.latencies) == 0 {
		return
	}

	sorted := make([]time.Duration, len(results.latencies))
	copy(sorted, results.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	percentile := func(p float64) time.Duration {
		idx := int(float64(len(sorted)) * p)
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		return sorted[idx]
	}

	fmt.Println()
	fmt.Println("Latency:")
	fmt.Printf("  Median:  %s\n", percentile(0.50))
	fmt.Printf("  p95:     %s\n", percentile(0.95))
	fmt.Printf("  p99:     %s\n", percentile(0.99))
	fmt.Printf("  Max:     %s\n", sorted[len(sorted)-1])
}
