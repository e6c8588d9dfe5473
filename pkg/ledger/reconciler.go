package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// CostSource supplies authoritative per-user, per-period spend totals,
// typically backed by the billing system's finalized cost records.
type CostSource interface {
	// Users returns the user IDs with any recorded cost.
	Users(ctx context.Context) ([]string, error)

	// Periods returns the period keys with recorded cost for a user.
	Periods(ctx context.Context, userID string) ([]string, error)

	// Usage returns the authoritative spend for a user and period key.
	Usage(ctx context.Context, userID, periodKey string) (float64, error)
}

// ReconcilerConfig configures the reconciliation job.
type ReconcilerConfig struct {
	// Schedule is a cron expression for periodic runs, e.g. "*/15 * * * *".
	// Empty disables the scheduler; Run can still be invoked manually.
	Schedule string

	// Tolerance is the absolute drift in USD below which a counter is left
	// untouched. Default: 0.000001.
	Tolerance float64

	// RunTimeout bounds a single reconciliation pass. Default: 5 minutes.
	RunTimeout time.Duration
}

// Reconciler periodically corrects ledger drift against an authoritative
// cost source. It runs entirely out of band: it never participates in the
// request path and tolerates live increments landing during a pass.
//
// An increment that arrives between the source read and the ReconcileSet
// call is overwritten; the discrepancy is at most one pass old and is
// corrected on the next run. Drift is therefore bounded by one
// reconciliation interval, which is accepted rather than eliminated.
type Reconciler struct {
	ledger Ledger
	source CostSource
	config ReconcilerConfig

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
	logger  *slog.Logger
}

// NewReconciler creates a reconciler for the given ledger and cost source.
func NewReconciler(l Ledger, source CostSource, config ReconcilerConfig) *Reconciler {
	if config.Tolerance <= 0 {
		config.Tolerance = 0.000001
	}
	if config.RunTimeout == 0 {
		config.RunTimeout = 5 * time.Minute
	}

	return &Reconciler{
		ledger: l,
		source: source,
		config: config,
		cron:   cron.New(),
		logger: slog.Default().With("component", "ledger.reconciler"),
	}
}

// Run performs one reconciliation pass over every user and period known to
// either the ledger or the cost source. Per-user failures are logged and
// skipped so one bad record cannot stall the whole pass; Run returns the
// first error only when the user listing itself fails.
func (r *Reconciler) Run(ctx context.Context, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.RunTimeout)
	defer cancel()

	start := time.Now()

	users, err := r.source.Users(ctx)
	if err != nil {
		return fmt.Errorf("listing users from cost source: %w", err)
	}

	corrected := 0
	for _, userID := range users {
		n, err := r.reconcileUser(ctx, userID)
		if err != nil {
			r.logger.Warn("skipping user after reconcile failure",
				"user_id", userID,
				"error", err,
			)
			continue
		}
		corrected += n
	}

	r.logger.Info("reconciliation pass complete",
		"users", len(users),
		"corrected", corrected,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// reconcileUser corrects all of one user's periods, returning the number of
// counters that were adjusted. It covers the union of the ledger's and the
// source's periods: the source is authoritative, so a period it knows that
// the ledger has never seen (a lost increment, or a fresh ledger after a
// restart) still gets its counter set.
func (r *Reconciler) reconcileUser(ctx context.Context, userID string) (int, error) {
	ledgerPeriods, err := r.ledger.Periods(ctx, userID)
	if err != nil {
		return 0, err
	}
	sourcePeriods, err := r.source.Periods(ctx, userID)
	if err != nil {
		return 0, err
	}
	periods := mergePeriods(ledgerPeriods, sourcePeriods)

	corrected := 0
	for _, periodKey := range periods {
		authoritative, err := r.source.Usage(ctx, userID, periodKey)
		if err != nil {
			return corrected, err
		}

		current, err := r.ledger.Read(ctx, userID, periodKey)
		if err != nil {
			return corrected, err
		}

		drift := current - authoritative
		if drift < 0 {
			drift = -drift
		}
		if drift <= r.config.Tolerance {
			continue
		}

		if err := r.ledger.ReconcileSet(ctx, userID, periodKey, authoritative); err != nil {
			return corrected, err
		}
		corrected++

		r.logger.Info("corrected ledger drift",
			"user_id", userID,
			"period", periodKey,
			"ledger_usage", current,
			"authoritative_usage", authoritative,
		)
	}

	return corrected, nil
}

// mergePeriods returns the sorted union of two period key lists.
func mergePeriods(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	merged := make([]string, 0, len(a)+len(b))
	for _, keys := range [][]string{a, b} {
		for _, key := range keys {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, key)
		}
	}
	sort.Strings(merged)
	return merged
}

// Start begins scheduled reconciliation according to the configured cron
// expression. It returns immediately; the scheduler stops when ctx is
// canceled or Stop is called. With an empty schedule Start does nothing.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config.Schedule == "" {
		r.logger.Info("reconciliation schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(r.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", r.config.Schedule, err)
	}

	_, err := r.cron.AddFunc(r.config.Schedule, func() {
		if err := r.Run(ctx, time.Now()); err != nil {
			r.logger.Error("scheduled reconciliation failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reconciliation: %w", err)
	}

	r.cron.Start()
	r.running = true

	r.logger.Info("reconciler started", "schedule", r.config.Schedule)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for a running pass to finish.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron != nil && r.running {
		<-r.cron.Stop().Done()
		r.running = false
		r.logger.Info("reconciler stopped")
	}
}

// IsRunning reports whether the scheduler is active.
func (r *Reconciler) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
