package ledger

import (
	"context"
	"math"
	"path/filepath"
	"sync"
	"testing"
)

// openLedgers builds one of each Ledger implementation against fresh state.
func openLedgers(t *testing.T) map[string]Ledger {
	t.Helper()

	sqlite, err := NewSQLiteLedger(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("opening sqlite ledger: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Ledger{
		"memory": NewMemoryLedger(),
		"sqlite": sqlite,
	}
}

func TestLedger_ReadUnknownIsZero(t *testing.T) {
	for name, l := range openLedgers(t) {
		t.Run(name, func(t *testing.T) {
			got, err := l.Read(context.Background(), "nobody", "2026-08")
			if err != nil {
				t.Fatal(err)
			}
			if got != 0 {
				t.Errorf("expected zero usage for unknown counter, got %f", got)
			}
		})
	}
}

func TestLedger_IncrementAccumulates(t *testing.T) {
	for name, l := range openLedgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			total, err := l.Increment(ctx, "alice", "2026-08", 1.25)
			if err != nil {
				t.Fatal(err)
			}
			if total != 1.25 {
				t.Errorf("expected total 1.25 after first increment, got %f", total)
			}

			total, err = l.Increment(ctx, "alice", "2026-08", 2.50)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(total-3.75) > 1e-9 {
				t.Errorf("expected total 3.75, got %f", total)
			}

			got, err := l.Read(ctx, "alice", "2026-08")
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-3.75) > 1e-9 {
				t.Errorf("read disagrees with increment total: %f", got)
			}
		})
	}
}

func TestLedger_IncrementIsolatesCounters(t *testing.T) {
	for name, l := range openLedgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := l.Increment(ctx, "alice", "2026-08", 10); err != nil {
				t.Fatal(err)
			}
			if _, err := l.Increment(ctx, "alice", "2026-08-15", 1); err != nil {
				t.Fatal(err)
			}
			if _, err := l.Increment(ctx, "bob", "2026-08", 5); err != nil {
				t.Fatal(err)
			}

			got, _ := l.Read(ctx, "alice", "2026-08")
			if got != 10 {
				t.Errorf("alice monthly counter polluted: %f", got)
			}
			got, _ = l.Read(ctx, "bob", "2026-08")
			if got != 5 {
				t.Errorf("bob monthly counter polluted: %f", got)
			}
		})
	}
}

func TestLedger_ConcurrentIncrements(t *testing.T) {
	const (
		goroutines = 10
		increments = 50
	)

	for name, l := range openLedgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			var wg sync.WaitGroup
			for g := 0; g < goroutines; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < increments; i++ {
						if _, err := l.Increment(ctx, "alice", "2026-08", 0.01); err != nil {
							t.Errorf("increment failed: %v", err)
							return
						}
					}
				}()
			}
			wg.Wait()

			got, err := l.Read(ctx, "alice", "2026-08")
			if err != nil {
				t.Fatal(err)
			}
			want := float64(goroutines*increments) * 0.01
			if math.Abs(got-want) > 1e-6 {
				t.Errorf("lost updates: expected %f, got %f", want, got)
			}
		})
	}
}

func TestLedger_ReconcileSet(t *testing.T) {
	for name, l := range openLedgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := l.Increment(ctx, "alice", "2026-08", 99); err != nil {
				t.Fatal(err)
			}
			if err := l.ReconcileSet(ctx, "alice", "2026-08", 42.17); err != nil {
				t.Fatal(err)
			}

			got, err := l.Read(ctx, "alice", "2026-08")
			if err != nil {
				t.Fatal(err)
			}
			if got != 42.17 {
				t.Errorf("expected 42.17 after reconcile, got %f", got)
			}

			// Setting a counter that was never incremented creates it.
			if err := l.ReconcileSet(ctx, "bob", "2026-07", 3.05); err != nil {
				t.Fatal(err)
			}
			got, _ = l.Read(ctx, "bob", "2026-07")
			if got != 3.05 {
				t.Errorf("expected 3.05 for fresh counter, got %f", got)
			}
		})
	}
}

func TestLedger_PeriodsSorted(t *testing.T) {
	for name, l := range openLedgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for _, key := range []string{"2026-08-15", "2026-07", "2026-08"} {
				if _, err := l.Increment(ctx, "alice", key, 1); err != nil {
					t.Fatal(err)
				}
			}
			if _, err := l.Increment(ctx, "bob", "2026-01", 1); err != nil {
				t.Fatal(err)
			}

			periods, err := l.Periods(ctx, "alice")
			if err != nil {
				t.Fatal(err)
			}
			want := []string{"2026-07", "2026-08", "2026-08-15"}
			if len(periods) != len(want) {
				t.Fatalf("expected %d periods, got %v", len(want), periods)
			}
			for i := range want {
				if periods[i] != want[i] {
					t.Errorf("period[%d]: expected %s, got %s", i, want[i], periods[i])
				}
			}
		})
	}
}

func TestSQLiteLedger_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	l, err := NewSQLiteLedger(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Increment(ctx, "alice", "2026-08", 12.5); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSQLiteLedger(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, err := reopened.Read(ctx, "alice", "2026-08")
	if err != nil {
		t.Fatal(err)
	}
	if got != 12.5 {
		t.Errorf("expected 12.5 after reopen, got %f", got)
	}
}

func TestSQLiteLedger_CloseIdempotent(t *testing.T) {
	l, err := NewSQLiteLedger(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second close returned error: %v", err)
	}
}

func TestSQLiteLedger_EmptyPathRejected(t *testing.T) {
	if _, err := NewSQLiteLedger(""); err == nil {
		t.Fatal("expected error for empty db path")
	}
}
