package retention

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"solara-hq/quotient/pkg/audit"
	"solara-hq/quotient/pkg/audit/storage"
	"solara-hq/quotient/pkg/quota"
)

func seedAged(t *testing.T, s audit.Storage, id string, age time.Duration) {
	t.Helper()
	err := s.Store(context.Background(), &audit.Event{
		EventID:   id,
		Timestamp: time.Now().UTC().Add(-age),
		UserID:    "alice",
		Type:      quota.EventBlock,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestPruner_DeletesBeyondRetention(t *testing.T) {
	s := storage.NewMemoryStorage()
	seedAged(t, s, "old", 100*24*time.Hour)
	seedAged(t, s, "older", 200*24*time.Hour)
	seedAged(t, s, "recent", 24*time.Hour)

	pruner := NewPruner(s, &Config{RetentionDays: 90})
	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 pruned, got %d", deleted)
	}

	remaining, err := s.Query(context.Background(), &audit.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 || remaining[0].EventID != "recent" {
		t.Errorf("expected only the recent event to survive, got %+v", remaining)
	}
}

func TestPruner_ZeroRetentionKeepsForever(t *testing.T) {
	s := storage.NewMemoryStorage()
	seedAged(t, s, "ancient", 10*365*24*time.Hour)

	pruner := NewPruner(s, &Config{RetentionDays: 0})
	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 0 {
		t.Errorf("retention 0 must not prune, deleted %d", deleted)
	}
}

func TestPruner_ArchivesBeforeDelete(t *testing.T) {
	s := storage.NewMemoryStorage()
	seedAged(t, s, "old", 100*24*time.Hour)

	archiveDir := t.TempDir()
	pruner := NewPruner(s, &Config{
		RetentionDays:       90,
		ArchiveBeforeDelete: true,
		ArchivePath:         archiveDir,
	})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 pruned, got %d", deleted)
	}

	entries, err := os.ReadDir(archiveDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one archive file, got %d", len(entries))
	}

	data, err := os.ReadFile(filepath.Join(archiveDir, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	var archived []*audit.Event
	if err := json.Unmarshal(data, &archived); err != nil {
		t.Fatalf("archive is not valid JSON: %v", err)
	}
	if len(archived) != 1 || archived[0].EventID != "old" {
		t.Errorf("expected the pruned event archived, got %+v", archived)
	}
}

func TestPruner_SchedulerLifecycle(t *testing.T) {
	pruner := NewPruner(storage.NewMemoryStorage(), &Config{
		RetentionDays: 90,
		PruneSchedule: "0 3 * * *",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pruner.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer pruner.Stop()

	next := pruner.NextPruning()
	if next == nil {
		t.Fatal("expected a scheduled next pruning time")
	}
	if !next.After(time.Now()) {
		t.Errorf("next pruning should be in the future, got %s", next)
	}
}

func TestPruner_StartRejectsInvalidSchedule(t *testing.T) {
	pruner := NewPruner(storage.NewMemoryStorage(), &Config{
		RetentionDays: 90,
		PruneSchedule: "not a cron",
	})
	if err := pruner.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}
