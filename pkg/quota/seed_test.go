package quota_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"solara-hq/quotient/pkg/quota"
	"solara-hq/quotient/pkg/quota/storage"
)

const validSeed = `
tiers:
  - tier_id: free
    tier_name: Free
    monthly_cost_limit: 10
    period_type: monthly
    soft_limit_percentage: 80
    action_on_limit: block
    enabled: true
  - tier_id: pro
    tier_name: Pro
    monthly_cost_limit: 200
    daily_cost_limit: 20
    period_type: monthly
    soft_limit_percentage: 80
    action_on_limit: downgrade
    budget_model_id: gpt-4o-mini
    downgrade_threshold: 90
    enabled: true

assignments:
  - assignment_id: default
    type: default
    tier_id: free
    enabled: true
  - assignment_id: admins
    type: jwt_role
    subject: admin
    tier_id: pro
    priority: 100
    enabled: true

overrides:
  - override_id: hackathon
    user_id: alice
    type: unlimited
    valid_from: 2026-08-01T00:00:00Z
    valid_until: 2026-08-31T23:59:59Z
    enabled: true
`

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSeed(t *testing.T) {
	seed, err := quota.LoadSeed(writeSeedFile(t, validSeed))
	if err != nil {
		t.Fatalf("failed to load seed: %v", err)
	}

	if len(seed.Tiers) != 2 || len(seed.Assignments) != 2 || len(seed.Overrides) != 1 {
		t.Errorf("unexpected seed contents: %d tiers, %d assignments, %d overrides",
			len(seed.Tiers), len(seed.Assignments), len(seed.Overrides))
	}
	if seed.Tiers[1].BudgetModelID != "gpt-4o-mini" {
		t.Errorf("expected budget model on pro tier, got %q", seed.Tiers[1].BudgetModelID)
	}
}

func TestLoadSeed_InvalidEntryFailsLoad(t *testing.T) {
	invalid := `
tiers:
  - tier_id: broken
    tier_name: Broken
    monthly_cost_limit: -5
    period_type: monthly
    soft_limit_percentage: 80
    action_on_limit: block
`
	if _, err := quota.LoadSeed(writeSeedFile(t, invalid)); err == nil {
		t.Fatal("expected invalid seed entry to fail the load")
	}
}

func TestLoadSeed_MissingFile(t *testing.T) {
	if _, err := quota.LoadSeed("/nonexistent/policy.yaml"); err == nil {
		t.Fatal("expected error for missing seed file")
	}
}

func TestSeedApply(t *testing.T) {
	seed, err := quota.LoadSeed(writeSeedFile(t, validSeed))
	if err != nil {
		t.Fatal(err)
	}

	store := storage.NewMemoryBackend()
	admin := quota.NewAdmin(store)
	ctx := context.Background()

	if err := seed.Apply(ctx, admin); err != nil {
		t.Fatalf("failed to apply seed: %v", err)
	}

	tiers, err := store.ListTiers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tiers) != 2 {
		t.Errorf("expected 2 tiers in store, got %d", len(tiers))
	}

	if err := admin.ValidateDeployment(ctx); err != nil {
		t.Errorf("applied seed should form a complete deployment: %v", err)
	}
}

func TestSeedApply_Idempotent(t *testing.T) {
	seed, err := quota.LoadSeed(writeSeedFile(t, validSeed))
	if err != nil {
		t.Fatal(err)
	}

	store := storage.NewMemoryBackend()
	admin := quota.NewAdmin(store)
	ctx := context.Background()

	if err := seed.Apply(ctx, admin); err != nil {
		t.Fatal(err)
	}
	// Re-applying must not trip the override overlap check against the
	// previously seeded copy of the same override.
	if err := seed.Apply(ctx, admin); err != nil {
		t.Fatalf("re-applying the same seed should succeed: %v", err)
	}

	tiers, err := store.ListTiers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tiers) != 2 {
		t.Errorf("expected 2 tiers after re-apply, got %d", len(tiers))
	}
}
