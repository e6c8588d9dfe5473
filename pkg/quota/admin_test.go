package quota_test

import (
	"context"
	"testing"
	"time"

	"solara-hq/quotient/pkg/quota"
	"solara-hq/quotient/pkg/quota/storage"
)

func TestAdmin_SaveTierRejectsInvalid(t *testing.T) {
	admin := quota.NewAdmin(storage.NewMemoryBackend())

	tier := testTier("bad", quota.ActionDowngrade) // no budget model
	if err := admin.SaveTier(context.Background(), tier); err == nil {
		t.Fatal("expected invalid downgrade tier to be rejected")
	}
}

func TestAdmin_SaveAssignmentRequiresTier(t *testing.T) {
	admin := quota.NewAdmin(storage.NewMemoryBackend())

	err := admin.SaveAssignment(context.Background(), &quota.Assignment{
		AssignmentID: "a",
		Type:         quota.AssignmentDirectUser,
		Subject:      "alice",
		TierID:       "missing",
		Enabled:      true,
	})
	if !quota.IsNotFound(err) {
		t.Fatalf("expected NotFoundError for dangling tier reference, got %v", err)
	}
}

func TestAdmin_SaveOverrideRejectsOverlap(t *testing.T) {
	admin := quota.NewAdmin(storage.NewMemoryBackend())
	ctx := context.Background()

	first := &quota.Override{
		OverrideID: "week-one",
		UserID:     "alice",
		Type:       quota.OverrideUnlimited,
		ValidFrom:  testNow,
		ValidUntil: testNow.Add(7 * 24 * time.Hour),
		Enabled:    true,
	}
	if err := admin.SaveOverride(ctx, first); err != nil {
		t.Fatalf("first override should save: %v", err)
	}

	overlapping := &quota.Override{
		OverrideID: "week-two",
		UserID:     "alice",
		Type:       quota.OverrideUnlimited,
		ValidFrom:  testNow.Add(3 * 24 * time.Hour),
		ValidUntil: testNow.Add(10 * 24 * time.Hour),
		Enabled:    true,
	}
	err := admin.SaveOverride(ctx, overlapping)
	if !quota.IsConflict(err) {
		t.Fatalf("expected ConflictError for overlapping window, got %v", err)
	}
}

func TestAdmin_SaveOverrideAllowsAdjacentWindows(t *testing.T) {
	admin := quota.NewAdmin(storage.NewMemoryBackend())
	ctx := context.Background()

	first := &quota.Override{
		OverrideID: "before",
		UserID:     "alice",
		Type:       quota.OverrideUnlimited,
		ValidFrom:  testNow,
		ValidUntil: testNow.Add(24 * time.Hour),
		Enabled:    true,
	}
	if err := admin.SaveOverride(ctx, first); err != nil {
		t.Fatal(err)
	}

	after := &quota.Override{
		OverrideID: "after",
		UserID:     "alice",
		Type:       quota.OverrideUnlimited,
		ValidFrom:  testNow.Add(25 * time.Hour),
		ValidUntil: testNow.Add(48 * time.Hour),
		Enabled:    true,
	}
	if err := admin.SaveOverride(ctx, after); err != nil {
		t.Fatalf("non-overlapping window should save: %v", err)
	}
}

func TestAdmin_SaveOverrideIdempotentResave(t *testing.T) {
	admin := quota.NewAdmin(storage.NewMemoryBackend())
	ctx := context.Background()

	override := &quota.Override{
		OverrideID: "same",
		UserID:     "alice",
		Type:       quota.OverrideUnlimited,
		ValidFrom:  testNow,
		ValidUntil: testNow.Add(24 * time.Hour),
		Enabled:    true,
	}
	if err := admin.SaveOverride(ctx, override); err != nil {
		t.Fatal(err)
	}

	// Re-saving the same override must not conflict with itself.
	if err := admin.SaveOverride(ctx, override); err != nil {
		t.Fatalf("re-saving the same override should succeed: %v", err)
	}
}

func TestAdmin_SaveOverrideIgnoresDisabledOverlap(t *testing.T) {
	admin := quota.NewAdmin(storage.NewMemoryBackend())
	ctx := context.Background()

	disabled := &quota.Override{
		OverrideID: "old",
		UserID:     "alice",
		Type:       quota.OverrideUnlimited,
		ValidFrom:  testNow,
		ValidUntil: testNow.Add(24 * time.Hour),
		Enabled:    false,
	}
	if err := admin.SaveOverride(ctx, disabled); err != nil {
		t.Fatal(err)
	}

	replacement := &quota.Override{
		OverrideID: "new",
		UserID:     "alice",
		Type:       quota.OverrideUnlimited,
		ValidFrom:  testNow,
		ValidUntil: testNow.Add(24 * time.Hour),
		Enabled:    true,
	}
	if err := admin.SaveOverride(ctx, replacement); err != nil {
		t.Fatalf("disabled overrides must not block new ones: %v", err)
	}
}

func TestAdmin_ValidateDeployment(t *testing.T) {
	store := storage.NewMemoryBackend()
	admin := quota.NewAdmin(store)
	ctx := context.Background()

	if err := admin.ValidateDeployment(ctx); !quota.IsNotFound(err) {
		t.Fatalf("expected NotFoundError on empty store, got %v", err)
	}

	if err := admin.SaveTier(ctx, testTier("free", quota.ActionBlock)); err != nil {
		t.Fatal(err)
	}
	if err := admin.SaveAssignment(ctx, &quota.Assignment{
		AssignmentID: "default",
		Type:         quota.AssignmentDefault,
		TierID:       "free",
		Enabled:      true,
	}); err != nil {
		t.Fatal(err)
	}

	if err := admin.ValidateDeployment(ctx); err != nil {
		t.Errorf("expected complete deployment, got %v", err)
	}
}
