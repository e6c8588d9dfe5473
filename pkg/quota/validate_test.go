package quota_test

import (
	"errors"
	"testing"
	"time"

	"solara-hq/quotient/pkg/quota"
)

func assertValidationFields(t *testing.T, err error, fields ...string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected validation error for %v", fields)
	}
	var verr *quota.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	for _, want := range fields {
		found := false
		for _, fe := range verr.Errors {
			if fe.Field == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected error for field %q, got: %v", want, err)
		}
	}
}

func TestValidateTier_Valid(t *testing.T) {
	if err := quota.ValidateTier(testTier("free", quota.ActionBlock)); err != nil {
		t.Errorf("expected valid tier, got %v", err)
	}
}

func TestValidateTier_RequiredFields(t *testing.T) {
	err := quota.ValidateTier(&quota.Tier{})
	assertValidationFields(t, err,
		"tier_id", "tier_name", "monthly_cost_limit", "period_type", "soft_limit_percentage", "action_on_limit")
}

func TestValidateTier_NegativeLimits(t *testing.T) {
	tier := testTier("t", quota.ActionBlock)
	tier.MonthlyCostLimit = -5
	tier.DailyCostLimit = -1
	assertValidationFields(t, quota.ValidateTier(tier), "monthly_cost_limit", "daily_cost_limit")
}

func TestValidateTier_SoftLimitRange(t *testing.T) {
	tier := testTier("t", quota.ActionBlock)
	tier.SoftLimitPercentage = 101
	assertValidationFields(t, quota.ValidateTier(tier), "soft_limit_percentage")

	tier.SoftLimitPercentage = 100
	if err := quota.ValidateTier(tier); err != nil {
		t.Errorf("soft limit of exactly 100 should be allowed: %v", err)
	}
}

func TestValidateTier_DowngradeRequirements(t *testing.T) {
	tier := testTier("t", quota.ActionDowngrade)
	assertValidationFields(t, quota.ValidateTier(tier), "budget_model_id")

	tier.BudgetModelID = "gpt-4o-mini"
	tier.DowngradeThreshold = 100
	assertValidationFields(t, quota.ValidateTier(tier), "downgrade_threshold")

	tier.DowngradeThreshold = 90
	if err := quota.ValidateTier(tier); err != nil {
		t.Errorf("expected valid downgrade tier, got %v", err)
	}
}

func TestValidateTier_UnknownAction(t *testing.T) {
	tier := testTier("t", "escalate")
	assertValidationFields(t, quota.ValidateTier(tier), "action_on_limit")
}

func TestValidateAssignment_SubjectRules(t *testing.T) {
	// Typed assignments require a subject.
	err := quota.ValidateAssignment(&quota.Assignment{
		AssignmentID: "a",
		Type:         quota.AssignmentJWTRole,
		TierID:       "t",
	})
	assertValidationFields(t, err, "subject")

	// Default assignments must not carry one.
	err = quota.ValidateAssignment(&quota.Assignment{
		AssignmentID: "a",
		Type:         quota.AssignmentDefault,
		Subject:      "alice",
		TierID:       "t",
	})
	assertValidationFields(t, err, "subject")
}

func TestValidateAssignment_PriorityRange(t *testing.T) {
	err := quota.ValidateAssignment(&quota.Assignment{
		AssignmentID: "a",
		Type:         quota.AssignmentDirectUser,
		Subject:      "alice",
		TierID:       "t",
		Priority:     1000,
	})
	assertValidationFields(t, err, "priority")
}

func TestValidateOverride_CustomLimitNeedsALimit(t *testing.T) {
	err := quota.ValidateOverride(&quota.Override{
		OverrideID: "o",
		UserID:     "alice",
		Type:       quota.OverrideCustomLimit,
		ValidFrom:  testNow,
		ValidUntil: testNow.Add(time.Hour),
	})
	assertValidationFields(t, err, "monthly_cost_limit")
}

func TestValidateOverride_WindowOrdering(t *testing.T) {
	err := quota.ValidateOverride(&quota.Override{
		OverrideID: "o",
		UserID:     "alice",
		Type:       quota.OverrideUnlimited,
		ValidFrom:  testNow,
		ValidUntil: testNow.Add(-time.Hour),
	})
	assertValidationFields(t, err, "valid_until")
}

func TestValidateOverride_Valid(t *testing.T) {
	err := quota.ValidateOverride(&quota.Override{
		OverrideID:       "o",
		UserID:           "alice",
		Type:             quota.OverrideCustomLimit,
		MonthlyCostLimit: 500,
		ValidFrom:        testNow,
		ValidUntil:       testNow.Add(24 * time.Hour),
	})
	if err != nil {
		t.Errorf("expected valid override, got %v", err)
	}
}
