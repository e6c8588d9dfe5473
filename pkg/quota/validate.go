package quota

// ValidateTier checks a tier's invariants before it is written. It returns
// a ValidationError listing every violated rule, or nil when the tier is
// valid.
//
// The downgrade invariants matter most: a tier with ActionOnLimit=downgrade
// must carry a non-empty BudgetModelID and a DowngradeThreshold in [0, 100).
// Rejecting these here guarantees the checker never encounters a downgrade
// tier it cannot act on.
func ValidateTier(t *Tier) error {
	var errs []FieldError

	if t.TierID == "" {
		errs = append(errs, FieldError{"tier_id", "must not be empty"})
	}
	if t.TierName == "" {
		errs = append(errs, FieldError{"tier_name", "must not be empty"})
	}

	if t.MonthlyCostLimit <= 0 {
		errs = append(errs, FieldError{"monthly_cost_limit", "must be positive"})
	}
	if t.DailyCostLimit < 0 {
		errs = append(errs, FieldError{"daily_cost_limit", "must not be negative"})
	}

	switch t.PeriodType {
	case PeriodMonthly, PeriodDaily:
	case "":
		errs = append(errs, FieldError{"period_type", "must be set"})
	default:
		errs = append(errs, FieldError{"period_type", "must be monthly or daily"})
	}

	if t.SoftLimitPercentage <= 0 || t.SoftLimitPercentage > 100 {
		errs = append(errs, FieldError{"soft_limit_percentage", "must be in (0, 100]"})
	}

	switch t.ActionOnLimit {
	case ActionBlock, ActionWarn:
	case ActionDowngrade:
		if t.BudgetModelID == "" {
			errs = append(errs, FieldError{"budget_model_id", "required when action_on_limit is downgrade"})
		}
		if t.DowngradeThreshold < 0 || t.DowngradeThreshold >= 100 {
			errs = append(errs, FieldError{"downgrade_threshold", "must be in [0, 100)"})
		}
	case "":
		errs = append(errs, FieldError{"action_on_limit", "must be set"})
	default:
		errs = append(errs, FieldError{"action_on_limit", "must be block, warn, or downgrade"})
	}

	if len(errs) > 0 {
		return &ValidationError{Entity: "tier", Errors: errs}
	}
	return nil
}

// ValidateAssignment checks an assignment's invariants before it is written.
func ValidateAssignment(a *Assignment) error {
	var errs []FieldError

	if a.AssignmentID == "" {
		errs = append(errs, FieldError{"assignment_id", "must not be empty"})
	}
	if a.TierID == "" {
		errs = append(errs, FieldError{"tier_id", "must not be empty"})
	}

	switch a.Type {
	case AssignmentDirectUser, AssignmentJWTRole, AssignmentEmailDomain:
		if a.Subject == "" {
			errs = append(errs, FieldError{"subject", "required for " + string(a.Type) + " assignments"})
		}
	case AssignmentDefault:
		if a.Subject != "" {
			errs = append(errs, FieldError{"subject", "must be empty for default assignments"})
		}
	case "":
		errs = append(errs, FieldError{"type", "must be set"})
	default:
		errs = append(errs, FieldError{"type", "unknown assignment type"})
	}

	if a.Priority < 0 || a.Priority > 999 {
		errs = append(errs, FieldError{"priority", "must be in [0, 999]"})
	}

	if len(errs) > 0 {
		return &ValidationError{Entity: "assignment", Errors: errs}
	}
	return nil
}

// ValidateOverride checks an override's invariants before it is written.
// Overlap with existing overrides is a separate, store-dependent check
// performed by Admin.SaveOverride.
func ValidateOverride(o *Override) error {
	var errs []FieldError

	if o.OverrideID == "" {
		errs = append(errs, FieldError{"override_id", "must not be empty"})
	}
	if o.UserID == "" {
		errs = append(errs, FieldError{"user_id", "must not be empty"})
	}

	switch o.Type {
	case OverrideCustomLimit:
		if o.MonthlyCostLimit <= 0 && o.DailyCostLimit <= 0 {
			errs = append(errs, FieldError{"monthly_cost_limit", "custom_limit overrides require at least one positive limit"})
		}
		if o.MonthlyCostLimit < 0 {
			errs = append(errs, FieldError{"monthly_cost_limit", "must not be negative"})
		}
		if o.DailyCostLimit < 0 {
			errs = append(errs, FieldError{"daily_cost_limit", "must not be negative"})
		}
	case OverrideUnlimited:
	case "":
		errs = append(errs, FieldError{"type", "must be set"})
	default:
		errs = append(errs, FieldError{"type", "must be custom_limit or unlimited"})
	}

	if o.ValidFrom.IsZero() || o.ValidUntil.IsZero() {
		errs = append(errs, FieldError{"valid_from", "validity window must be set"})
	} else if o.ValidUntil.Before(o.ValidFrom) {
		errs = append(errs, FieldError{"valid_until", "must not precede valid_from"})
	}

	if len(errs) > 0 {
		return &ValidationError{Entity: "override", Errors: errs}
	}
	return nil
}

// overlaps reports whether two validity windows intersect.
func overlaps(a, b *Override) bool {
	return !a.ValidUntil.Before(b.ValidFrom) && !b.ValidUntil.Before(a.ValidFrom)
}
