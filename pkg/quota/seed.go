package quota

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile is the on-disk representation of a quota deployment: the tiers,
// assignments, and overrides loaded into the policy store at startup.
type SeedFile struct {
	Tiers       []*Tier       `yaml:"tiers"`
	Assignments []*Assignment `yaml:"assignments"`
	Overrides   []*Override   `yaml:"overrides"`
}

// LoadSeed reads and parses a seed file. The entries are validated
// individually; the first invalid entry fails the load.
func LoadSeed(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %q: %w", path, err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %q: %w", path, err)
	}

	for _, tier := range seed.Tiers {
		if err := ValidateTier(tier); err != nil {
			return nil, fmt.Errorf("seed tier %q: %w", tier.TierID, err)
		}
	}
	for _, a := range seed.Assignments {
		if err := ValidateAssignment(a); err != nil {
			return nil, fmt.Errorf("seed assignment %q: %w", a.AssignmentID, err)
		}
	}
	for _, o := range seed.Overrides {
		if err := ValidateOverride(o); err != nil {
			return nil, fmt.Errorf("seed override %q: %w", o.OverrideID, err)
		}
	}

	return &seed, nil
}

// Apply writes the seed contents into the store through the admin write
// path. Tiers are written first so assignment tier references resolve.
// Existing entries with the same IDs are replaced.
func (s *SeedFile) Apply(ctx context.Context, admin *Admin) error {
	for _, tier := range s.Tiers {
		if err := admin.SaveTier(ctx, tier); err != nil {
			return fmt.Errorf("failed to seed tier %q: %w", tier.TierID, err)
		}
	}
	for _, a := range s.Assignments {
		if err := admin.SaveAssignment(ctx, a); err != nil {
			return fmt.Errorf("failed to seed assignment %q: %w", a.AssignmentID, err)
		}
	}
	for _, o := range s.Overrides {
		if err := admin.SaveOverride(ctx, o); err != nil {
			return fmt.Errorf("failed to seed override %q: %w", o.OverrideID, err)
		}
	}

	slog.Default().With("component", "quota.seed").Info("seed applied",
		"tiers", len(s.Tiers),
		"assignments", len(s.Assignments),
		"overrides", len(s.Overrides),
	)

	return nil
}
