package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"solara-hq/quotient/pkg/cli"
	"solara-hq/quotient/pkg/config"
	"solara-hq/quotient/pkg/quota"
)

var policyFlags struct {
	seedFile string
	format   string
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage quota policy",
	Long: `Manage the quota policy: tiers, assignments, and overrides.

Policy is declared in a YAML seed file and applied to the policy store.
Applying the same seed file twice is a no-op; changed entries replace
their previous versions.

Subcommands:
  apply    - Apply a seed file to the policy store
  validate - Validate a seed file without applying it
  tiers    - List tiers in the policy store
  status   - Check that the deployed policy is complete

Examples:
  # Validate a seed file
  quotient policy validate --file policy.yaml

  # Apply it
  quotient policy apply --file policy.yaml

  # Show deployed tiers
  quotient policy tiers --format json`,
}

var policyApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a seed file to the policy store",
	Long: `Validate a seed file and write its tiers, assignments, and
overrides to the configured policy store.

Examples:
  # Apply the seed file from the config
  quotient policy apply

  # Apply a specific file
  quotient policy apply --file policy.yaml`,
	RunE: applyPolicy,
}

var policyValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a seed file",
	Long: `Parse and validate a seed file without touching the policy store.

Examples:
  quotient policy validate --file policy.yaml`,
	RunE: validatePolicy,
}

var policyTiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "List tiers in the policy store",
	RunE:  listTiers,
}

var policyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the deployed policy is complete",
	Long: `Check the deployed policy for completeness: a default tier must
exist and every assignment and override must point at an existing tier.`,
	RunE: policyStatus,
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyApplyCmd, policyValidateCmd, policyTiersCmd, policyStatusCmd)

	policyApplyCmd.Flags().StringVarP(&policyFlags.seedFile, "file", "f", "", "seed file (defaults to policy.seed_file from config)")
	policyValidateCmd.Flags().StringVarP(&policyFlags.seedFile, "file", "f", "", "seed file (defaults to policy.seed_file from config)")
	policyTiersCmd.Flags().StringVar(&policyFlags.format, "format", "text", "output format: text, json")
}

func resolveSeedFile(cfg *config.Config) (string, error) {
	path := policyFlags.seedFile
	if path == "" {
		path = cfg.Policy.SeedFile
	}
	if path == "" {
		return "", fmt.Errorf("no seed file: pass --file or set policy.seed_file in config")
	}
	return path, nil
}

func applyPolicy(cmd *cobra.Command, args []string) error {
	cfg, err := config.Init(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	path, err := resolveSeedFile(cfg)
	if err != nil {
		return err
	}

	seed, err := quota.LoadSeed(path)
	if err != nil {
		return cli.NewCommandError("policy", fmt.Errorf("seed file invalid: %w", err))
	}

	store, err := buildPolicyStore(cfg)
	if err != nil {
		return cli.NewCommandError("policy", fmt.Errorf("failed to open policy store: %w", err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := seed.Apply(ctx, quota.NewAdmin(store)); err != nil {
		return cli.NewCommandError("policy", fmt.Errorf("apply failed: %w", err))
	}

	fmt.Printf("✓ Applied %s: %d tiers, %d assignments, %d overrides\n",
		path, len(seed.Tiers), len(seed.Assignments), len(seed.Overrides))
	return nil
}

func validatePolicy(cmd *cobra.Command, args []string) error {
	cfg, err := config.Init(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	path, err := resolveSeedFile(cfg)
	if err != nil {
		return err
	}

	seed, err := quota.LoadSeed(path)
	if err != nil {
		fmt.Printf("✗ %s is invalid:\n  %v\n", path, err)
		os.Exit(1)
	}

	fmt.Printf("✓ %s is valid: %d tiers, %d assignments, %d overrides\n",
		path, len(seed.Tiers), len(seed.Assignments), len(seed.Overrides))
	return nil
}

func listTiers(cmd *cobra.Command, args []string) error {
	cfg, err := config.Init(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	store, err := buildPolicyStore(cfg)
	if err != nil {
		return cli.NewCommandError("policy", fmt.Errorf("failed to open policy store: %w", err))
	}
	defer store.Close()

	tiers, err := store.ListTiers(context.Background())
	if err != nil {
		return cli.NewCommandError("policy", fmt.Errorf("failed to list tiers: %w", err))
	}

	if policyFlags.format == "json" {
		return cli.WriteJSON(os.Stdout, tiers)
	}
	cli.RenderTiers(os.Stdout, tiers)
	return nil
}

func policyStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Init(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	store, err := buildPolicyStore(cfg)
	if err != nil {
		return cli.NewCommandError("policy", fmt.Errorf("failed to open policy store: %w", err))
	}
	defer store.Close()

	if err := quota.NewAdmin(store).ValidateDeployment(context.Background()); err != nil {
		fmt.Printf("✗ Policy deployment incomplete:\n  %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Policy deployment is complete")
	return nil
}
