package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"solara-hq/quotient/pkg/cli"
	"solara-hq/quotient/pkg/config"
	"solara-hq/quotient/pkg/quota"
)

var inspectFlags struct {
	roles  []string
	domain string
	format string
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <user-id>",
	Short: "Explain a user's resolved quota",
	Long: `Explain which tier a user resolves to and how much budget remains.

The output shows the resolution step that matched (override, direct user
assignment, role, email domain, or default), the governing window, and
usage against each configured limit. Roles and email domain are part of
the caller's session, so they must be supplied on the command line to
reproduce a request-path resolution.

Examples:
  # Inspect by user ID alone
  quotient inspect user-123

  # Include session roles and email domain
  quotient inspect user-123 --roles admin,developer --domain acme.com

  # JSON output
  quotient inspect user-123 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: inspectUser,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringSliceVar(&inspectFlags.roles, "roles", nil, "JWT roles for resolution (comma-separated)")
	inspectCmd.Flags().StringVar(&inspectFlags.domain, "domain", "", "email domain for resolution")
	inspectCmd.Flags().StringVar(&inspectFlags.format, "format", "text", "output format: text, json")
}

func inspectUser(cmd *cobra.Command, args []string) error {
	cfg, err := config.Init(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	store, err := buildPolicyStore(cfg)
	if err != nil {
		return cli.NewCommandError("inspect", fmt.Errorf("failed to open policy store: %w", err))
	}
	defer store.Close()

	usageLedger, err := buildLedger(cfg)
	if err != nil {
		return cli.NewCommandError("inspect", fmt.Errorf("failed to open usage ledger: %w", err))
	}
	defer usageLedger.Close()

	user := quota.User{
		ID:          args[0],
		Roles:       inspectFlags.roles,
		EmailDomain: inspectFlags.domain,
	}

	inspector := quota.NewInspector(store, usageLedger)
	inspection, err := inspector.Inspect(context.Background(), user, time.Now().UTC())
	if err != nil {
		return cli.NewCommandError("inspect", err)
	}

	if inspectFlags.format == "json" {
		return cli.WriteJSON(os.Stdout, inspection)
	}
	cli.RenderInspection(os.Stdout, inspection)
	return nil
}
