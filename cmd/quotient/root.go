package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "quotient",
	Short: "Quotient - quota and budget enforcement engine",
	Long: `Quotient is a quota and budget enforcement engine for LLM chat platforms.

It resolves each user's spending tier through assignment precedence rules,
measures accumulated spend against monthly and daily limits, and decides
whether a request is allowed, warned, downgraded to a budget model, or
blocked.

Key capabilities:
  - Tier resolution: override > direct user > JWT role > email domain > default
  - Monthly and daily budget windows with soft-limit warnings
  - Block, warn, and downgrade enforcement actions
  - Time-bounded per-user overrides (custom limit or unlimited)
  - Persistent audit trail of every enforcement decision
  - Ledger reconciliation against billing exports

For more information, visit: https://github.com/solara-hq/quotient`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
