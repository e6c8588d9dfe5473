// Quotient is a quota and budget enforcement engine for LLM chat platforms.
//
// It resolves each user's spending tier through assignment precedence rules,
// measures accumulated spend against monthly and daily limits, and decides
// whether a request is allowed, warned, downgraded to a budget model, or
// blocked. Every decision is written to a persistent audit trail.
//
// Usage:
//
//	# Start the daemon with default configuration
//	quotient run
//
//	# Start with a custom configuration file
//	quotient run --config /path/to/config.yaml
//
//	# Inspect a user's effective quota state
//	quotient inspect --user alice --roles developer --domain corp.example.com
//
//	# Apply a policy seed file (tiers, assignments, overrides)
//	quotient policy apply --file tiers.yaml
//
//	# Query the audit trail
//	quotient events query --user alice --type block
//
//	# Reconcile the ledger against a billing export
//	quotient reconcile --file billing.yaml
//
// For complete documentation, see: https://github.com/solara-hq/quotient
package main

func main() {
	Execute()
}
