/*
Package cli holds the terminal-facing pieces shared by the quotient
subcommands: typed command errors, table renderers for the quota domain,
JSON output, a progress bar, and shutdown signal plumbing.

Rendering:

Commands print either a human table or machine JSON from the same data:

	if flags.format == "json" {
		return cli.WriteJSON(os.Stdout, tiers)
	}
	cli.RenderTiers(os.Stdout, tiers)

Progress:

Long-running commands draw an in-place bar:

	progress := cli.NewProgressReporter(os.Stdout)
	progress.Start(total)
	for i := int64(0); i < total; i++ {
		progress.Update(i + 1)
	}
	progress.Finish()

Errors:

ConfigError and CommandError give the top-level error output a stable
"configuration <key>: ..." / "quotient <command>: ..." shape.
*/
package cli
