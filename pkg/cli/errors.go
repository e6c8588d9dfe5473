package cli

import "fmt"

// ConfigError reports configuration that cannot drive a command: a missing
// file, an unparseable document, or a value that validation rejected.
type ConfigError struct {
	// Key is the dotted configuration key at fault, e.g.
	// "ledger.sqlite.path". Empty when the whole file is unusable.
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration %s: %s", e.Key, e.Reason)
}

// NewConfigError creates a ConfigError for the given key.
func NewConfigError(key, reason string) *ConfigError {
	return &ConfigError{Key: key, Reason: reason}
}

// CommandError wraps a subcommand failure so the top-level error output
// names the command that failed.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("quotient %s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError wraps err as a failure of the named command.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}
