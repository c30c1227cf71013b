package cli

import "fmt"

// ConfigError reports an unusable configuration discovered at startup.
// Field is the dotted path to the offending value; it is empty when the
// file as a whole could not be loaded.
type ConfigError struct {
	Field   string
	Message string
}

// NewConfigError creates a ConfigError for the given field.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Message
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Field, e.Message)
}

// CommandError tags a subcommand failure with the subcommand name, so the
// top-level error print names what was being attempted.
type CommandError struct {
	Command string
	Err     error
}

// NewCommandError wraps err as a failure of the named subcommand.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("datacap %s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
