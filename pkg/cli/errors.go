package cli

import (
	"errors"
	"fmt"

	"mercator-hq/retainer/pkg/config"
)

// Exit codes returned by the retainer binary.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitConfig  = 2
	ExitUsage   = 64
)

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ConfigError reports a configuration file that could not be read or
// parsed.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(path string, err error) *ConfigError {
	return &ConfigError{Path: path, Err: err}
}

// UsageError reports invalid flags or arguments.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// NewUsageError creates a new UsageError.
func NewUsageError(format string, args ...any) *UsageError {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// ExitCode maps err to the process exit code: ExitConfig for configuration
// problems, ExitUsage for bad invocations and ExitFailure otherwise.
func ExitCode(err error) int {
	var (
		usageErr  *UsageError
		configErr *ConfigError
	)
	switch {
	case err == nil:
		return ExitOK
	case config.IsValidationError(err), errors.As(err, &configErr):
		return ExitConfig
	case errors.As(err, &usageErr):
		return ExitUsage
	default:
		return ExitFailure
	}
}
