package cli

import (
	"errors"
	"fmt"

	"mercator-hq/quotegate/pkg/bridge"
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

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

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// Process exit codes.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitConfig   = 2
	ExitInvalid  = 3
	ExitBusy     = 4
	ExitTimeout  = 5
	ExitEngine   = 6
	ExitCanceled = 130
)

// ExitCode maps an error returned by a command to the process exit code.
// Submission errors are classified with bridge.StatusOf, so scripts can
// tell a rejected request from an unavailable engine.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfig
	}

	switch bridge.StatusOf(err) {
	case bridge.StatusInvalid:
		return ExitInvalid
	case bridge.StatusBusy:
		return ExitBusy
	case bridge.StatusTimeout:
		return ExitTimeout
	case bridge.StatusTransport, bridge.StatusContract:
		return ExitEngine
	case bridge.StatusCanceled:
		return ExitCanceled
	}
	return ExitError
}
