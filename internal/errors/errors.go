package errors

import (
	"fmt"

	crdberrors "github.com/cockroachdb/errors"
)

// Exit codes for CLI applications.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitUser indicates a user-related error (invalid input, configuration, etc.).
	ExitUser = 1

	// ExitSystem indicates a system-related error (I/O, permissions, etc.).
	ExitSystem = 2
)

// Sentinel errors for common failure conditions.
var (
	// ErrInvalidConfig indicates configuration validation failed.
	ErrInvalidConfig = crdberrors.New("invalid configuration")

	// ErrUnknownTarget indicates a target name is not defined in the configuration.
	ErrUnknownTarget = crdberrors.New("unknown target")

	// ErrUnknownTargetType indicates a target type has no registered adapter.
	ErrUnknownTargetType = crdberrors.New("unknown target type")

	// ErrUnknownSourceType indicates a source type has no registered adapter.
	ErrUnknownSourceType = crdberrors.New("unknown source type")

	// ErrConfigNotFound indicates agentsync.yaml could not be located.
	ErrConfigNotFound = crdberrors.New("agentsync.yaml not found")

	// ErrConfigExists indicates agentsync.yaml already exists during init.
	ErrConfigExists = crdberrors.New("agentsync.yaml already exists")
)

// Re-exported helpers from cockroachdb/errors, so callers don't need a
// second errors import for wrapping.
var (
	New    = crdberrors.New
	Newf   = crdberrors.Newf
	Wrap   = crdberrors.Wrap
	Wrapf  = crdberrors.Wrapf
	Is     = crdberrors.Is
	As     = crdberrors.As
	Unwrap = crdberrors.Unwrap
)

// ExitError wraps an error with an exit code and optional suggestion for CLI
// applications. It implements the error interface and supports unwrapping
// via errors.Unwrap.
type ExitError struct {
	// Err is the underlying error that caused the exit.
	Err error

	// Code is the exit code to return to the operating system.
	Code int

	// Suggestion is an optional actionable suggestion for the user.
	Suggestion string
}

// NewExitError creates an ExitError with the given underlying error and exit code.
// If err is nil, the returned ExitError will have a nil Err field.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{
		Err:  err,
		Code: code,
	}
}

// NewUserError creates an ExitError with ExitUser code and a suggestion.
func NewUserError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitUser,
		Suggestion: suggestion,
	}
}

// NewSystemError creates an ExitError with ExitSystem code and a suggestion.
func NewSystemError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitSystem,
		Suggestion: suggestion,
	}
}

// NewConfigError creates an ExitError with ExitUser code and a standard suggestion.
func NewConfigError(err error) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitUser,
		Suggestion: "Run: agentsync init",
	}
}

// Error returns the error message from the underlying error.
// If the underlying error is nil, it returns a generic message with the exit code.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As
// to examine the error chain.
func (e *ExitError) Unwrap() error {
	return e.Err
}
