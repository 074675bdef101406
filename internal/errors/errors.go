package errors

import (
	"fmt"
	"strings"
)

// NotationError represents a failure to parse or resolve a notation string.
// Every parse and resolution failure carries the literal notation text so
// the caller can tell which reference in a larger batch went wrong.
type NotationError struct {
	Notation string
	Message  string
	Err      error
}

func (e NotationError) Error() string {
	msg := fmt.Sprintf("invalid notation %q: %s", e.Notation, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e NotationError) Unwrap() error {
	return e.Err
}

// Notationf builds a NotationError with a formatted message.
func Notationf(notation, format string, args ...interface{}) NotationError {
	return NotationError{Notation: notation, Message: fmt.Sprintf(format, args...)}
}

// UserError represents an error that should be shown to the user with
// helpful context.
type UserError struct {
	Message    string
	Details    string
	Suggestion string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration or profile error.
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// StorageError wraps a failure in a config storage backend with the backend
// name and operation for context.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("%s storage error during %s: %v", e.Backend, e.Op, e.Err)
}

func (e StorageError) Unwrap() error {
	return e.Err
}
