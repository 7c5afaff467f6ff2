package errors

import (
	"errors"
	"fmt"
)

// ErrorType categorizes failures so callers can map them to exit codes or
// HTTP statuses without inspecting message text.
type ErrorType string

const (
	// ErrTypeValidation covers problems with user input or model output:
	// empty SQL, the cannot-answer sentinel, non-SELECT statements, blocked
	// keywords. Recoverable by rephrasing the question.
	ErrTypeValidation ErrorType = "validation"

	// ErrTypeExecution covers warehouse/runtime failures: connection errors,
	// SQL the backend rejects, timeouts.
	ErrTypeExecution ErrorType = "execution"

	// ErrTypeIndexUnready signals that the schema index has not finished
	// building yet.
	ErrTypeIndexUnready ErrorType = "index_unready"

	ErrTypeConfig   ErrorType = "config"
	ErrTypeInternal ErrorType = "internal"
)

// Error is a structured error with a type discriminator and optional cause.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new structured error.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new structured error with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// IsType checks if an error is of a specific type.
func IsType(err error, errType ErrorType) bool {
	var structErr *Error
	if errors.As(err, &structErr) {
		return structErr.Type == errType
	}

	return false
}

// GetType returns the error type if it's a structured error.
func GetType(err error) ErrorType {
	var structErr *Error
	if errors.As(err, &structErr) {
		return structErr.Type
	}

	return ErrTypeInternal
}

// UserMessage returns the message without the wrapped cause. Execution
// errors keep their cause out of user-facing responses; the cause still
// reaches logs through Error().
func UserMessage(err error) string {
	var structErr *Error
	if errors.As(err, &structErr) {
		return structErr.Message
	}

	return err.Error()
}
