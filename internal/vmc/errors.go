package vmc

import (
	"errors"
	"fmt"
)

// Sentinel errors that callers are expected to test for with errors.Is.
var (
	// ErrInvalidInput marks validation failures: out-of-range parameters,
	// non-finite numbers, non-positive counts. Validation happens before any
	// random state is consumed, so an ErrInvalidInput run did no work.
	ErrInvalidInput = errors.New("invalid input")

	// ErrZeroWavefunction is returned when the wavefunction at a walker's
	// current position is exactly zero during equilibration. The acceptance
	// ratio is undefined there and the chain cannot recover, so the run
	// aborts with no partial results.
	ErrZeroWavefunction = errors.New("division by zero detected in acceptance ratio")
)

// Error represents a sampler error with context that can be wrapped with
// additional information.
type Error struct {
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the component where the error occurred.
	Component string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	switch {
	case e.Component != "" && e.Op != "":
		prefix = fmt.Sprintf("%s: %s", e.Component, e.Op)
	case e.Component != "":
		prefix = e.Component
	case e.Op != "":
		prefix = e.Op
	}

	if e.Err != nil {
		if prefix != "" {
			return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	if prefix != "" {
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// NewErrorf creates a new sampler error with a formatted message.
func NewErrorf(format string, args ...interface{}) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an existing error with additional context.
// If err is nil, WrapError returns nil.
func WrapError(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: message,
		Err:     err,
	}
}

// invalidf builds a validation error wrapping ErrInvalidInput so callers can
// detect it with errors.Is(err, ErrInvalidInput).
func invalidf(format string, args ...interface{}) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Err:     ErrInvalidInput,
	}
}
