// Package validation checks user input before it is handed to the gateway.
// Failures are reported as *ValidationError and never reach the network.
package validation

import (
	"errors"
	"strings"
)

// ErrInvalid is matched by every *ValidationError via errors.Is.
var ErrInvalid = errors.New("invalid input")

// FieldError is a single rejected field together with a user-facing message.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError represents client-side input that failed a precondition.
// Message strings are safe to show to the user as-is.
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// Is reports whether target is ErrInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Add records a failure for field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Has reports whether field has at least one recorded failure.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// First returns the first message, or "" when there is none.
func (e *ValidationError) First() string {
	if len(e.Fields) == 0 {
		return ""
	}
	return e.Fields[0].Message
}

// OrNil returns e as an error, or nil when no failure was recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NewValidationError creates a ValidationError holding a single field failure.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}
