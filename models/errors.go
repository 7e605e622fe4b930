package models

import "fmt"

// ValidationError signals a violated business rule. Field names the request
// field the violation is attached to; "detail" is used for rule violations
// that are not tied to a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for a specific field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewRequiredFieldError creates a ValidationError for a missing or empty field
func NewRequiredFieldError(field string) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf("%s cannot be empty.", field)}
}
