package model

import (
	"errors"
	"fmt"
)

// ErrorCode represents a structured API error code.
type ErrorCode string

const (
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrConflict   ErrorCode = "CONFLICT"
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
)

// APIError is a structured error returned by the rrsched API.
type APIError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// NewValidationError creates an APIError with validation details.
func NewValidationError(msg string, details ...FieldError) *APIError {
	return &APIError{Code: ErrValidation, Message: msg, Details: details}
}

// NewNotFoundError creates a NOT_FOUND APIError.
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
	}
}

// NewConflictError creates a CONFLICT APIError.
func NewConflictError(msg string) *APIError {
	return &APIError{Code: ErrConflict, Message: msg}
}

// NewInternalError creates an INTERNAL_ERROR APIError.
func NewInternalError(msg string) *APIError {
	return &APIError{Code: ErrInternal, Message: msg}
}

// Sentinels for the two error kinds the scheduler core can report.
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidProcess       = errors.New("invalid process")
)

// ConfigError reports a rejected scheduler configuration value.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%s: %s", e.Field, e.Value, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidConfiguration.
func (e *ConfigError) Unwrap() error { return ErrInvalidConfiguration }

// ProcessError reports a rejected process record. Path locates the record
// in its source (e.g. "processes[3]") when there is one.
type ProcessError struct {
	Path   string
	Field  string
	Value  string
	Reason string
}

func (e *ProcessError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid process %s: %s=%s: %s", e.Path, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid process: %s=%s: %s", e.Field, e.Value, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidProcess.
func (e *ProcessError) Unwrap() error { return ErrInvalidProcess }

// AsValidationError converts a ConfigError or ProcessError into a
// VALIDATION_ERROR APIError. It returns nil for any other error.
func AsValidationError(err error) *APIError {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return NewValidationError("invalid configuration",
			FieldError{Field: ce.Field, Message: ce.Reason})
	}
	var pe *ProcessError
	if errors.As(err, &pe) {
		return NewValidationError("invalid process",
			FieldError{Field: pe.Field, Path: pe.Path, Message: pe.Reason})
	}
	return nil
}

// InvalidTransitionError is returned when a state transition is invalid.
type InvalidTransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s state transition: %s → %s (entity %s)", e.Entity, e.From, e.To, e.ID)
}
