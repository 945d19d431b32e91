package domain

import (
	"context"
	"errors"
	"fmt"
)

// Error codes reported by the HTTP and MCP surfaces
const (
	ErrInvalidInput   = "INVALID_INPUT"
	ErrStoreError     = "STORE_ERROR"
	ErrExternalAPI    = "EXTERNAL_API_ERROR"
	ErrAnalysis       = "ANALYSIS_ERROR"
	ErrInternalServer = "INTERNAL_SERVER_ERROR"
	ErrValidation     = "VALIDATION_ERROR"
)

// ValidationError describes a value that could not be constructed. It wraps the
// sentinel error for its category so callers can match with errors.Is.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
	Err     error       `json:"-"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Unwrap returns the sentinel error category.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}, category error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
		Err:     category,
	}
}

// APIError is the error body returned by the outer surfaces.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAPIError creates a new APIError
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: requestID,
	}
}

// IsInvalidInput reports whether err was caused by a malformed request rather than
// by the store or the server.
func IsInvalidInput(err error) bool {
	for _, category := range []error{ErrInvalidIdentifier, ErrInvalidInterval, ErrInvalidFilter, ErrInvalidPhenotype, ErrInvalidPolicy, ErrInvalidVariant} {
		if errors.Is(err, category) {
			return true
		}
	}
	return false
}

// APIErrorFrom classifies err into the error body of the outer surfaces.
func APIErrorFrom(err error, requestID string) *APIError {
	switch {
	case IsInvalidInput(err):
		return NewAPIError(ErrInvalidInput, "Invalid analysis request", err.Error(), requestID)
	case errors.Is(err, ErrStore):
		return NewAPIError(ErrStoreError, "Phenotype store unavailable", err.Error(), requestID)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewAPIError(ErrAnalysis, "Analysis cancelled", err.Error(), requestID)
	default:
		return NewAPIError(ErrInternalServer, "Analysis failed", err.Error(), requestID)
	}
}
