package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestAPIError(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		message   string
		details   string
		requestID string
	}{
		{
			name:      "Basic error",
			code:      ErrInvalidInput,
			message:   "Invalid HPO id",
			details:   "HP-0001156 is not an ontology term id",
			requestID: "req-123",
		},
		{
			name:      "Store error",
			code:      ErrStoreError,
			message:   "Store unavailable",
			details:   "Unable to open phenotype database",
			requestID: "req-456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError(tt.code, tt.message, tt.details, tt.requestID)

			if err.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, err.Code)
			}
			if err.Message != tt.message {
				t.Errorf("Expected message %s, got %s", tt.message, err.Message)
			}
			if err.Details != tt.details {
				t.Errorf("Expected details %s, got %s", tt.details, err.Details)
			}
			if err.RequestID != tt.requestID {
				t.Errorf("Expected requestID %s, got %s", tt.requestID, err.RequestID)
			}

			expectedError := tt.code + ": " + tt.message
			if err.Error() != expectedError {
				t.Errorf("Expected error string %s, got %s", expectedError, err.Error())
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		value    interface{}
		category error
	}{
		{
			name:     "Entrez id",
			field:    "entrez_id",
			message:  "must be a positive integer",
			value:    "abc",
			category: ErrInvalidIdentifier,
		},
		{
			name:     "Interval",
			field:    "start",
			message:  "start is after end",
			value:    200,
			category: ErrInvalidInterval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message, tt.value, tt.category)

			if err.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, err.Field)
			}
			if err.Value != tt.value {
				t.Errorf("Expected value %v, got %v", tt.value, err.Value)
			}
			if !errors.Is(err, tt.category) {
				t.Errorf("Expected error to wrap %v", tt.category)
			}

			expectedError := "validation error for field '" + tt.field + "': " + tt.message
			if err.Error() != expectedError {
				t.Errorf("Expected error string %s, got %s", expectedError, err.Error())
			}
		})
	}
}

func TestAPIErrorFrom(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"phenotype", NewValidationError("hpo_ids", "bad", "x", ErrInvalidPhenotype), ErrInvalidInput},
		{"wrapped filter", fmt.Errorf("filters[0]: %w", NewValidationError("min_quality", "bad", -1, ErrInvalidFilter)), ErrInvalidInput},
		{"policy", NewValidationError("priority.combination", "bad", "SUM", ErrInvalidPolicy), ErrInvalidInput},
		{"variant", NewValidationError("variants[2]", "variant is null", nil, ErrInvalidVariant), ErrInvalidInput},
		{"store", fmt.Errorf("loading HUMAN models: %w", ErrStore), ErrStoreError},
		{"cancelled", fmt.Errorf("variant filtering: %w", context.Canceled), ErrAnalysis},
		{"other", errors.New("boom"), ErrInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := APIErrorFrom(tt.err, "req-1")
			if apiErr.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, apiErr.Code)
			}
			if apiErr.Details != tt.err.Error() {
				t.Errorf("Expected details %q, got %q", tt.err.Error(), apiErr.Details)
			}
			if apiErr.RequestID != "req-1" {
				t.Errorf("Expected request id req-1, got %s", apiErr.RequestID)
			}
		})
	}
}
