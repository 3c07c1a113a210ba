package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownDiagnosisType is returned by write-path dispatchers (delete,
// update, analyze) when a record's discriminant matches no known domain.
// Read-path formatters never return it; they fall back to safe defaults.
var ErrUnknownDiagnosisType = errors.New("Unknown diagnosis type") //nolint:staticcheck // message is part of the public contract

// ErrInvalidAnalysisType is returned when an upload names a breast cancer
// sub-mode other than birads, pathological or both.
var ErrInvalidAnalysisType = errors.New("invalid analysis type")

// SourceFetchError reports that a call to one remote diagnosis source failed.
// The underlying error is preserved for errors.Is / errors.As.
type SourceFetchError struct {
	Source    string
	Operation string
	Err       error
}

// Error implements the error interface
func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Source, e.Operation, e.Err)
}

// Unwrap returns the underlying source error.
func (e *SourceFetchError) Unwrap() error {
	return e.Err
}

// NewSourceFetchError wraps err with the source and operation that produced it.
func NewSourceFetchError(source, operation string, err error) *SourceFetchError {
	return &SourceFetchError{Source: source, Operation: operation, Err: err}
}

// APIError represents a standardized error response returned to the views.
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeUnknownType         = "UNKNOWN_DIAGNOSIS_TYPE"
	ErrCodeUpstream            = "UPSTREAM_ERROR"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeTimeout             = "TIMEOUT"
	ErrCodeStorage             = "STORAGE_ERROR"
	ErrCodeInternalServer      = "INTERNAL_SERVER_ERROR"
)

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}
