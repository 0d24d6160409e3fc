// Package errors provides the standardized error taxonomy for the
// assistant pipeline.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Validation errors
	ErrCodeMissingRequiredField ErrorCode = "MISSING_REQUIRED_FIELD"
	ErrCodeInvalidInput         ErrorCode = "INVALID_INPUT"

	// Resource errors
	ErrCodeResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeProjectNotFound  ErrorCode = "PROJECT_NOT_FOUND"
	ErrCodeClientNotFound   ErrorCode = "CLIENT_NOT_FOUND"

	// Auth errors
	ErrCodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	ErrCodeAccessDenied    ErrorCode = "ACCESS_DENIED"

	// External service errors
	ErrCodeModelUnavailable  ErrorCode = "MODEL_UNAVAILABLE"
	ErrCodeStoreUnavailable  ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Normalize ensures any error is represented as a StandardError,
// wrapping unclassified errors as INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternalError,
		Message:   "An unexpected error occurred",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingRequiredFieldError creates a non-retryable validation error.
func NewMissingRequiredFieldError(field string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingRequiredField,
		Message:   fmt.Sprintf("%s is required", field),
		Details:   fmt.Sprintf("field: %s", field),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError creates a non-retryable validation error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProjectNotFoundError creates a non-retryable lookup error.
func NewProjectNotFoundError(projectID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProjectNotFound,
		Message:   "Project not found",
		Details:   fmt.Sprintf("projectId: %s", projectID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResourceNotFoundError creates a non-retryable lookup error.
func NewResourceNotFoundError(resource, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResourceNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewModelUnavailableError creates a retryable completion-capability
// error: unreachable, rate-limited, timed out, or malformed output.
func NewModelUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelUnavailable,
		Message:   "Language model unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUnavailableError creates a retryable store connectivity error.
func NewStoreUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "Data store unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAccessDeniedError creates a non-retryable tenant-isolation error.
func NewAccessDeniedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAccessDenied,
		Message:   "Access denied",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnauthenticatedError creates a non-retryable authentication error.
func NewUnauthenticatedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthenticated,
		Message:   "Authentication required",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unclassified failure.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternalError,
		Message:   "An unexpected error occurred",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// IsRetryableErrorCode checks whether a caller may apply backoff and
// retry. The pipeline itself never retries.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeModelUnavailable, ErrCodeStoreUnavailable, ErrCodeRateLimitExceeded:
		return true
	default:
		return false
	}
}

// HTTPStatus maps an error code to the response status: 400 for
// validation, 401/403 for auth, 404 for resource lookups, 429 for
// rate limits, 500 otherwise.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeMissingRequiredField, ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case ErrCodeAccessDenied:
		return http.StatusForbidden
	case ErrCodeResourceNotFound, ErrCodeProjectNotFound, ErrCodeClientNotFound:
		return http.StatusNotFound
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
