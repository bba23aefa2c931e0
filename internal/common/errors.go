package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by handlers.
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "INVALID_STATE"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeInternal        = "INTERNAL"
	CodeExternalFailure = "EXTERNAL_SERVICE_FAILURE"
)

// ErrExternalService marks failures of a collaborator such as the ledger, cart store or queue.
var ErrExternalService = errors.New("external service failure")

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// ExternalServiceFailure wraps a collaborator error into a retryable 503 AppError.
// The returned error matches ErrExternalService and the original error via errors.Is.
func ExternalServiceFailure(service string, err error) *AppError {
	return &AppError{
		Code:       CodeExternalFailure,
		Message:    service + " unavailable, please retry",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        fmt.Errorf("%w: %s: %w", ErrExternalService, service, err),
		Details:    map[string]any{"service": service, "retryable": true},
	}
}

// WriteError renders err using the canonical error envelope. Non-AppErrors become 500s.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		JSONError(w, http.StatusInternalServerError, CodeInternal, "internal error", nil)
		return
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	code := appErr.Code
	if code == "" {
		code = CodeInternal
	}
	message := appErr.Message
	if message == "" {
		message = "internal error"
	}
	JSONError(w, status, code, message, appErr.Details)
}
