package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	Stack      string `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// NewError creates a new application error
func NewError(statusCode int, code string, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Stack:      string(debug.Stack()),
	}
}

// NewInvalidArgumentError creates a 400 Bad Request error for malformed or empty input
func NewInvalidArgumentError(code string, message string) *AppError {
	return NewError(http.StatusBadRequest, code, message)
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(code string, message string) *AppError {
	return NewError(http.StatusNotFound, code, message)
}

// NewTooManyRequestsError creates a 429 Too Many Requests error
func NewTooManyRequestsError(code string, message string) *AppError {
	return NewError(http.StatusTooManyRequests, code, message)
}

// NewStorageError creates a 500 Internal Server Error for persistence failures
func NewStorageError(code string, message string) *AppError {
	return NewError(http.StatusInternalServerError, code, message)
}

// Is checks if the target error is of type AppError
func Is(err error, target *AppError) bool {
	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}
	return appErr.Code == target.Code
}

// FromError converts a standard error to an AppError. Errors that are not
// already an AppError are treated as storage failures.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return appErr
	}

	return &AppError{
		StatusCode: http.StatusInternalServerError,
		Code:       "STORAGE_FAILURE",
		Message:    err.Error(),
	}
}
