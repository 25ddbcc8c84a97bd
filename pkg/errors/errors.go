// Package errors provides structured error handling for the web frontend.
// Every failure surfaced to a page or partial carries a code so handlers
// can decide between a notification, a redirect, and a generic fallback.
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	// Client errors (4xx)
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	CodeForbidden        ErrorCode = "FORBIDDEN"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Server / transport errors
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeBackendError   ErrorCode = "BACKEND_ERROR"
	CodeBackendTimeout ErrorCode = "BACKEND_TIMEOUT"

	// Business errors
	CodeRecipeNotFound     ErrorCode = "RECIPE_NOT_FOUND"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeLoginRequired      ErrorCode = "LOGIN_REQUIRED"
)

// AppError represents an application error with structured information
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the appropriate HTTP status code
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeValidationFailed:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeInvalidCredentials, CodeLoginRequired:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodeRecipeNotFound:
		return http.StatusNotFound
	case CodeBackendError, CodeBackendTimeout:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// New creates a new application error
func New(code ErrorCode, message, details string) *AppError {
	return &AppError{Code: code, Message: message, Details: details}
}

// NewValidationError creates a validation error
func NewValidationError(details string) *AppError {
	return New(CodeValidationFailed, "Validation failed", details)
}

// NewLoginRequiredError creates the error shown when an action needs a
// logged-in user and no token is present.
func NewLoginRequiredError(action string) *AppError {
	return New(CodeLoginRequired, fmt.Sprintf("Please log in to %s", action), "")
}

// NewBackendError wraps a non-2xx backend response. The message is the
// backend-supplied one when decodable, else the fallback the caller chose.
func NewBackendError(status int, message string) *AppError {
	code := CodeBackendError
	switch status {
	case http.StatusUnauthorized:
		code = CodeUnauthorized
	case http.StatusForbidden:
		code = CodeForbidden
	case http.StatusNotFound:
		code = CodeNotFound
	}
	return New(code, message, fmt.Sprintf("backend returned status %d", status))
}

// Wrap wraps an error as an internal error if it's not already an AppError
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(CodeInternal, message, "").WithCause(err)
}

// Is checks if an error is of a specific error code
func Is(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return CodeInternal
}

// Message returns the user-facing message for an error: the structured
// message for AppErrors, a generic fallback for anything else.
func Message(err error, fallback string) string {
	if appErr, ok := err.(*AppError); ok && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
