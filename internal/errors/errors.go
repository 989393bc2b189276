package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is lets wrapped copies of a predefined error match the original by code.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

// Predefined domain errors
var (
	// Registration / validation errors
	ErrMissingFields     = NewDomainError("MISSING_FIELDS", "all fields are required")
	ErrMissingAvatar     = NewDomainError("MISSING_AVATAR", "avatar file is required")
	ErrDuplicateIdentity = NewDomainError("DUPLICATE_IDENTITY", "username or email already exists")

	// Lookup errors
	ErrUserNotFound    = NewDomainError("USER_NOT_FOUND", "user not found")
	ErrChannelNotFound = NewDomainError("CHANNEL_NOT_FOUND", "channel not found")

	// Authentication errors; all of them mean "re-authenticate"
	ErrUnauthorized       = NewDomainError("UNAUTHORIZED", "unauthorized")
	ErrInvalidCredentials = NewDomainError("INVALID_CREDENTIALS", "invalid credentials")
	ErrMissingToken       = NewDomainError("MISSING_TOKEN", "refresh token is required")
	ErrInvalidToken       = NewDomainError("INVALID_TOKEN", "invalid token")
	ErrTokenExpired       = NewDomainError("TOKEN_EXPIRED", "token has expired")
	ErrTokenMismatch      = NewDomainError("TOKEN_MISMATCH", "refresh token does not match the active session")

	// Media errors
	ErrMediaUploadFailed = NewDomainError("MEDIA_UPLOAD_FAILED", "failed to upload media")

	// System errors
	ErrTokenGeneration    = NewDomainError("TOKEN_GENERATION_FAILED", "failed to generate tokens")
	ErrInternal           = NewDomainError("INTERNAL_ERROR", "internal server error")
	ErrServiceUnavailable = NewDomainError("SERVICE_UNAVAILABLE", "service unavailable")
)

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	// Default to internal server error for unknown errors
	return http.StatusInternalServerError
}

func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	// 400 Bad Request
	case "MISSING_FIELDS", "MISSING_AVATAR":
		return http.StatusBadRequest

	// 401 Unauthorized
	case "UNAUTHORIZED", "INVALID_CREDENTIALS", "MISSING_TOKEN",
		"INVALID_TOKEN", "TOKEN_EXPIRED", "TOKEN_MISMATCH":
		return http.StatusUnauthorized

	// 404 Not Found
	case "USER_NOT_FOUND", "CHANNEL_NOT_FOUND":
		return http.StatusNotFound

	// 409 Conflict
	case "DUPLICATE_IDENTITY":
		return http.StatusConflict

	// 503 Service Unavailable
	case "SERVICE_UNAVAILABLE":
		return http.StatusServiceUnavailable

	// 500 Internal Server Error (default; covers MEDIA_UPLOAD_FAILED,
	// TOKEN_GENERATION_FAILED and persistence failures)
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage safely extracts error message
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return err.Error()
}
