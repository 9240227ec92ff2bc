package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// APIError represents a custom error type for API responses
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Details string `json:"details,omitempty"`

	cause error
}

// Error returns the error message
func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *APIError) Unwrap() error {
	return e.cause
}

// Is reports whether target is an APIError of the same kind. Two errors are
// the same kind when their codes match, regardless of message or cause.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of e carrying a different user-facing message.
func (e *APIError) WithMessage(message string) *APIError {
	c := *e
	c.Message = message
	return &c
}

// WithCause returns a copy of e wrapping err. The cause text is kept in
// Details for logging.
func (e *APIError) WithCause(err error) *APIError {
	c := *e
	c.cause = err
	if err != nil {
		c.Details = err.Error()
	}
	return &c
}

func NewAPIError(code, message string, status int, details ...string) *APIError {
	err := &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

var (
	ErrValidation         = NewAPIError("VALIDATION_ERROR", "Invalid inputs passed, please check your data.", http.StatusUnprocessableEntity)
	ErrUnauthorized       = NewAPIError("UNAUTHORIZED", "Authentication failed!", http.StatusUnauthorized)
	ErrInvalidCredentials = NewAPIError("INVALID_CREDENTIALS", "Invalid credentials, could not log you in.", http.StatusUnauthorized)
	ErrForbidden          = NewAPIError("FORBIDDEN", "You are not allowed to perform this action.", http.StatusForbidden)
	ErrNotFound           = NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrConflict           = NewAPIError("CONFLICT", "Resource conflict", http.StatusUnprocessableEntity)
	ErrMethodNotAllowed   = NewAPIError("METHOD_NOT_ALLOWED", "Method not allowed for this route.", http.StatusMethodNotAllowed)
	ErrRateLimited        = NewAPIError("RATE_LIMITED", "Too many requests, please try again later.", http.StatusTooManyRequests)
	ErrGeocode            = NewAPIError("GEOCODE_ERROR", "Could not find location for the specified address.", http.StatusInternalServerError)
	ErrCrypto             = NewAPIError("CRYPTO_ERROR", "Could not process credentials, please try again.", http.StatusInternalServerError)
	ErrPersistence        = NewAPIError("PERSISTENCE_ERROR", "Something went wrong, please try again.", http.StatusInternalServerError)
	ErrInternal           = NewAPIError("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
)

// Wrap converts err into an APIError. Errors that already carry an APIError
// anywhere in their chain are returned unchanged.
func Wrap(err error, code, message string, status int) *APIError {
	if apiErr, ok := As(err); ok {
		return apiErr
	}
	return NewAPIError(code, message, status).WithCause(err)
}

// As finds the first APIError in err's chain.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Is is errors.Is, re-exported so callers importing this package under the
// name errors keep access to it.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// StatusOf returns the HTTP status carried by err, defaulting to 500.
func StatusOf(err error) int {
	if apiErr, ok := As(err); ok {
		return apiErr.Status
	}
	return http.StatusInternalServerError
}
