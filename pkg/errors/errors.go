package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels matched with errors.Is across layers.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrServiceUnavail = errors.New("service unavailable")
)

// sentinelStatus is consulted in order for errors that are not an *AppError.
var sentinelStatus = []struct {
	err    error
	status int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrAlreadyExists, http.StatusConflict},
	{ErrInvalidInput, http.StatusBadRequest},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrServiceUnavail, http.StatusServiceUnavailable},
}

// AppError carries a stable machine code and the response status for a
// failure. Err holds the sentinel, joined with the cause for transient
// failures.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func newError(code string, status int, err error, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: err}
}

// NotFound reports a missing store, user or review by identifier.
func NotFound(resource, id string) *AppError {
	return newError("NOT_FOUND", http.StatusNotFound, ErrNotFound,
		fmt.Sprintf("%s %s not found", resource, id))
}

// AlreadyExists reports a uniqueness violation, such as a taken slug.
func AlreadyExists(resource, field, value string) *AppError {
	return newError("ALREADY_EXISTS", http.StatusConflict, ErrAlreadyExists,
		fmt.Sprintf("%s with %s %q already exists", resource, field, value))
}

func InvalidInput(message string) *AppError {
	return newError("INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput, message)
}

func Unauthorized(message string) *AppError {
	return newError("UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized, message)
}

// Forbidden is returned when the caller is authenticated but does not own
// the store being edited.
func Forbidden(message string) *AppError {
	return newError("FORBIDDEN", http.StatusForbidden, ErrForbidden, message)
}

// Transient marks a storage or search backend failure the caller may
// retry. The cause stays reachable through errors.Is.
func Transient(op string, cause error) *AppError {
	return newError("SERVICE_UNAVAILABLE", http.StatusServiceUnavailable,
		errors.Join(ErrServiceUnavail, cause), op+" temporarily unavailable")
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	return errors.Is(err, ErrServiceUnavail)
}

// HTTPStatus maps err to a response status. Plain sentinels, possibly
// wrapped, are mapped too; anything else is a 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	for _, s := range sentinelStatus {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}
