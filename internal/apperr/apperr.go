// Package apperr defines the error taxonomy surfaced to API callers.
package apperr

import (
	"errors"
	"net/http"
)

// Error is a business failure carrying the HTTP status it maps to.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func BadRequest(msg string) *Error {
	return &Error{Code: http.StatusBadRequest, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Code: http.StatusUnauthorized, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Code: http.StatusNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Code: http.StatusConflict, Message: msg}
}

func TooManyRequests(msg string) *Error {
	return &Error{Code: http.StatusTooManyRequests, Message: msg}
}

// Internal wraps a downstream failure. The cause is kept for logs, the message is what callers see.
func Internal(msg string, err error) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: msg, Err: err}
}

// StatusCode returns the HTTP status for err, 500 for anything outside the taxonomy.
func StatusCode(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// Message returns the caller-facing message for err.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

// Is reports whether err belongs to the taxonomy with the given status.
func Is(err error, code int) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}
