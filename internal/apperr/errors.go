package apperr

import (
	"net/http"

	"github.com/pkg/errors"
)

// Error carries the HTTP status a handler wants rendered.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Wrap keeps err for logging while only Message is shown to the caller.
func Wrap(err error, status int, message string) *Error {
	return &Error{Status: status, Message: message, cause: err}
}

func BadRequest(message string) *Error   { return New(http.StatusBadRequest, message) }
func Unauthorized(message string) *Error { return New(http.StatusUnauthorized, message) }
func Conflict(message string) *Error     { return New(http.StatusConflict, message) }

// StatusOf returns the status carried by err, or 500.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}
