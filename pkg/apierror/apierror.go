package apierror

import (
	"errors"
	"net/http"
)

// DefaultMessage is returned to callers when an internal failure has no
// message safe to expose.
const DefaultMessage = "internal server error"

// Error is the uniform failure shape carried from services and handlers to
// the centralized error reporter. Status classifies the failure for HTTP,
// Message is client-facing, Details holds structured sub-errors (e.g. field
// validation maps), and Err preserves the original cause for diagnostics.
// The cause is never serialized to the client.
type Error struct {
	Status  int
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap lets errors.Is/errors.As walk into the original cause.
func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with a status and client-facing message.
func New(status int, message string) *Error {
	if message == "" && status >= http.StatusInternalServerError {
		message = DefaultMessage
	}
	return &Error{Status: status, Message: message}
}

// WithDetails attaches structured sub-errors to a new Error.
func WithDetails(status int, message string, details any) *Error {
	e := New(status, message)
	e.Details = details
	return e
}

// Wrap builds an Error that keeps cause for the error reporter's log line.
func Wrap(status int, message string, cause error) *Error {
	e := New(status, message)
	e.Err = cause
	return e
}

// From extracts an *Error from err's chain.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Taxonomy helpers. Handlers and services use these instead of spelling out
// status codes at every call site.

func BadRequest(message string, details any) *Error {
	return WithDetails(http.StatusBadRequest, message, details)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

func Internal(cause error) *Error {
	return Wrap(http.StatusInternalServerError, DefaultMessage, cause)
}
