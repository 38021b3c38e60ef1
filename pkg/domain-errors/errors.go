// Package dErrors defines the coded errors shared across the domain. Codes
// identify the failure class for clients; transport layers map them onto HTTP
// statuses without inspecting messages.
package dErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeBadRequest marks a submission the caller must fix.
	CodeBadRequest Code = "bad_request"

	// CodeNotFound marks a lookup for a job that does not exist.
	CodeNotFound Code = "not_found"

	// CodeNotReady marks a result request made before the job finished.
	CodeNotReady Code = "not_ready"

	// CodeJobFailed marks a result request for a job that ended in failure.
	// The message carries the stored failure reason.
	CodeJobFailed Code = "job_failed"

	// CodeInternal marks an unexpected infrastructure failure.
	CodeInternal Code = "internal"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error around a cause.
func Wrap(cause error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}

// MessageOf extracts the domain message from err, falling back to the plain
// error string for uncoded errors.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// ToHTTPStatus maps a code onto its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeNotReady:
		return http.StatusConflict
	case CodeJobFailed:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
