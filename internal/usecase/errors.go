package usecase

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrorForbidden           ErrorCode = "FORBIDDEN"
	ErrorInvalidInput        ErrorCode = "INVALID_INPUT"
	ErrorUpstream            ErrorCode = "UPSTREAM_ERROR"
	ErrorUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrorInternal            ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	// Status overrides the code's default HTTP status when non-zero.
	Status int
	// Detail is safe to show to the caller.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HTTPStatus is the status the transport should answer with.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Code {
	case ErrorForbidden:
		return http.StatusForbidden
	case ErrorInvalidInput:
		return http.StatusBadRequest
	case ErrorUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Title is the short problem title for the code.
func (e *Error) Title() string {
	switch e.Code {
	case ErrorForbidden:
		return "Forbidden"
	case ErrorInvalidInput:
		return "Invalid request"
	case ErrorUpstream:
		return "LLM error"
	case ErrorUpstreamUnavailable:
		return "LLM unavailable"
	default:
		return "Internal error"
	}
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
