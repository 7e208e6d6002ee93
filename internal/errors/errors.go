package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a domain error that knows its HTTP status.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	// Details and Advisories are attached to post-solve failures only.
	Details    any      `json:"details,omitempty"`
	Advisories []string `json:"advisories,omitempty"`
	Err        error    `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

var (
	ErrValidation    = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInfeasible    = New("INFEASIBLE", http.StatusUnprocessableEntity, "no timetable satisfies the constraints")
	ErrTimeout       = New("SOLVER_TIMEOUT", http.StatusUnprocessableEntity, "solver ran out of time")
	ErrModelInvalid  = New("MODEL_INVALID", http.StatusInternalServerError, "scheduling model is invalid")
	ErrSolverFailure = New("SOLVER_FAILURE", http.StatusInternalServerError, "solver failed")
	ErrBusy          = New("SOLVER_BUSY", http.StatusTooManyRequests, "Too many schedules are being generated. Please retry shortly.")
	ErrInternal      = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone copies err, replacing the message when one is given.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithDetails clones err and attaches details and the underlying cause.
func WithDetails(err *Error, message string, details any, cause error) *Error {
	clone := Clone(err, message)
	clone.Details = details
	clone.Err = cause
	return clone
}
