// Package apperrors defines the error taxonomy shared by the assessment
// engine and its HTTP surface. Services wrap a sentinel kind with a
// user-facing message; handlers map the kind to a status code.
package apperrors

import (
	"errors"
	"net/http"
)

var (
	// ErrNotEligible marks a permanently failed candidate.
	ErrNotEligible = errors.New("not eligible")
	// ErrAlreadyActive marks a duplicate start while a lifecycle exists.
	ErrAlreadyActive = errors.New("already active")
	ErrNotFound      = errors.New("not found")
	// ErrInvalidState marks an operation attempted out of sequence.
	ErrInvalidState = errors.New("invalid state")
	ErrForbidden    = errors.New("forbidden")
	// ErrInsufficientPool is an operational fault: the question bank cannot
	// satisfy a sampling request.
	ErrInsufficientPool = errors.New("insufficient question pool")
	ErrNoFurtherSteps   = errors.New("no further steps")
)

type Error struct {
	kind error
	msg  string
}

// E wraps one of the sentinel kinds with a message.
func E(kind error, msg string) error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// HTTPStatus maps an error to its response status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotEligible), errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyActive),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrNoFurtherSteps):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
