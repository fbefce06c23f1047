package service

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a service failure.
type Kind int

// Failure kinds.
const (
	InvalidRequest Kind = iota + 1
	NotFound
	Conflict
	StorageFailure
	InternalFailure
)

func (k Kind) String() string {
	switch k {
	case InvalidRequest:
		return "invalid_request"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case StorageFailure:
		return "storage_failure"
	case InternalFailure:
		return "internal_failure"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case InvalidRequest:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is the single error type returned across the service boundary.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func invalid(message string) *Error {
	return &Error{Kind: InvalidRequest, Message: message}
}

func notFound(message string) *Error {
	return &Error{Kind: NotFound, Message: message}
}

func conflict(message string, cause error) *Error {
	return &Error{Kind: Conflict, Message: message, Cause: cause}
}

func storage(message string, cause error) *Error {
	return &Error{Kind: StorageFailure, Message: message, Cause: cause}
}

// KindOf returns the kind carried by err, or InternalFailure for errors that
// did not come from a service.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return InternalFailure
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
