package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies the errors the backend reports to its callers
type Kind string

// all error kinds
const (
	KindInvalidPath      Kind = "invalid_path"
	KindInvalidParameter Kind = "invalid_parameter"
	KindNotFound         Kind = "not_found"
	KindUnauthorized     Kind = "unauthorized"
)

// Sentinel errors for errors.Is. They match any *Error of the same kind.
var (
	ErrInvalidPath      = &Error{Status: http.StatusBadRequest, Kind: KindInvalidPath}
	ErrInvalidParameter = &Error{Status: http.StatusBadRequest, Kind: KindInvalidParameter}
	ErrNotFound         = &Error{Status: http.StatusNotFound, Kind: KindNotFound}
	ErrUnauthorized     = &Error{Status: http.StatusUnauthorized, Kind: KindUnauthorized}
)

// Error is an error with a user facing message and an HTTP status.
//
// Errors of the underlying document tree are never converted into Error, they
// are returned unchanged.
type Error struct {
	Status  int
	Message string
	Kind    Kind
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is reports whether target is an *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(sentinel *Error, format string, a ...interface{}) *Error {
	return &Error{Status: sentinel.Status, Kind: sentinel.Kind, Message: fmt.Sprintf(format, a...)}
}

func invalidPath(format string, a ...interface{}) *Error {
	return newError(ErrInvalidPath, format, a...)
}

func invalidParameter(format string, a ...interface{}) *Error {
	return newError(ErrInvalidParameter, format, a...)
}

func notFound(format string, a ...interface{}) *Error {
	return newError(ErrNotFound, format, a...)
}

func unauthorized(format string, a ...interface{}) *Error {
	return newError(ErrUnauthorized, format, a...)
}

// StatusOf returns the HTTP status for err. Errors which are not an *Error
// are internal server errors.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}
