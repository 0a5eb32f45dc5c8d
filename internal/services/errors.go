package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of photo operations independently of transport.
type ErrorKind string

const (
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindForbidden       ErrorKind = "forbidden"
	KindValidation      ErrorKind = "validation"
	KindInvalidCursor   ErrorKind = "invalid_cursor"
	KindNotFound        ErrorKind = "not_found"
	KindInternal        ErrorKind = "internal"
)

// Error is returned by every PhotoService operation. Err holds the backend
// cause and is meant for logs only.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of err. Errors not produced by this package are internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a service error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func validationError(format string, args ...interface{}) *Error {
	return newError(KindValidation, fmt.Sprintf(format, args...))
}

func internalError(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

var (
	errUnauthenticated = newError(KindUnauthenticated, "authentication required")
	errPhotoNotFound   = newError(KindNotFound, "photo not found")
	errEditedNotFound  = newError(KindNotFound, "no edited version available")
	errAccessDenied    = newError(KindForbidden, "access denied")
	errInvalidCursor   = newError(KindInvalidCursor, "invalid pagination token")
)
