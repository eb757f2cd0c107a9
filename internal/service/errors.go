package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type ErrorCode string

const (
	ErrorCodeValidation ErrorCode = "validation"
	ErrorCodeNotFound   ErrorCode = "not_found"
	ErrorCodeForbidden  ErrorCode = "forbidden"
	ErrorCodeInternal   ErrorCode = "internal"
)

// Error is returned by every service method that fails. Message is safe to
// show to API clients; Err keeps the underlying cause for logs.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newValidationError(format string, args ...interface{}) *Error {
	return &Error{Code: ErrorCodeValidation, Message: fmt.Sprintf(format, args...)}
}

func newNotFoundError(message string) *Error {
	return &Error{Code: ErrorCodeNotFound, Message: message}
}

func newForbiddenError(message string) *Error {
	return &Error{Code: ErrorCodeForbidden, Message: message}
}

func newInternalError(message string, err error) *Error {
	return &Error{Code: ErrorCodeInternal, Message: message, Err: err}
}

// AsError extracts a service error from err.
func AsError(err error) (*Error, bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	if svcErr, ok := AsError(err); ok {
		return svcErr.Code == ErrorCodeNotFound
	}
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// lookupError turns a failed single-row lookup into NotFound or Internal.
func lookupError(err error, what string) *Error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newNotFoundError(what + " not found")
	}
	return newInternalError("could not fetch "+what, err)
}
