package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package matches exactly one of
// them under errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrStorage      = errors.New("storage failure")
)

// Error carries a kind, a message safe to show to callers, and the underlying cause if any.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func validationError(format string, args ...any) *Error {
	return newError(ErrValidation, fmt.Sprintf(format, args...))
}

func storageError(message string, err error) *Error {
	return &Error{Kind: ErrStorage, Message: message, Err: err}
}

// asServiceError passes *Error values through and wraps anything else as a storage failure.
func asServiceError(message string, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return storageError(message, err)
}
