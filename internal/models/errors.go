package models

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials is returned by login when either the username or the
// password does not match. Callers must not reveal which one failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError reports client-caused input problems: malformed, missing or
// out-of-range values. The operation is fully aborted with no partial writes.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports that a referenced tab, document or user is absent.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found", e.Resource) }

// NewNotFoundError reports the named resource as missing.
func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// ConflictError reports a state conflict: duplicate names, deleting the last
// remaining tab. No writes are performed.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NewConflictError builds a ConflictError with a formatted message.
func NewConflictError(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// StartupConfigError is fatal: the process must not start serving traffic.
type StartupConfigError struct {
	Message string
}

func (e *StartupConfigError) Error() string { return e.Message }

// NewStartupConfigError builds a StartupConfigError with a formatted message.
func NewStartupConfigError(format string, args ...interface{}) *StartupConfigError {
	return &StartupConfigError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
