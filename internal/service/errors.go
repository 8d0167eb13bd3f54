// Package service provides business logic for the application.
package service

import "errors"

// Service errors. Handlers map these to HTTP statuses.
var (
	ErrValidation         = errors.New("validation failed")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrUserNotFound       = errors.New("user not found")
	ErrArticleNotFound    = errors.New("article not found")
)

// ValidationError is a client input problem with a user-facing message.
// It matches ErrValidation under errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(message string) error {
	return &ValidationError{Message: message}
}

// DeniedError is an authorization refusal with a user-facing message.
// It matches ErrForbidden under errors.Is.
type DeniedError struct {
	Message string
}

func (e *DeniedError) Error() string { return e.Message }

// Is reports whether target is ErrForbidden.
func (e *DeniedError) Is(target error) bool { return target == ErrForbidden }

func denied(message string) error {
	return &DeniedError{Message: message}
}
