// Package apperror defines the error taxonomy shared by every layer.
//
// Services and stores return these typed errors; the HTTP boundary maps
// them to status codes. Nothing below the handler layer knows about HTTP.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	// ErrToken marks a missing or stale anti-forgery token. Deliberately
	// distinct from ErrAuth so a stale-token 403 is never confused with an
	// unauthenticated redirect.
	ErrToken = errors.New("stale token")
	ErrAuth  = errors.New("unauthenticated")
	// ErrStorage marks an I/O failure in the backing medium. Fatal to the
	// current request, never retried.
	ErrStorage = errors.New("storage error")
)

type AppError struct {
	Err     error  // sentinel category
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists: %s", resource, id),
	}
}

// TokenInvalid returns the dedicated stale-token error. HTTP handlers map
// this to 403 Forbidden before any store access happens.
func TokenInvalid(message string) *AppError {
	return &AppError{
		Err:     ErrToken,
		Message: message,
	}
}

// Unauthenticated returns the error recovered at the boundary by
// redirecting to the login page rather than failing hard.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrAuth,
		Message: message,
	}
}

// Storage wraps a backing-medium I/O failure.
func Storage(op string, err error) *AppError {
	return &AppError{
		Err:     ErrStorage,
		Message: fmt.Sprintf("storage failure during %s: %v", op, err),
	}
}
