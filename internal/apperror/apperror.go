// Package apperror defines the application's error taxonomy.
//
// Services return these errors; the HTTP layer maps them to status codes
// with errors.Is/errors.As. Keeping the taxonomy in one small package means
// the service layer never imports net/http and the handler layer never
// inspects error strings.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors. Exactly one of these sits at the bottom of every
// AppError chain, so errors.Is(err, ErrNotFound) etc. works anywhere.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)

// AppError carries a sentinel plus a human-readable message.
type AppError struct {
	Err     error  // one of the sentinels above
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports that an entity does not exist for the acting user.
//
// Ownership mismatches use this too: a record owned by someone else is
// reported exactly like a record that was never created, so the API never
// leaks which ids exist in other accounts.
func NotFound(resource string, id int64) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %d", resource, id),
	}
}

// InvalidInput reports a validation failure on a named field.
func InvalidInput(field, message string) *AppError {
	return &AppError{
		Err:     ErrInvalidInput,
		Message: message,
		Field:   field,
	}
}

// Unauthorized reports a missing or unverifiable identity.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Internal wraps an unexpected failure (storage, I/O) so callers can still
// match on the taxonomy while the original cause stays in the chain.
func Internal(err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrInternal, err),
		Message: "an internal error occurred",
	}
}
