// Package apperror defines the error kinds the repository and handler layers
// exchange. Handlers map each kind to an HTTP status; nothing below the
// handler layer knows about HTTP.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks lookups where exactly one row was expected and
	// zero (or more than one) matched.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks bad or missing request fields and rejected uploads.
	ErrValidation = errors.New("validation failed")

	// ErrUpstream marks failures of an external collaborator, such as the
	// geocoding service.
	ErrUpstream = errors.New("upstream failure")

	// ErrIntegrity marks unique-key collisions, e.g. a duplicate picture
	// filename.
	ErrIntegrity = errors.New("integrity violation")
)

type AppError struct {
	Err     error
	Message string
	Field   string // optional: request field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %v", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Upstream(service string, cause error) *AppError {
	return &AppError{
		Err:     ErrUpstream,
		Message: fmt.Sprintf("%s: %v", service, cause),
	}
}

func Integrity(message string) *AppError {
	return &AppError{
		Err:     ErrIntegrity,
		Message: message,
	}
}
