// Package apperror defines the application's error taxonomy. Services return
// these domain errors; the HTTP layer maps them to status codes.
//
// The taxonomy deliberately distinguishes malformed requests (the body could
// not be parsed, or a required field is absent) from validation failures (the
// body parsed, but a field value is semantically invalid). Cross-user access
// is reported as not-found, indistinguishable from true absence.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrMalformed    = errors.New("malformed request")
	ErrUnauthorized = errors.New("unauthorized")
)

type AppError struct {
	Err     error  // sentinel classifying the error
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
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Malformed reports a request body that could not be parsed, including a
// missing required field. Handlers map this to 400, before validation runs.
func Malformed(message string) *AppError {
	return &AppError{
		Err:     ErrMalformed,
		Message: message,
	}
}

// Unauthorized reports a missing or invalid session or calendar token.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
