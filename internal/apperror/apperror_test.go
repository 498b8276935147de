package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	err := NotFound("plant", "abc123")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "plant not found with id abc123", err.Error())
}

func TestValidationFailed(t *testing.T) {
	err := ValidationFailed("email", "must be a valid email address")

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "email", err.Field)
	assert.Equal(t, "must be a valid email address", err.Error())
}

func TestMalformed(t *testing.T) {
	err := Malformed("invalid JSON body")

	assert.True(t, errors.Is(err, ErrMalformed))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "invalid JSON body", err.Error())
}

func TestUnauthorized(t *testing.T) {
	err := Unauthorized("invalid calendar token")

	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, "invalid calendar token", err.Error())
}

func TestUnwrapThroughWrapping(t *testing.T) {
	err := fmt.Errorf("service: %w", NotFound("photo", "p1"))

	assert.True(t, errors.Is(err, ErrNotFound))

	var appErr *AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "photo not found with id p1", appErr.Message)
}
