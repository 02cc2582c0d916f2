package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"not found", NotFound("cart not found"), ErrNotFound},
		{"invalid state", InvalidState("cart is empty"), ErrInvalidState},
		{"validation", Validation("quantity must be positive"), ErrValidation},
		{"conflict", Conflict("SKU already exists"), ErrConflict},
		{"unauthorized", Unauthorized("invalid email or password"), ErrUnauthorized},
		{"forbidden", Forbidden("order does not belong to user"), ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)

			wrapped := fmt.Errorf("service: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.kind)

			msg, ok := Message(wrapped)
			assert.True(t, ok)
			assert.Equal(t, tt.err.Error(), msg)
		})
	}
}

func TestMessageOnPlainError(t *testing.T) {
	_, ok := Message(errors.New("boom"))
	assert.False(t, ok)
}

func TestFormatting(t *testing.T) {
	err := NotFound("order %d not found", 42)
	assert.Equal(t, "order 42 not found", err.Error())
	assert.False(t, errors.Is(err, ErrConflict))
}
