package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_IsMatchesByCode(t *testing.T) {
	custom := ErrForbidden.WithMessage("You are not allowed to edit this place.")

	assert.True(t, Is(custom, ErrForbidden))
	assert.False(t, Is(custom, ErrNotFound))
	assert.Equal(t, http.StatusForbidden, custom.Status)
	assert.Equal(t, "You are not allowed to perform this action.", ErrForbidden.Message, "sentinel must not be mutated")
}

func TestAPIError_WithCauseUnwraps(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := ErrPersistence.WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, "connection reset", err.Details)
	assert.Empty(t, ErrPersistence.Details)
}

func TestWrap(t *testing.T) {
	t.Run("plain error becomes api error", func(t *testing.T) {
		err := Wrap(stderrors.New("boom"), "UNKNOWN_ERROR", "Unexpected error", http.StatusInternalServerError)
		assert.Equal(t, "UNKNOWN_ERROR", err.Code)
		assert.Equal(t, "boom", err.Details)
	})

	t.Run("api error in chain is kept", func(t *testing.T) {
		wrapped := fmt.Errorf("lookup: %w", ErrNotFound)
		err := Wrap(wrapped, "UNKNOWN_ERROR", "Unexpected error", http.StatusInternalServerError)
		require.NotNil(t, err)
		assert.Equal(t, ErrNotFound.Code, err.Code)
	})
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, StatusOf(ErrConflict))
	assert.Equal(t, http.StatusUnauthorized, StatusOf(fmt.Errorf("wrapped: %w", ErrUnauthorized)))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(stderrors.New("x")))
}
