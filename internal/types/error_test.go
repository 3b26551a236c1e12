package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	wrapped := fmt.Errorf("stake failed: %w", ErrInvalidAmount)
	assert.ErrorIs(t, wrapped, ErrInvalidAmount)
	assert.NotErrorIs(t, wrapped, ErrRestakeTimeBufferNotMet)

	// same code, different message still matches
	other := NewErrorWithMsg(InvalidAmount, "amount %d above balance", 10)
	assert.ErrorIs(t, other, ErrInvalidAmount)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, RestakeTimeBufferNotMet, CodeOf(fmt.Errorf("x: %w", ErrRestakeTimeBufferNotMet)))
	assert.Equal(t, InternalServiceError, CodeOf(errors.New("boom")))
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, InvalidAmount.StatusCode())
	assert.Equal(t, http.StatusBadRequest, RestakeTimeBufferNotMet.StatusCode())
	assert.Equal(t, http.StatusNotFound, AccountNotFound.StatusCode())
	assert.Equal(t, http.StatusUnauthorized, Unauthorized.StatusCode())
	assert.Equal(t, http.StatusInternalServerError, InternalServiceError.StatusCode())
}
