package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappersPreserveChain(t *testing.T) {
	base := errors.New("connection reset")

	retryable := NewRetryable(base, "publish %s", "call.completed")
	assert.True(t, IsRetryable(retryable))
	assert.False(t, IsFatal(retryable))
	assert.ErrorIs(t, retryable, base)
	assert.Contains(t, retryable.Error(), "publish call.completed")

	fatal := NewFatal(ErrMalformedPayload, "decode envelope")
	assert.True(t, IsFatal(fatal))
	assert.True(t, IsBadRequestError(fatal))
}

func TestSignatureErrorsAreUnauthorized(t *testing.T) {
	assert.True(t, IsUnauthorizedError(ErrMissingSignature))
	assert.True(t, IsUnauthorizedError(ErrInvalidSignature))
	assert.False(t, IsUnauthorizedError(ErrMisconfigured))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"missing signature", ErrMissingSignature, http.StatusUnauthorized},
		{"invalid signature", fmt.Errorf("gate: %w", ErrInvalidSignature), http.StatusUnauthorized},
		{"misconfigured", ErrMisconfigured, http.StatusInternalServerError},
		{"malformed", ErrMalformedPayload, http.StatusBadRequest},
		{"validation", fmt.Errorf("%w: status missing", ErrValidation), http.StatusBadRequest},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"database", fmt.Errorf("%w: boom", ErrDatabase), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
