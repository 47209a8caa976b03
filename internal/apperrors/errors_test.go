package apperrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/SscSPs/session_auth_service/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError_TaxonomyStatusCodes(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{apperrors.ErrInvalidCredentials, http.StatusUnauthorized},
		{apperrors.ErrInvalidExternalToken, http.StatusUnauthorized},
		{apperrors.ErrUnsupportedProvider, http.StatusUnauthorized},
		{apperrors.ErrEmailInUse, http.StatusBadRequest},
		{apperrors.ErrInvalidRefreshToken, http.StatusBadRequest},
		{apperrors.ErrExpiredRefreshToken, http.StatusBadRequest},
		{apperrors.ErrInvalidResetToken, http.StatusBadRequest},
		{apperrors.ErrExpiredResetToken, http.StatusBadRequest},
		{apperrors.ErrInvalidVerificationToken, http.StatusBadRequest},
		{apperrors.ErrRefreshConflict, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("flow failed: %w", tc.err)
			appErr, ok := apperrors.FromError(wrapped)
			require.True(t, ok)
			assert.Equal(t, tc.code, appErr.Code)
			assert.Equal(t, tc.err.Error(), appErr.Message)
			assert.ErrorIs(t, appErr, tc.err)
		})
	}
}

func TestFromError_UnknownErrorIsNotMapped(t *testing.T) {
	appErr, ok := apperrors.FromError(errors.New("connection reset by peer"))
	assert.False(t, ok)
	assert.Nil(t, appErr)
}

func TestFromError_PassesAppErrorThrough(t *testing.T) {
	original := apperrors.NewBadRequestError("Invalid request body")
	appErr, ok := apperrors.FromError(fmt.Errorf("bind: %w", original))
	require.True(t, ok)
	assert.Same(t, original, appErr)
}
