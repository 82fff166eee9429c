package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"validation", NewValidationError("bad", nil), http.StatusBadRequest},
		{"bad request", NewBadRequestError("bad", nil), http.StatusBadRequest},
		{"auth", NewAuthError("nope", nil), http.StatusUnauthorized},
		{"not found", NewNotFoundError("gone", nil), http.StatusNotFound},
		{"conflict", NewConflictError("taken", nil), http.StatusConflict},
		{"database", NewDatabaseError("db", nil), http.StatusInternalServerError},
		{"config", NewConfigError("cfg", nil), http.StatusInternalServerError},
		{"internal", NewInternalError("oops", nil), http.StatusInternalServerError},
		{"migration", NewMigrationError("mig", nil), http.StatusInternalServerError},
		{"unknown", NewAppError(UnknownError, "?", nil), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.StatusCode())
		})
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewDatabaseError("failed to get user", cause)

	assert.Equal(t, "failed to get user: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "plain", NewValidationError("plain", nil).Error())
}

func TestAppError_ToResponseHidesCause(t *testing.T) {
	err := NewDatabaseError("failed to create user", errors.New("pq: secret detail"))

	resp := err.ToResponse()
	assert.Equal(t, "failed to create user", resp.Error)
}

func TestFromError(t *testing.T) {
	_, ok := FromError(nil)
	assert.False(t, ok)

	_, ok = FromError(errors.New("plain"))
	assert.False(t, ok)

	wrapped := fmt.Errorf("context: %w", NewConflictError("username already exists", nil))
	ae, ok := FromError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ConflictError, ae.Type)
}

func TestIsHelpers(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewAuthError("invalid credentials", nil))

	assert.True(t, IsAuthError(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.True(t, IsNotFound(NewNotFoundError("x", nil)))
	assert.True(t, IsValidationError(NewValidationError("x", nil)))
	assert.True(t, IsConflictError(NewConflictError("x", nil)))
	assert.True(t, IsDatabaseError(NewDatabaseError("x", nil)))
	assert.False(t, IsConflictError(errors.New("x")))
}

func TestErrorType_String(t *testing.T) {
	assert.Equal(t, "conflict", ConflictError.String())
	assert.Equal(t, "auth", AuthError.String())
	assert.Equal(t, "unknown", ErrorType(99).String())
}
