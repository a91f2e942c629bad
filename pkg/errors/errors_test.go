package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := NewAppError(ErrCodeValidation, "test error", 400)
	assert.Equal(t, "VALIDATION_ERROR: test error", err.Error())
}

func TestAppError_WithCause(t *testing.T) {
	originalErr := errors.New("original error")
	err := WrapError(originalErr, ErrCodeInternal, "wrapped error", 500)

	assert.Equal(t, originalErr, err.Cause)
	assert.Contains(t, err.Error(), "original error")
	assert.ErrorIs(t, err, originalErr)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewValidationError("test error")
	err.WithContext("field", "value").WithContext("count", 42)

	assert.Equal(t, "value", err.Context["field"])
	assert.Equal(t, 42, err.Context["count"])
}

func TestConstructors_StatusMapping(t *testing.T) {
	cases := []struct {
		err    *AppError
		code   ErrorCode
		status int
	}{
		{NewValidationError("Name is required"), ErrCodeValidation, http.StatusBadRequest},
		{NewNotFoundError("Queue"), ErrCodeNotFound, http.StatusBadRequest},
		{NewForbiddenError("nope"), ErrCodeForbidden, http.StatusBadRequest},
		{NewProtocolError("bad frame"), ErrCodeProtocol, http.StatusBadRequest},
		{NewConflictError("User already exists"), ErrCodeConflict, http.StatusBadRequest},
		{NewAuthError("Not authorized"), ErrCodeAuth, http.StatusUnauthorized},
		{NewRateLimitError(), ErrCodeRateLimit, http.StatusTooManyRequests},
		{NewInternalError(errors.New("db down")), ErrCodeInternal, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			assert.Equal(t, tc.code, tc.err.Code)
			assert.Equal(t, tc.status, tc.err.HTTPStatus)
		})
	}
}

func TestNewNotFoundError_Message(t *testing.T) {
	assert.Equal(t, "Queue not found", NewNotFoundError("Queue").Message)
}

func TestNewInternalError_HidesCause(t *testing.T) {
	err := NewInternalError(errors.New("connection refused"))
	assert.Equal(t, "Internal server error", err.Message)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGetAppError(t *testing.T) {
	appErr := NewValidationError("test")

	assert.Same(t, appErr, GetAppError(appErr))

	wrapped := fmt.Errorf("handler: %w", appErr)
	require.NotNil(t, GetAppError(wrapped))
	assert.Same(t, appErr, GetAppError(wrapped))

	assert.Nil(t, GetAppError(errors.New("regular error")))
	assert.Nil(t, GetAppError(nil))
}

func TestIsAppErrorAndIsCode(t *testing.T) {
	forbidden := fmt.Errorf("op: %w", NewForbiddenError("no"))

	assert.True(t, IsAppError(forbidden))
	assert.False(t, IsAppError(errors.New("plain")))
	assert.True(t, IsCode(forbidden, ErrCodeForbidden))
	assert.False(t, IsCode(forbidden, ErrCodeNotFound))
	assert.False(t, IsCode(nil, ErrCodeNotFound))
}
