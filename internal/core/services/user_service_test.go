package services

import (
	"context"
	"testing"
	"time"

	"queuecast/internal/infrastructure/repositories/memory"
	apperrors "queuecast/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService() (*userService, AuthService) {
	auth := NewAuthService("secret", time.Hour)
	return NewUserService(memory.NewMemoryUserRepository(), auth, bcrypt.MinCost, nil).(*userService), auth
}

func TestUserService_RegisterLoginVerify(t *testing.T) {
	svc, auth := newUserService()
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "Ada", "Ada@Example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEqual(t, "hunter22", user.PasswordHash)
	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	loggedIn, token, err := svc.Login(ctx, "ada@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	verified, err := svc.VerifyToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "Ada", verified.Name)
}

func TestUserService_RegisterErrors(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "", "a@b.co", "secret1")
	assertCode(t, err, apperrors.ErrCodeValidation)
	assert.Equal(t, "All fields are required", apperrors.GetAppError(err).Message)

	_, _, err = svc.Register(ctx, "A", "not-an-email", "secret1")
	assertCode(t, err, apperrors.ErrCodeValidation)

	_, _, err = svc.Register(ctx, "A", "a@b.co", "short")
	assertCode(t, err, apperrors.ErrCodeValidation)

	_, _, err = svc.Register(ctx, "A", "a@b.co", "secret1")
	require.NoError(t, err)
	_, _, err = svc.Register(ctx, "B", "A@B.CO", "secret2")
	assertCode(t, err, apperrors.ErrCodeConflict)
	assert.Equal(t, "User already exists", apperrors.GetAppError(err).Message)
}

func TestUserService_LoginErrors(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()
	_, _, err := svc.Register(ctx, "Ada", "ada@example.com", "hunter22")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "", "x")
	assert.Equal(t, "Please fill all fields", apperrors.GetAppError(err).Message)

	_, _, err = svc.Login(ctx, "nobody@example.com", "hunter22")
	assert.Equal(t, "User not found", apperrors.GetAppError(err).Message)

	_, _, err = svc.Login(ctx, "ada@example.com", "wrong-password")
	assert.Equal(t, "Invalid password", apperrors.GetAppError(err).Message)
}

func TestUserService_VerifyTokenErrors(t *testing.T) {
	svc, auth := newUserService()
	ctx := context.Background()

	_, err := svc.VerifyToken(ctx, "garbage")
	assertCode(t, err, apperrors.ErrCodeValidation)

	orphan, err := auth.GenerateToken(777)
	require.NoError(t, err)
	_, err = svc.VerifyToken(ctx, orphan)
	assertCode(t, err, apperrors.ErrCodeNotFound)
}
