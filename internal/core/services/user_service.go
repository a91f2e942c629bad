package services

import (
	"context"
	"errors"
	"strings"

	"queuecast/internal/core/domain"
	"queuecast/internal/core/ports"
	apperrors "queuecast/pkg/errors"
	"queuecast/pkg/utils"
	"queuecast/pkg/validation"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type userService struct {
	users      ports.UserRepository
	auth       AuthService
	bcryptCost int
	logger     *zap.SugaredLogger
}

// NewUserService handles registration, login and token verification.
// bcryptCost of zero selects bcrypt.DefaultCost. A nil logger disables logging.
func NewUserService(users ports.UserRepository, auth AuthService, bcryptCost int, logger *zap.SugaredLogger) ports.UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &userService{users: users, auth: auth, bcryptCost: bcryptCost, logger: logger}
}

func (s *userService) Register(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	name, email = strings.TrimSpace(name), utils.NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, "", apperrors.NewValidationError("All fields are required")
	}
	if err := validation.ValidateUserName(name); err != nil {
		return nil, "", apperrors.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, "", apperrors.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, "", apperrors.NewValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}

	user := &domain.User{Name: name, Email: email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, "", apperrors.NewConflictError("User already exists")
		}
		return nil, "", apperrors.NewInternalError(err)
	}

	token, err := s.auth.GenerateToken(user.ID)
	if err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}
	s.logger.Infow("user registered", "user_id", user.ID, "email", utils.MaskEmail(email))
	return user, token, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", apperrors.NewValidationError("Please fill all fields")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.logger.Debugw("login for unknown email", "email", utils.MaskEmail(email))
		return nil, "", apperrors.NewNotFoundError("User")
	}
	if err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debugw("login with wrong password", "user_id", user.ID)
		return nil, "", apperrors.NewValidationError("Invalid password")
	}

	token, err := s.auth.GenerateToken(user.ID)
	if err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}
	return user, token, nil
}

func (s *userService) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.auth.ValidateToken(token)
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, apperrors.NewNotFoundError("User")
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}
