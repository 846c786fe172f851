package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/model"
	"expensetracker/internal/repository"
)

const bcryptCost = 10

// AuthService handles account registration.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, log *zap.Logger) AuthService {
	return &authService{userRepo: userRepo, log: log}
}

// Register creates a user with a bcrypt-hashed password.
// The lookup gives the common case a clean error; the unique index closes the race.
func (s *authService) Register(ctx context.Context, username, password string) (*model.User, error) {
	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil && existing != nil {
		return nil, apperrors.ErrUsernameExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrUsernameExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}
