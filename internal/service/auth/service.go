package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/repository"
	"github.com/eventops/backoffice-api/pkg/auth"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const bcryptCost = 12

// Service authenticates back-office admins. Only admin accounts may log
// in; supplier/client users exist for delivery targeting, not access.
type Service struct {
	userRepo repository.UserRepository
	jwtSvc   auth.JWTService
}

func NewService(userRepo repository.UserRepository, jwtSvc auth.JWTService) *Service {
	return &Service{
		userRepo: userRepo,
		jwtSvc:   jwtSvc,
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsAdmin || user.Status != model.UserStatusActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update login timestamp: %w", err)
	}

	token, expiresAt, err := s.jwtSvc.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	user.PasswordHash = ""
	return &model.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

func (s *Service) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

// HashPassword produces the stored bcrypt hash for a new or changed
// password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
