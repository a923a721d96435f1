// internal/services/auth_service.go
package services

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/pricepulse/pricepulse-backend/internal/config"
	"github.com/pricepulse/pricepulse-backend/internal/utils"
)

// AuthService issues admin tokens for the management endpoints. The single
// admin credential comes from configuration as a bcrypt hash.
type AuthService struct {
	config *config.Config
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // in hours
}

func NewAuthService(config *config.Config) *AuthService {
	return &AuthService{config: config}
}

func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if s.config.Admin.PasswordHash == "" {
		return nil, errors.New("admin login is not configured")
	}

	if req.Email != s.config.Admin.Email {
		return nil, errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(
		[]byte(s.config.Admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	token, err := utils.GenerateJWT(req.Email, "admin", s.config.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResponse{
		Token:     token,
		ExpiresIn: s.config.JWT.AccessTokenTTL,
	}, nil
}
