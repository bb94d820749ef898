package service

import (
	"context"
	"fmt"
	"time"

	"cart-service/internal/dto"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (*dto.LoginResponse, error)
}

type authServiceImpl struct {
	userService  UserService
	tokenService TokenService
	tokenTTL     time.Duration
}

func NewAuthService(
	userService UserService,
	tokenService TokenService,
	tokenTTL time.Duration,
) AuthService {
	return &authServiceImpl{
		userService:  userService,
		tokenService: tokenService,
		tokenTTL:     tokenTTL,
	}
}

func (s *authServiceImpl) Login(ctx context.Context, username, password string) (*dto.LoginResponse, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	user, err := s.userService.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, err := s.tokenService.Issue(user.Username, user.Roles, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &dto.LoginResponse{JWT: token}, nil
}
