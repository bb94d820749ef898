package service

import (
	"context"
	"errors"
	"fmt"

	"cart-service/internal/model"
	"cart-service/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// PrincipalDirectory resolves a token subject to the roles it currently holds.
type PrincipalDirectory interface {
	Roles(ctx context.Context, username string) ([]string, error)
}

type UserService interface {
	PrincipalDirectory
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
	Register(ctx context.Context, username, password string, roles []string) (*model.User, error)
	SeedDemoUsers(ctx context.Context) error
}

type userServiceImpl struct {
	userRepo repository.UserRepository
}

func NewUserService(
	userRepo repository.UserRepository,
) UserService {
	return &userServiceImpl{
		userRepo: userRepo,
	}
}

func (s *userServiceImpl) Roles(ctx context.Context, username string) ([]string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPrincipalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	return user.Roles, nil
}

func (s *userServiceImpl) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *userServiceImpl) Register(ctx context.Context, username, password string, roles []string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username: username,
		Password: string(hash),
		Roles:    roles,
	}
	err = s.userRepo.Create(ctx, user)
	if errors.Is(err, repository.ErrConflict) {
		return nil, fmt.Errorf("%w: %s", ErrUsernameTaken, username)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// SeedDemoUsers registers the demo accounts that do not exist yet.
// Every account's password is "password".
func (s *userServiceImpl) SeedDemoUsers(ctx context.Context) error {
	demo := []struct {
		username string
		roles    []string
	}{
		{"alice", []string{"USER"}},
		{"bob", []string{"ROLE_USER"}},
		{"admin", []string{"USER", "ADMIN"}},
	}

	for _, u := range demo {
		_, err := s.userRepo.FindByUsername(ctx, u.username)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("find user: %w", err)
		}

		_, err = s.Register(ctx, u.username, "password", u.roles)
		if err != nil && !errors.Is(err, ErrUsernameTaken) {
			return fmt.Errorf("seed user %s: %w", u.username, err)
		}
	}

	return nil
}
