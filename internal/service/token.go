package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const rolePrefix = "ROLE_"

type Principal struct {
	Username  string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenService interface {
	Issue(subject string, roles []string, ttl time.Duration) (string, error)
	// Validate never returns claims alongside an error.
	Validate(ctx context.Context, token string) (*Principal, error)
}

type tokenClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

type tokenServiceImpl struct {
	key       []byte
	directory PrincipalDirectory
	now       func() time.Time
}

func NewTokenService(secret string, directory PrincipalDirectory) TokenService {
	return &tokenServiceImpl{
		key:       []byte(secret),
		directory: directory,
		now:       time.Now,
	}
}

func (s *tokenServiceImpl) Issue(subject string, roles []string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidInput)
	}

	now := s.now()
	claims := tokenClaims{
		Roles: canonicalRoles(roles),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

func (s *tokenServiceImpl) Validate(ctx context.Context, token string) (*Principal, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	stored, err := s.directory.Roles(ctx, claims.Subject)
	if errors.Is(err, ErrPrincipalNotFound) {
		return nil, fmt.Errorf("%w: unknown subject", ErrTokenInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve principal: %w", err)
	}

	roles := canonicalRoles(claims.Roles)
	if !overlaps(roles, canonicalRoles(stored)) {
		return nil, fmt.Errorf("%w: no role held by subject", ErrTokenInvalid)
	}

	principal := &Principal{
		Username:  claims.Subject,
		Roles:     roles,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		principal.IssuedAt = claims.IssuedAt.Time
	}

	return principal, nil
}

// HasRole reports whether the principal holds role, with or without the ROLE_ prefix.
func (p *Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, canonicalRole(role))
}

func canonicalRole(role string) string {
	return strings.TrimPrefix(strings.TrimSpace(role), rolePrefix)
}

func canonicalRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		c := canonicalRole(r)
		if c == "" || slices.Contains(out, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func overlaps(a, b []string) bool {
	for _, r := range a {
		if slices.Contains(b, r) {
			return true
		}
	}
	return false
}
