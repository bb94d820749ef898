package service

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrTokenExpired and ErrTokenInvalid are both ErrUnauthenticated but stay
	// distinguishable so callers can report why a token was refused.
	ErrTokenExpired       = fmt.Errorf("%w: token expired", ErrUnauthenticated)
	ErrTokenInvalid       = fmt.Errorf("%w: token invalid", ErrUnauthenticated)
	ErrInvalidCredentials = fmt.Errorf("%w: incorrect username or password", ErrUnauthenticated)

	ErrForbidden              = errors.New("forbidden")
	ErrItemNotFound           = errors.New("item not found")
	ErrCartNotFound           = errors.New("cart not found")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrInvalidInput           = errors.New("invalid input")
	ErrPrincipalNotFound      = errors.New("principal not found")
	ErrUsernameTaken          = fmt.Errorf("%w: username is taken", ErrInvalidInput)
	// ErrQuantityLimit is returned when one more add would overflow the stored quantity.
	ErrQuantityLimit = errors.New("item quantity limit reached")
)
