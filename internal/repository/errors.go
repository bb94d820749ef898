package repository

import "errors"

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional write finds a version other
	// than the one the caller read. Nothing is written.
	ErrConflict = errors.New("version conflict")
	// ErrInvalidQuantity guards the quantity >= 1 invariant on stored items.
	ErrInvalidQuantity = errors.New("item quantity must be positive")
)
