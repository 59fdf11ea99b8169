package repositories

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("duplicate")
	// ErrConflict is returned when a concurrent writer kept winning a versioned update.
	ErrConflict = errors.New("concurrent update conflict")
)
