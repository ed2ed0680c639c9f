package repository

import "errors"

var (
	// ErrNotFound is returned when no record matches the given id, name or path.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate key")
	// ErrInvalidField is returned when a field is used with the wrong kind of
	// lookup (a range over a textual field, an exact-text match over a numeric one).
	ErrInvalidField = errors.New("invalid field for operation")
	// ErrUnavailable is returned when the underlying store is unreachable.
	ErrUnavailable = errors.New("storage unavailable")
)
