package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("product not found")

	// ErrPersistenceCorrupt marks stored inventory data that cannot be decoded.
	// Load recovers from it by starting with an empty collection: the stored
	// value is a local cache, and losing it is preferred over refusing to start.
	ErrPersistenceCorrupt = errors.New("stored inventory is corrupt")
)

// ValidationError describes the first invalid field of a draft
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any *ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
