package services

import (
	"errors"
	"fmt"
)

var (
	// ErrCatalogUnavailable means the service was given no catalog
	// snapshot to work with.
	ErrCatalogUnavailable = errors.New("catalog not loaded")

	// ErrLikedNotFound means the preference log references liked food
	// ids that do not exist in the catalog snapshot, so no liked
	// profile can be built.
	ErrLikedNotFound = errors.New("liked items not found in catalog")
)

// CallerError reports invalid input supplied by the caller. Callers are
// expected to supply defaults before invoking the engine rather than
// have it guess one.
type CallerError struct {
	Field string
	Value any
}

func (e *CallerError) Error() string {
	return fmt.Sprintf("invalid value %v for field %q", e.Value, e.Field)
}
