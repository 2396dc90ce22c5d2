package repository

import (
	"context"
	"errors"
	"fmt"

	"shortlink/internal/domain"
)

// MappingStore is the persistence contract for short code mappings.
// Every backend (postgres, sqlite, redis, memory) satisfies it and the
// service depends only on this interface.
type MappingStore interface {
	// Save inserts a new mapping. It returns an error matching ErrConflict when
	// the short code is already taken (the stored mapping is left untouched)
	// and one matching ErrBackend for any other failure.
	Save(ctx context.Context, mapping domain.URLMapping) error

	// Find looks a short code up. found is false when no mapping exists;
	// that is not an error. Failures match ErrBackend.
	Find(ctx context.Context, shortCode string) (mapping domain.URLMapping, found bool, err error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}

var (
	// ErrConflict is returned by Save when the short code already exists.
	ErrConflict = errors.New("short code already exists")

	// ErrBackend matches every *BackendError.
	ErrBackend = errors.New("storage backend failure")
)

// BackendError wraps a driver error from a store operation.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrBackend) true for any BackendError.
func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}

// Backend wraps err as a *BackendError for operation op.
func Backend(op string, err error) error {
	return &BackendError{Op: op, Err: err}
}

// Conflict reports a duplicate short code for operation op.
func Conflict(op, shortCode string) error {
	return fmt.Errorf("%s %q: %w", op, shortCode, ErrConflict)
}
