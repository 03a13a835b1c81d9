package services

import (
	"errors"
	"fmt"

	"roastme-backend/internal/repository"
)

var (
	// ErrNotFound means the target does not resolve to a visible row.
	// Expired, deactivated and missing content all map here.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized means the caller holds no valid moderation credential
	ErrUnauthorized = errors.New("unauthorized")
	// ErrFeatureDisabled means a platform setting switched the feature off
	ErrFeatureDisabled = errors.New("feature disabled")
)

// ValidationError reports a missing or malformed input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PersistenceError wraps a storage failure. The operation it names had no
// guaranteed effect.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// storeError maps repository errors onto the service taxonomy
func storeError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return &PersistenceError{Op: op, Err: err}
}
