package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the row is absent or belongs to another session.
	ErrNotFound = errors.New("record not found")
	// ErrNotActivated indicates a write without a known, activated session.
	ErrNotActivated = errors.New("session not activated")
	// ErrUnavailable marks a failure of the underlying database.
	ErrUnavailable = errors.New("storage unavailable")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
