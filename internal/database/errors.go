package database

import (
	"errors"
	"fmt"
)

// Storage and vector errors. Callers match them with errors.Is.
var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStorageCorrupt     = errors.New("storage corrupt")
	ErrLabelCollision     = errors.New("label collision")
	ErrDimensionMismatch  = errors.New("dimension mismatch")
	ErrInvalidLabel       = errors.New("invalid label")
)

// CollisionError reports an attempt to persist a label that already exists.
type CollisionError struct {
	Label string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("label collision: %q is already enrolled", e.Label)
}

func (e *CollisionError) Is(target error) bool {
	return target == ErrLabelCollision
}

// DimensionError reports an embedding whose length does not match the gallery.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension mismatch: want %d components, got %d", e.Want, e.Got)
}

func (e *DimensionError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// Unavailable wraps err as ErrStorageUnavailable with the failing operation.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}

// Corrupt wraps err as ErrStorageCorrupt for the record with the given label.
func Corrupt(label string, err error) error {
	return fmt.Errorf("%w: record %q: %w", ErrStorageCorrupt, label, err)
}
