package facematch

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyGallery      = errors.New("no identities enrolled")
	ErrNoFaceDetected    = errors.New("no face detected")
	ErrDuplicateIdentity = errors.New("face already enrolled")
	ErrInvalidTolerance  = errors.New("tolerance must be non-negative")
	ErrImageDecode       = errors.New("image could not be decoded")
)

// DuplicateError reports an enrollment whose face already matches an
// enrolled identity.
type DuplicateError struct {
	ExistingLabel string
	Distance      float64
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("face already enrolled as %q (distance %.4f)", e.ExistingLabel, e.Distance)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicateIdentity
}
