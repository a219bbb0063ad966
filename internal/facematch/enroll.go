package facematch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-gallery/internal/database"
)

// Enroller adds new identities to the gallery after checking that the face
// is not already enrolled.
//
// The duplicate check and the write are not one atomic step: two concurrent
// enrollments of the same face under different labels can both succeed.
// Concurrent writers of the same label are resolved by the store.
type Enroller struct {
	store     database.Store
	tolerance float64
	logger    *slog.Logger
}

// NewEnroller creates an Enroller that treats any record within tolerance
// of the new face as a duplicate.
func NewEnroller(store database.Store, tolerance float64, logger *slog.Logger) *Enroller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enroller{store: store, tolerance: tolerance, logger: logger}
}

// Enroll stores embedding under label and returns the label used. An empty
// label is replaced by a random UUID.
func (e *Enroller) Enroll(ctx context.Context, embedding database.Embedding, label string) (string, error) {
	if embedding.Dim() == 0 {
		return "", &database.DimensionError{Want: 1, Got: 0}
	}

	gallery, err := e.store.LoadAll(ctx)
	if err != nil {
		return "", fmt.Errorf("loading gallery: %w", err)
	}

	match, err := FindMatch(embedding, gallery, e.tolerance)
	if err != nil {
		return "", err
	}
	if match.Matched {
		e.logger.Info("duplicate enrollment rejected",
			"existing_label", match.Label, "distance", match.Distance)
		return "", &DuplicateError{ExistingLabel: match.Label, Distance: match.Distance}
	}

	if label == "" {
		label = uuid.NewString()
	}
	if err := e.store.Persist(ctx, label, embedding); err != nil {
		return "", err
	}

	e.logger.Info("identity enrolled", "label", label, "gallery_size", len(gallery)+1)
	return label, nil
}
