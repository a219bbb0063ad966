package facematch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kozaktomas/face-gallery/internal/database"
)

// Recognizer matches detected faces against one gallery snapshot per call.
type Recognizer struct {
	store     database.Store
	tolerance float64
	logger    *slog.Logger
}

// NewRecognizer creates a Recognizer using the given match tolerance.
func NewRecognizer(store database.Store, tolerance float64, logger *slog.Logger) *Recognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{store: store, tolerance: tolerance, logger: logger}
}

// Gallery loads a snapshot and fails with ErrEmptyGallery when nothing is
// enrolled.
func (r *Recognizer) Gallery(ctx context.Context) (database.Gallery, error) {
	gallery, err := r.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading gallery: %w", err)
	}
	if len(gallery) == 0 {
		return nil, ErrEmptyGallery
	}
	return gallery, nil
}

// Recognize returns one result per detection, in input order.
func (r *Recognizer) Recognize(ctx context.Context, faces []Detection) ([]FaceResult, error) {
	gallery, err := r.Gallery(ctx)
	if err != nil {
		return nil, err
	}
	return r.RecognizeIn(gallery, faces)
}

// RecognizeIn matches faces against an already loaded snapshot.
func (r *Recognizer) RecognizeIn(gallery database.Gallery, faces []Detection) ([]FaceResult, error) {
	results := make([]FaceResult, 0, len(faces))
	for i, face := range faces {
		match, err := FindMatch(face.Embedding, gallery, r.tolerance)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		results = append(results, FaceResult{
			Region:     face.Region,
			Recognized: match.Matched,
			Label:      match.Label,
			Distance:   match.Distance,
		})
	}

	r.logger.Debug("faces recognized", "faces", len(faces), "gallery_size", len(gallery))
	return results, nil
}
