package facematch

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kozaktomas/face-gallery/internal/database"
)

// FindMatch scans the gallery in order and returns the first record whose
// Euclidean distance to query is at most tolerance. The first candidate
// wins even when a later record is closer.
//
// Every record must have the query's length; a mismatch anywhere in the
// gallery is an error even if an earlier record already matched.
func FindMatch(query database.Embedding, gallery database.Gallery, tolerance float64) (MatchResult, error) {
	if !validTolerance(tolerance) {
		return MatchResult{}, fmt.Errorf("%w: %v", ErrInvalidTolerance, tolerance)
	}
	if len(gallery) == 0 {
		return MatchResult{}, nil
	}
	if err := checkDims(query, gallery); err != nil {
		return MatchResult{}, err
	}

	for _, r := range gallery {
		d := floats.Distance(query, r.Embedding, 2)
		if d <= tolerance {
			return MatchResult{Matched: true, Label: r.Label, Distance: d}, nil
		}
	}
	return MatchResult{}, nil
}

// Distances returns the Euclidean distance from query to every record, in
// gallery order.
func Distances(query database.Embedding, gallery database.Gallery) ([]float64, error) {
	if len(gallery) == 0 {
		return nil, nil
	}
	if err := checkDims(query, gallery); err != nil {
		return nil, err
	}
	out := make([]float64, len(gallery))
	for i, r := range gallery {
		out[i] = floats.Distance(query, r.Embedding, 2)
	}
	return out, nil
}

func checkDims(query database.Embedding, gallery database.Gallery) error {
	for _, r := range gallery {
		if r.Embedding.Dim() != query.Dim() || query.Dim() == 0 {
			return &database.DimensionError{Want: r.Embedding.Dim(), Got: query.Dim()}
		}
	}
	return nil
}

// validTolerance reports whether t is usable as a distance bound. NaN
// compares false against every distance, so it is rejected with negatives.
func validTolerance(t float64) bool {
	return t >= 0 && !math.IsNaN(t)
}
