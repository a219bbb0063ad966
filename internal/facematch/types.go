// Package facematch holds the gallery matching logic: the first-match
// engine, enrollment with duplicate detection, and per-face recognition.
package facematch

import "github.com/kozaktomas/face-gallery/internal/database"

// DefaultTolerance is the distance threshold used for recognition and for
// duplicate detection when none is configured.
const DefaultTolerance = 0.6

// MatchResult is the outcome of one gallery lookup.
type MatchResult struct {
	Matched  bool
	Label    string  // empty when Matched is false
	Distance float64 // distance to the matched record, 0 when Matched is false
}

// Detection is one face found by the embedder.
type Detection struct {
	Region    Region
	Embedding database.Embedding
}

// FaceResult is the recognition outcome for one detected face.
type FaceResult struct {
	Region     Region  `json:"location"`
	Recognized bool    `json:"recognized"`
	Label      string  `json:"name,omitempty"`
	Distance   float64 `json:"distance,omitempty"`
}
