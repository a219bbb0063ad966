package database

import (
	"fmt"
	"slices"
	"strings"
)

// Embedding is a fixed-length face feature vector produced by the embedder.
type Embedding []float64

// Dim returns the number of components.
func (e Embedding) Dim() int {
	return len(e)
}

// Float32 returns a float32 copy for libraries that index single precision vectors.
func (e Embedding) Float32() []float32 {
	out := make([]float32, len(e))
	for i, v := range e {
		out[i] = float32(v)
	}
	return out
}

// Record is one enrolled identity.
type Record struct {
	Label     string
	Embedding Embedding
}

// Gallery is a snapshot of every enrolled identity, ordered by label.
type Gallery []Record

// Labels returns the labels in gallery order.
func (g Gallery) Labels() []string {
	labels := make([]string, len(g))
	for i := range g {
		labels[i] = g[i].Label
	}
	return labels
}

// Dim returns the shared embedding length, or 0 for an empty gallery.
func (g Gallery) Dim() int {
	if len(g) == 0 {
		return 0
	}
	return g[0].Embedding.Dim()
}

// SortByLabel orders the gallery by label (byte-wise), the iteration order
// every backend exposes.
func SortByLabel(g Gallery) {
	slices.SortFunc(g, func(a, b Record) int {
		return strings.Compare(a.Label, b.Label)
	})
}

// CheckUniform verifies that every record holds a non-empty embedding of the
// same length. Backends call it before handing a snapshot out.
func CheckUniform(g Gallery) error {
	if len(g) == 0 {
		return nil
	}
	dim := g[0].Embedding.Dim()
	for _, r := range g {
		if r.Embedding.Dim() == 0 {
			return fmt.Errorf("%w: record %q has an empty embedding", ErrStorageCorrupt, r.Label)
		}
		if r.Embedding.Dim() != dim {
			return fmt.Errorf("%w: record %q has %d components, gallery has %d",
				ErrStorageCorrupt, r.Label, r.Embedding.Dim(), dim)
		}
	}
	return nil
}

// MaxLabelBytes caps label length so every backend can store it; with the
// ".npy" suffix it stays under the usual 255-byte file name limit.
const MaxLabelBytes = 200

// ValidateLabel rejects labels that cannot be used as a storage key: empty
// or over-long labels, path separators, NUL bytes, and a leading dot.
func ValidateLabel(label string) error {
	switch {
	case label == "":
		return fmt.Errorf("%w: empty", ErrInvalidLabel)
	case len(label) > MaxLabelBytes:
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrInvalidLabel, len(label), MaxLabelBytes)
	case strings.HasPrefix(label, "."):
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidLabel, label)
	case strings.ContainsAny(label, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator or NUL", ErrInvalidLabel, label)
	}
	return nil
}

// Neighbour is a gallery entry ranked by distance to a query.
type Neighbour struct {
	Label    string
	Distance float64
}
