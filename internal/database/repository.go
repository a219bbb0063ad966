package database

import (
	"context"
)

// Store is the durable, append-only gallery of enrolled identities.
// Implementations must be safe for concurrent use.
type Store interface {
	// LoadAll reads every record into a fresh snapshot ordered by label.
	LoadAll(ctx context.Context) (Gallery, error)
	// Persist writes one new record. It creates the record only if the label
	// is absent, atomically, and returns a *CollisionError otherwise.
	// A failed Persist leaves no partial record behind.
	Persist(ctx context.Context, label string, embedding Embedding) error
	// Count returns the number of enrolled identities.
	Count(ctx context.Context) (int, error)
	// Close releases any resources held by the store.
	Close() error
}

// NearestFinder is implemented by stores that can rank identities by
// Euclidean distance without loading the whole gallery.
type NearestFinder interface {
	Nearest(ctx context.Context, query Embedding, k int) ([]Neighbour, error)
}
