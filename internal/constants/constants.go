// Package constants provides shared constants used across the codebase.
package constants

// Processing constants
const (
	// DefaultConcurrency is the default number of parallel enrollment workers
	DefaultConcurrency = 5

	// DefaultNearestK is the default number of identities listed by nearest-neighbour queries
	DefaultNearestK = 5
)
