package database

import (
	"errors"
	"slices"
	"sync"

	"github.com/coder/hnsw"
	"gonum.org/v1/gonum/floats"
)

// NeighbourIndex wraps an HNSW graph over one gallery snapshot for ranking
// identities by Euclidean distance. It is a diagnostic aid; recognition
// decisions never go through it.
type NeighbourIndex struct {
	graph   *hnsw.Graph[string]
	records map[string]Embedding // exact float64 embeddings for re-ranking
	dim     int
	mu      sync.RWMutex
}

// NewNeighbourIndex creates a new empty index.
func NewNeighbourIndex() *NeighbourIndex {
	return &NeighbourIndex{
		records: make(map[string]Embedding),
	}
}

func newEuclideanGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = HNSWEfSearch
	g.Distance = hnsw.EuclideanDistance
	return g
}

// Build replaces the index content with the given snapshot.
func (h *NeighbourIndex) Build(g Gallery) error {
	if err := CheckUniform(g); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = make(map[string]Embedding, len(g))
	h.dim = g.Dim()
	if len(g) == 0 {
		h.graph = nil
		return nil
	}

	graph := newEuclideanGraph()
	for _, r := range g {
		graph.Add(hnsw.MakeNode(r.Label, r.Embedding.Float32()))
		h.records[r.Label] = r.Embedding
	}
	h.graph = graph
	return nil
}

// Search returns up to k identities closest to query, nearest first.
// Distances are recomputed in float64 from the stored embeddings.
func (h *NeighbourIndex) Search(query Embedding, k int) ([]Neighbour, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil {
		return nil, errors.New("index not initialized")
	}
	if query.Dim() != h.dim {
		return nil, &DimensionError{Want: h.dim, Got: query.Dim()}
	}
	if k <= 0 {
		return nil, nil
	}

	nodes := h.graph.Search(query.Float32(), k*HNSWSearchMultiplier)

	result := make([]Neighbour, 0, len(nodes))
	for _, n := range nodes {
		emb, ok := h.records[n.Key]
		if !ok {
			continue
		}
		result = append(result, Neighbour{
			Label:    n.Key,
			Distance: floats.Distance(query, emb, 2),
		})
	}

	slices.SortStableFunc(result, func(a, b Neighbour) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return 0
		}
	})
	if len(result) > k {
		result = result[:k]
	}
	return result, nil
}

// Count returns the number of indexed identities.
func (h *NeighbourIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

// IsEmpty returns true if no graph has been built.
func (h *NeighbourIndex) IsEmpty() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.graph == nil
}
