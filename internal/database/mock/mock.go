// Package mock provides an in-memory database.Store for testing.
package mock

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/kozaktomas/face-gallery/internal/database"
)

// MockStore is an in-memory implementation of database.Store.
type MockStore struct {
	mu      sync.RWMutex
	records map[string]database.Embedding

	// Error injection
	LoadAllError error
	PersistError error
	CountError   error

	// Call counters
	LoadAllCalls int
	PersistCalls int
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		records: make(map[string]database.Embedding),
	}
}

// Add seeds a record without going through Persist.
func (m *MockStore) Add(label string, embedding database.Embedding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[label] = slices.Clone(embedding)
}

// Has reports whether label is stored.
func (m *MockStore) Has(label string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.records[label]
	return ok
}

// LoadAll returns a copy of every record in label order.
func (m *MockStore) LoadAll(ctx context.Context) (database.Gallery, error) {
	m.mu.Lock()
	m.LoadAllCalls++
	m.mu.Unlock()
	if m.LoadAllError != nil {
		return nil, m.LoadAllError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	gallery := make(database.Gallery, 0, len(m.records))
	for _, label := range slices.Sorted(maps.Keys(m.records)) {
		gallery = append(gallery, database.Record{Label: label, Embedding: slices.Clone(m.records[label])})
	}
	if err := database.CheckUniform(gallery); err != nil {
		return nil, err
	}
	return gallery, nil
}

// Persist stores the record if the label is absent.
func (m *MockStore) Persist(ctx context.Context, label string, embedding database.Embedding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PersistCalls++
	if m.PersistError != nil {
		return m.PersistError
	}
	if err := database.ValidateLabel(label); err != nil {
		return err
	}
	if embedding.Dim() == 0 {
		return &database.DimensionError{Want: 1, Got: 0}
	}
	if _, ok := m.records[label]; ok {
		return &database.CollisionError{Label: label}
	}
	m.records[label] = slices.Clone(embedding)
	return nil
}

// Count returns the number of records.
func (m *MockStore) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

func (m *MockStore) Close() error {
	return nil
}

// Verify interface compliance
var _ database.Store = (*MockStore)(nil)
