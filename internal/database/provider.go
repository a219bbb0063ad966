package database

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/kozaktomas/face-gallery/internal/config"
)

// Opener constructs a Store from configuration.
type Opener func(ctx context.Context, cfg *config.Config) (Store, error)

var (
	backends   = make(map[string]Opener)
	backendsMu sync.RWMutex
)

// RegisterBackend makes a storage backend available under name.
// Backend packages call it from init, so importing them is enough to enable them.
func RegisterBackend(name string, open Opener) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if open == nil {
		panic("database: RegisterBackend opener is nil")
	}
	if _, dup := backends[name]; dup {
		panic("database: RegisterBackend called twice for backend " + name)
	}
	backends[name] = open
}

// Backends returns the sorted names of all registered backends.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Open opens the backend selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	backendsMu.RLock()
	open, ok := backends[cfg.Store.Backend]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store backend %q not registered (available: %v)", cfg.Store.Backend, Backends())
	}
	store, err := open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}
	return store, nil
}
