package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/kozaktomas/face-gallery/internal/config"
	"github.com/kozaktomas/face-gallery/internal/database"
	"github.com/kozaktomas/face-gallery/internal/embedder"
	"github.com/kozaktomas/face-gallery/internal/facematch"

	// Storage backends register themselves with the database package.
	_ "github.com/kozaktomas/face-gallery/internal/database/badgerstore"
	_ "github.com/kozaktomas/face-gallery/internal/database/npystore"
	_ "github.com/kozaktomas/face-gallery/internal/database/postgres"
)

// app bundles what every gallery command needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    database.Store
	embedder facematch.Embedder
	service  *facematch.Service
}

func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
}

// openStore validates cfg and opens the configured gallery backend.
func openStore(ctx context.Context, cfg *config.Config) (database.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return database.Open(ctx, cfg)
}

// newApp loads configuration, opens the store and wires the service.
func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	logger := newLogger(cfg)

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, store: store, embedder: embedder.FromConfig(&cfg.Embedder)}
	a.service, err = a.newService(cfg.Matching.Tolerance)
	if err != nil {
		store.Close()
		return nil, err
	}

	logger.Debug("gallery opened", "backend", cfg.Store.Backend)
	return a, nil
}

// newService builds a service with the given recognition tolerance and the
// configured duplicate tolerance.
func (a *app) newService(tolerance float64) (*facematch.Service, error) {
	return facematch.NewService(a.store, a.embedder, facematch.ServiceConfig{
		Tolerance:          tolerance,
		DuplicateTolerance: a.cfg.Matching.DuplicateTolerance,
	}, a.logger)
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store", "error", err)
	}
}

func readImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return data, nil
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
