package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kozaktomas/face-gallery/internal/config"
	"github.com/kozaktomas/face-gallery/internal/database"
	"github.com/kozaktomas/face-gallery/internal/database/mock"
	"github.com/kozaktomas/face-gallery/internal/database/npystore"
	"github.com/kozaktomas/face-gallery/internal/facematch"
)

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"bob.jpg", "alice.PNG", "notes.txt", "carol.jpeg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o750); err != nil {
		t.Fatal(err)
	}

	files, err := listImages(dir)
	if err != nil {
		t.Fatalf("listImages() error: %v", err)
	}
	want := []string{"alice.PNG", "bob.jpg", "carol.jpeg"}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %v", len(want), files)
	}
	for i, f := range files {
		if filepath.Base(f) != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, filepath.Base(f), want[i])
		}
	}
}

func TestImportStats(t *testing.T) {
	s := &importStats{}
	s.record("a.jpg", nil)
	s.record("b.jpg", &facematch.DuplicateError{ExistingLabel: "a"})
	s.record("c.jpg", &database.CollisionError{Label: "c"})
	s.record("d.jpg", facematch.ErrNoFaceDetected)
	s.record("e.jpg", errors.New("boom"))

	if s.enrolled != 1 || s.duplicates != 1 || s.collisions != 1 || s.noFace != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if len(s.failed) != 1 || s.failed[0] != "e.jpg: boom" {
		t.Errorf("unexpected failures: %v", s.failed)
	}
}

func TestTargetConfig(t *testing.T) {
	src := &config.Config{
		Store:    config.StoreConfig{Backend: config.BackendNPY, EncodingsDir: "encodings", BadgerDir: "gallery.db"},
		Database: config.DatabaseConfig{URL: "postgres://src"},
	}

	tests := []struct {
		name    string
		backend string
		path    string
		url     string
		check   func(*config.Config) bool
	}{
		{"npy path", config.BackendNPY, "export", "", func(c *config.Config) bool { return c.Store.EncodingsDir == "export" }},
		{"badger path", config.BackendBadger, "db", "", func(c *config.Config) bool { return c.Store.BadgerDir == "db" }},
		{"postgres url", config.BackendPostgres, "", "postgres://dst", func(c *config.Config) bool { return c.Database.URL == "postgres://dst" }},
		{"postgres keeps url", config.BackendPostgres, "", "", func(c *config.Config) bool { return c.Database.URL == "postgres://src" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := targetConfig(src, tt.backend, tt.path, tt.url)
			if dst.Store.Backend != tt.backend {
				t.Errorf("backend = %q, want %q", dst.Store.Backend, tt.backend)
			}
			if !tt.check(dst) {
				t.Errorf("unexpected target config: %+v", dst)
			}
			if src.Store.EncodingsDir != "encodings" || src.Database.URL != "postgres://src" {
				t.Error("source config was modified")
			}
		})
	}
}

func TestCopyGallery(t *testing.T) {
	ctx := context.Background()
	dst, err := npystore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := dst.Persist(ctx, "bob", database.Embedding{9, 9}); err != nil {
		t.Fatal(err)
	}

	gallery := database.Gallery{
		{Label: "alice", Embedding: database.Embedding{1, 2}},
		{Label: "bob", Embedding: database.Embedding{3, 4}},
		{Label: "carol", Embedding: database.Embedding{5, 6}},
	}

	calls := 0
	copied, skipped, err := copyGallery(ctx, gallery, dst, func() { calls++ })
	if err != nil {
		t.Fatalf("copyGallery() error: %v", err)
	}
	if copied != 2 || skipped != 1 {
		t.Errorf("copied=%d skipped=%d, want 2 and 1", copied, skipped)
	}
	if calls != 3 {
		t.Errorf("expected 3 progress callbacks, got %d", calls)
	}

	loaded, err := dst.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 3 || loaded[1].Embedding[0] != 9 {
		t.Errorf("unexpected target gallery: %+v", loaded)
	}
}

func TestCopyGallery_StopsOnError(t *testing.T) {
	dst := mock.NewMockStore()
	dst.PersistError = database.ErrStorageUnavailable

	gallery := database.Gallery{{Label: "alice", Embedding: database.Embedding{1}}}
	_, _, err := copyGallery(context.Background(), gallery, dst, nil)
	if !errors.Is(err, database.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestNearest_FallsBackToIndex(t *testing.T) {
	store := mock.NewMockStore()
	store.Add("alice", database.Embedding{0, 0})
	store.Add("bob", database.Embedding{1, 0})
	store.Add("carol", database.Embedding{5, 5})

	got, err := nearest(context.Background(), store, database.Embedding{0.9, 0}, 2)
	if err != nil {
		t.Fatalf("nearest() error: %v", err)
	}
	if len(got) != 2 || got[0].Label != "bob" || got[1].Label != "alice" {
		t.Errorf("unexpected ranking: %+v", got)
	}
}

func TestNearest_EmptyGallery(t *testing.T) {
	got, err := nearest(context.Background(), mock.NewMockStore(), database.Embedding{1}, 3)
	if err != nil || got != nil {
		t.Errorf("expected no neighbours and no error, got %v, %v", got, err)
	}
}
