// Package npystore keeps the gallery as a directory of NumPy .npy files,
// one file per identity named <label>.npy.
package npystore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/kozaktomas/face-gallery/internal/config"
	"github.com/kozaktomas/face-gallery/internal/database"
)

const (
	fileExt    = ".npy"
	tempPrefix = ".tmp-"
	dirPerm    = 0o750
)

func init() {
	database.RegisterBackend(config.BackendNPY, func(_ context.Context, cfg *config.Config) (database.Store, error) {
		return New(cfg.Store.EncodingsDir)
	})
}

// Store is a directory-backed gallery.
type Store struct {
	root string
}

// New opens the gallery rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("encodings directory is required")
	}
	s := &Store{root: dir}
	if err := s.ensureRoot(); err != nil {
		return nil, err
	}
	return s, nil
}

// Root returns the gallery directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) ensureRoot() error {
	if err := os.MkdirAll(s.root, dirPerm); err != nil {
		return database.Unavailable("creating encodings directory", err)
	}
	return nil
}

func (s *Store) path(label string) string {
	return filepath.Join(s.root, label+fileExt)
}

// recordLabel returns the label stored in a directory entry, or false when
// the entry is not a record (subdirectories, temp files, other extensions).
func recordLabel(entry fs.DirEntry) (string, bool) {
	name := entry.Name()
	if entry.IsDir() || strings.HasPrefix(name, tempPrefix) || !strings.HasSuffix(name, fileExt) {
		return "", false
	}
	label := strings.TrimSuffix(name, fileExt)
	return label, label != ""
}

func (s *Store) readDir() ([]fs.DirEntry, error) {
	if err := s.ensureRoot(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, database.Unavailable("listing encodings directory", err)
	}
	return entries, nil
}

// LoadAll reads every .npy record in the directory.
func (s *Store) LoadAll(ctx context.Context) (database.Gallery, error) {
	entries, err := s.readDir()
	if err != nil {
		return nil, err
	}

	gallery := make(database.Gallery, 0, len(entries))
	for _, entry := range entries {
		label, ok := recordLabel(entry)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := s.readRecord(label)
		if err != nil {
			return nil, err
		}
		gallery = append(gallery, database.Record{Label: label, Embedding: emb})
	}

	database.SortByLabel(gallery)
	if err := database.CheckUniform(gallery); err != nil {
		return nil, err
	}
	return gallery, nil
}

func (s *Store) readRecord(label string) (database.Embedding, error) {
	f, err := os.Open(s.path(label))
	if err != nil {
		return nil, database.Unavailable(fmt.Sprintf("opening record %q", label), err)
	}
	defer f.Close()

	emb, err := database.DecodeNPY(f)
	if err != nil {
		return nil, database.Corrupt(label, err)
	}
	return emb, nil
}

// Persist writes the record to a temp file and hard-links it into place.
// The link fails if <label>.npy already exists, which makes the
// existence check and the write a single atomic step.
func (s *Store) Persist(ctx context.Context, label string, embedding database.Embedding) error {
	if err := database.ValidateLabel(label); err != nil {
		return err
	}
	if embedding.Dim() == 0 {
		return &database.DimensionError{Want: 1, Got: 0}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureRoot(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, tempPrefix+"*")
	if err != nil {
		return database.Unavailable("creating temp record", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := database.EncodeNPY(tmp, embedding); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return database.Unavailable("syncing temp record", err)
	}
	if err := tmp.Close(); err != nil {
		return database.Unavailable("closing temp record", err)
	}

	if err := os.Link(tmpPath, s.path(label)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return &database.CollisionError{Label: label}
		}
		if errors.Is(err, syscall.ENAMETOOLONG) {
			return fmt.Errorf("%w: %q is too long for this filesystem", database.ErrInvalidLabel, label)
		}
		return database.Unavailable(fmt.Sprintf("publishing record %q", label), err)
	}

	s.syncRoot()
	return nil
}

// syncRoot flushes the directory entry of a new record (best-effort).
func (s *Store) syncRoot() {
	d, err := os.Open(s.root)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

// Count returns the number of .npy records in the directory.
func (s *Store) Count(_ context.Context) (int, error) {
	entries, err := s.readDir()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, entry := range entries {
		if _, ok := recordLabel(entry); ok {
			n++
		}
	}
	return n, nil
}

// Close is a no-op; the store holds no open handles.
func (s *Store) Close() error {
	return nil
}
