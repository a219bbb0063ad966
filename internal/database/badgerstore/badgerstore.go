// Package badgerstore keeps the gallery in an embedded BadgerDB, one key per
// identity. Values are the same .npy payload the directory backend writes.
package badgerstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/kozaktomas/face-gallery/internal/config"
	"github.com/kozaktomas/face-gallery/internal/database"
)

var keyPrefix = []byte("identity/")

func init() {
	database.RegisterBackend(config.BackendBadger, func(_ context.Context, cfg *config.Config) (database.Store, error) {
		return New(Options{Dir: cfg.Store.BadgerDir})
	})
}

// Options configures the BadgerDB store.
type Options struct {
	// Dir is the directory for BadgerDB data files. Required unless InMemory.
	Dir string

	// InMemory runs BadgerDB without disk persistence (tests).
	InMemory bool

	// Logger sets the badger logger. Nil uses a logger that only reports
	// warnings and errors.
	Logger badger.Logger
}

// Store is a BadgerDB-backed gallery.
type Store struct {
	db *badger.DB
}

// New opens (or creates) the database.
func New(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("badger directory is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	if opts.Logger != nil {
		dbOpts = dbOpts.WithLogger(opts.Logger)
	} else {
		dbOpts = dbOpts.WithLogger(defaultLogger{})
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, database.Unavailable("opening badger", err)
	}
	return &Store{db: db}, nil
}

func recordKey(label string) []byte {
	k := make([]byte, 0, len(keyPrefix)+len(label))
	k = append(k, keyPrefix...)
	return append(k, label...)
}

// LoadAll iterates the identity keys. Badger iterates keys in byte order,
// which is the gallery order.
func (s *Store) LoadAll(ctx context.Context) (database.Gallery, error) {
	var gallery database.Gallery
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			label := string(item.Key()[len(keyPrefix):])

			val, err := item.ValueCopy(nil)
			if err != nil {
				return database.Unavailable(fmt.Sprintf("reading record %q", label), err)
			}
			emb, err := database.DecodeNPY(bytes.NewReader(val))
			if err != nil {
				return database.Corrupt(label, err)
			}
			gallery = append(gallery, database.Record{Label: label, Embedding: emb})
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, database.ErrStorageCorrupt) || errors.Is(err, database.ErrStorageUnavailable) ||
			errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, database.Unavailable("iterating records", err)
	}

	database.SortByLabel(gallery)
	if err := database.CheckUniform(gallery); err != nil {
		return nil, err
	}
	return gallery, nil
}

// Persist stores the record if its key is absent. The existence check and
// the write share one transaction; a concurrent writer of the same key makes
// the commit fail with ErrConflict, which is reported as a collision.
func (s *Store) Persist(ctx context.Context, label string, embedding database.Embedding) error {
	if err := database.ValidateLabel(label); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := database.EncodeNPY(&buf, embedding); err != nil {
		return err
	}

	key := recordKey(label)
	errExists := errors.New("exists")
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		switch {
		case err == nil:
			return errExists
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.Set(key, buf.Bytes())
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errExists), errors.Is(err, badger.ErrConflict):
		return &database.CollisionError{Label: label}
	default:
		return database.Unavailable(fmt.Sprintf("writing record %q", label), err)
	}
}

// Count returns the number of identity keys.
func (s *Store) Count(_ context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, database.Unavailable("counting records", err)
	}
	return n, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// defaultLogger forwards badger warnings and errors to the standard logger
// and drops info and debug output.
type defaultLogger struct{}

func (defaultLogger) Errorf(f string, v ...interface{})   { log.Printf("[badger] ERROR: "+f, v...) }
func (defaultLogger) Warningf(f string, v ...interface{}) { log.Printf("[badger] WARN: "+f, v...) }
func (defaultLogger) Infof(string, ...interface{})        {}
func (defaultLogger) Debugf(string, ...interface{})       {}
