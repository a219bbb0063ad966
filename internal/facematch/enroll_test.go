package facematch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-gallery/internal/database"
	"github.com/kozaktomas/face-gallery/internal/database/mock"
)

func TestEnroll(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockStore()
	e := NewEnroller(store, DefaultTolerance, nil)

	label, err := e.Enroll(ctx, database.Embedding{0.1, 0.2, 0.3}, "bob-123")
	if err != nil {
		t.Fatalf("Enroll() error: %v", err)
	}
	if label != "bob-123" {
		t.Errorf("expected label bob-123, got %q", label)
	}
	if !store.Has("bob-123") {
		t.Error("expected record to be persisted")
	}
}

func TestEnroll_GeneratesLabel(t *testing.T) {
	store := mock.NewMockStore()
	e := NewEnroller(store, DefaultTolerance, nil)

	label, err := e.Enroll(context.Background(), database.Embedding{1, 2}, "")
	if err != nil {
		t.Fatalf("Enroll() error: %v", err)
	}
	if _, err := uuid.Parse(label); err != nil {
		t.Errorf("expected UUID label, got %q", label)
	}
}

func TestEnroll_Duplicate(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockStore()
	e := NewEnroller(store, DefaultTolerance, nil)

	if _, err := e.Enroll(ctx, database.Embedding{0.1, 0.2, 0.3}, "bob-123"); err != nil {
		t.Fatal(err)
	}

	// Same face, slightly different embedding, different label.
	_, err := e.Enroll(ctx, database.Embedding{0.12, 0.21, 0.3}, "robert")
	if !errors.Is(err, ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
	var dup *DuplicateError
	if !errors.As(err, &dup) || dup.ExistingLabel != "bob-123" {
		t.Errorf("expected DuplicateError for bob-123, got %v", err)
	}

	n, _ := store.Count(ctx)
	if n != 1 {
		t.Errorf("expected gallery size 1, got %d", n)
	}
}

func TestEnroll_SameEmbeddingTwice(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockStore()
	e := NewEnroller(store, DefaultTolerance, nil)

	emb := database.Embedding{0.5, 0.5}
	if _, err := e.Enroll(ctx, emb, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Enroll(ctx, emb, ""); !errors.Is(err, ErrDuplicateIdentity) {
		t.Errorf("expected ErrDuplicateIdentity, got %v", err)
	}
	if store.PersistCalls != 1 {
		t.Errorf("expected 1 persist call, got %d", store.PersistCalls)
	}
}

func TestEnroll_LabelCollision(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockStore()
	e := NewEnroller(store, DefaultTolerance, nil)

	if _, err := e.Enroll(ctx, database.Embedding{0, 0}, "alice"); err != nil {
		t.Fatal(err)
	}
	_, err := e.Enroll(ctx, database.Embedding{5, 5}, "alice")
	if !errors.Is(err, database.ErrLabelCollision) {
		t.Errorf("expected ErrLabelCollision, got %v", err)
	}
}

func TestEnroll_ConcurrentSameLabel(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockStore()
	e := NewEnroller(store, DefaultTolerance, nil)

	const writers = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		rejections int
	)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Distinct faces so only the label can collide.
			_, err := e.Enroll(ctx, database.Embedding{float64(i) * 10, 0}, "same")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, database.ErrLabelCollision):
				rejections++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("expected exactly one success, got %d", successes)
	}
	if rejections != writers-1 {
		t.Errorf("expected %d collisions, got %d", writers-1, rejections)
	}
}

func TestEnroll_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*mock.MockStore)
		emb     database.Embedding
		wantErr error
	}{
		{
			name:    "store unavailable",
			setup:   func(s *mock.MockStore) { s.LoadAllError = database.ErrStorageUnavailable },
			emb:     database.Embedding{1},
			wantErr: database.ErrStorageUnavailable,
		},
		{
			name:    "empty embedding",
			setup:   func(*mock.MockStore) {},
			emb:     database.Embedding{},
			wantErr: database.ErrDimensionMismatch,
		},
		{
			name:    "gallery dimension differs",
			setup:   func(s *mock.MockStore) { s.Add("old", database.Embedding{1, 2, 3}) },
			emb:     database.Embedding{1, 2},
			wantErr: database.ErrDimensionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mock.NewMockStore()
			tt.setup(store)
			e := NewEnroller(store, DefaultTolerance, nil)
			_, err := e.Enroll(context.Background(), tt.emb, "x")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if store.Has("x") {
				t.Error("failed enrollment left a record behind")
			}
		})
	}
}
