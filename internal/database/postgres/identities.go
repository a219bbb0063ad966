package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/kozaktomas/face-gallery/internal/database"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gonum.org/v1/gonum/floats"
)

// pqUniqueViolation is the SQLSTATE for unique_violation.
const pqUniqueViolation = "23505"

// IdentityRepository provides PostgreSQL-backed gallery storage.
type IdentityRepository struct {
	pool *Pool
}

// NewIdentityRepository creates a repository over an already migrated pool.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// LoadAll returns every identity ordered by label. COLLATE "C" gives
// byte-wise ordering regardless of the database locale.
func (r *IdentityRepository) LoadAll(ctx context.Context) (database.Gallery, error) {
	query := `
		SELECT label, components, dim
		FROM identities
		ORDER BY label COLLATE "C"
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, database.Unavailable("query identities", err)
	}
	defer rows.Close()

	var gallery database.Gallery
	for rows.Next() {
		var (
			label      string
			components []float64
			dim        int
		)
		if err := rows.Scan(&label, pq.Array(&components), &dim); err != nil {
			return nil, database.Corrupt(label, fmt.Errorf("scan identity: %w", err))
		}
		if len(components) != dim {
			return nil, database.Corrupt(label, fmt.Errorf("stored dim %d, got %d components", dim, len(components)))
		}
		gallery = append(gallery, database.Record{Label: label, Embedding: database.Embedding(components)})
	}
	if err := rows.Err(); err != nil {
		return nil, database.Unavailable("iterate identities", err)
	}

	if err := database.CheckUniform(gallery); err != nil {
		return nil, err
	}
	return gallery, nil
}

// Persist inserts a new identity. The label primary key makes the insert a
// create-if-absent; a unique violation becomes a collision.
func (r *IdentityRepository) Persist(ctx context.Context, label string, embedding database.Embedding) error {
	if err := database.ValidateLabel(label); err != nil {
		return err
	}
	if embedding.Dim() == 0 {
		return &database.DimensionError{Want: 1, Got: 0}
	}

	query := `
		INSERT INTO identities (label, components, embedding, dim)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query,
		label, pq.Array([]float64(embedding)), pgvector.NewVector(embedding.Float32()), embedding.Dim())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return &database.CollisionError{Label: label}
		}
		return database.Unavailable(fmt.Sprintf("insert identity %q", label), err)
	}
	return nil
}

// Count returns the number of stored identities.
func (r *IdentityRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return 0, database.Unavailable("count identities", err)
	}
	return count, nil
}

// galleryDim returns the embedding length of the stored identities, or 0
// when the table is empty.
func (r *IdentityRepository) galleryDim(ctx context.Context) (int, error) {
	var dim int
	err := r.pool.QueryRow(ctx, "SELECT dim FROM identities LIMIT 1").Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, database.Unavailable("query gallery dim", err)
	}
	return dim, nil
}

// Nearest ranks identities by Euclidean distance using pgvector's <->
// operator. Distances are recomputed in float64 from the stored components.
func (r *IdentityRepository) Nearest(ctx context.Context, query database.Embedding, k int) ([]database.Neighbour, error) {
	if k <= 0 {
		return nil, nil
	}
	dim, err := r.galleryDim(ctx)
	if err != nil {
		return nil, err
	}
	if dim == 0 {
		return nil, nil
	}
	if query.Dim() != dim {
		return nil, &database.DimensionError{Want: dim, Got: query.Dim()}
	}

	sqlQuery := `
		SELECT label, components
		FROM identities
		ORDER BY embedding <-> $1::vector, label COLLATE "C"
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, sqlQuery, pgvector.NewVector(query.Float32()), k)
	if err != nil {
		return nil, database.Unavailable("query nearest identities", err)
	}
	defer rows.Close()

	var result []database.Neighbour
	for rows.Next() {
		var (
			label      string
			components []float64
		)
		if err := rows.Scan(&label, pq.Array(&components)); err != nil {
			return nil, database.Corrupt(label, fmt.Errorf("scan identity: %w", err))
		}
		if len(components) != dim {
			return nil, database.Corrupt(label, fmt.Errorf("stored %d components, gallery has %d", len(components), dim))
		}
		result = append(result, database.Neighbour{
			Label:    label,
			Distance: floats.Distance(query, components, 2),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, database.Unavailable("iterate nearest identities", err)
	}

	slices.SortStableFunc(result, func(a, b database.Neighbour) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return 0
		}
	})
	return result, nil
}

// Close closes the underlying pool.
func (r *IdentityRepository) Close() error {
	return r.pool.Close()
}
