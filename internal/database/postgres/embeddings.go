package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/classtrack/rollcall/internal/gallery"
)

// EmbeddingRepository stores enrollment embeddings (pgvector) and
// exports the gallery snapshot the server loads at startup.
type EmbeddingRepository struct {
	pool *Pool
}

// NewEmbeddingRepository creates a new embedding repository.
func NewEmbeddingRepository(pool *Pool) *EmbeddingRepository {
	return &EmbeddingRepository{pool: pool}
}

// Save stores one reference embedding for a student. source records
// where the embedding came from (enrollment photo path or "legacy").
func (r *EmbeddingRepository) Save(ctx context.Context, studentID int64, embedding []float32, source string) error {
	vec := pgvector.NewVector(embedding)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO enrollment_embeddings (student_id, embedding, source, dim)
		VALUES ($1, $2, $3, $4)
	`, studentID, vec, source, len(embedding))
	if err != nil {
		return fmt.Errorf("save embedding for student %d: %w", studentID, err)
	}
	return nil
}

// Count returns the number of stored reference embeddings.
func (r *EmbeddingRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM enrollment_embeddings").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return count, nil
}

// ExportSnapshot builds a gallery snapshot from all stored embeddings.
// Fails when the table is empty or holds mixed dimensions, since the
// matcher needs a uniform gallery.
func (r *EmbeddingRepository) ExportSnapshot(ctx context.Context) (*gallery.Snapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT student_id, embedding, dim
		FROM enrollment_embeddings
		ORDER BY student_id, id
	`)
	if err != nil {
		return nil, fmt.Errorf("export embeddings: %w", err)
	}
	defer rows.Close()

	snap := &gallery.Snapshot{Version: gallery.SnapshotVersion}
	for rows.Next() {
		var studentID int64
		var vec pgvector.Vector
		var dim int
		if err := rows.Scan(&studentID, &vec, &dim); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		if snap.Dim == 0 {
			snap.Dim = dim
		} else if snap.Dim != dim {
			return nil, fmt.Errorf("mixed embedding dimensions: %d and %d", snap.Dim, dim)
		}
		snap.IdentityIDs = append(snap.IdentityIDs, studentID)
		snap.Vectors = append(snap.Vectors, vec.Slice())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("export embeddings: %w", err)
	}
	if len(snap.Vectors) == 0 {
		return nil, fmt.Errorf("no enrollment embeddings to export")
	}
	return snap, nil
}
