// Package repository implements pgvector-backed passage storage for
// kiosks whose index lives in Postgres instead of on local disk.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/odclabs/kiosk/internal/domain"
)

// PassageRepository handles persistence of embedded corpus passages.
type PassageRepository struct {
	pool *pgxpool.Pool
}

func NewPassageRepository(pool *pgxpool.Pool) *PassageRepository {
	return &PassageRepository{pool: pool}
}

// ReplaceAll swaps the stored index for a freshly built one in a single
// transaction. Concurrent searches see either the old contents or the
// new, never a mix.
func (r *PassageRepository) ReplaceAll(ctx context.Context, modelID string, passages []domain.Passage, vectors [][]float32) error {
	if len(passages) != len(vectors) {
		return fmt.Errorf("have %d passages but %d vectors", len(passages), len(vectors))
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM passages`); err != nil {
		return err
	}

	for i, p := range passages {
		_, err := tx.Exec(ctx,
			`INSERT INTO passages (source_id, sequence_index, content, embedding)
			 VALUES ($1, $2, $3, $4)`,
			p.SourceID,
			p.SequenceIndex,
			p.Text,
			pgvector.NewVector(vectors[i]),
		)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO index_meta (id, embedding_model, rebuilt_at)
		 VALUES (1, $1, now())
		 ON CONFLICT (id) DO UPDATE SET embedding_model = $1, rebuilt_at = now()`,
		modelID,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// SearchByEmbedding returns the passages nearest to the query vector,
// ranked by cosine similarity. Equal distances fall back to insertion
// order, which ReplaceAll keeps aligned with passage order.
func (r *PassageRepository) SearchByEmbedding(ctx context.Context, embedding []float32, limit int) ([]domain.ScoredPassage, error) {
	if limit <= 0 {
		limit = 4
	}

	vec := pgvector.NewVector(embedding)

	query := `
		SELECT content, source_id, sequence_index,
		       1.0 - (embedding <=> $1) AS score
		FROM passages
		ORDER BY embedding <=> $1, id
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, vec, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.ScoredPassage, 0, limit)
	for rows.Next() {
		var sp domain.ScoredPassage
		var score float64
		if err := rows.Scan(&sp.Text, &sp.SourceID, &sp.SequenceIndex, &score); err != nil {
			return nil, err
		}
		sp.Score = float32(score)
		results = append(results, sp)
	}

	return results, rows.Err()
}

// EmbeddingModelID returns the model the stored index was built with,
// or empty when no rebuild has ever run.
func (r *PassageRepository) EmbeddingModelID(ctx context.Context) (string, error) {
	var model string
	err := r.pool.QueryRow(ctx, `SELECT embedding_model FROM index_meta WHERE id = 1`).Scan(&model)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return model, nil
}

// Count reports the number of stored passages.
func (r *PassageRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM passages`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
