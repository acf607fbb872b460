//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odclabs/kiosk/internal/domain"
	"github.com/odclabs/kiosk/internal/testutil"
)

// basisVector returns a 1536-dim unit vector along the given axis, the
// schema's embedding dimension.
func basisVector(axis int) []float32 {
	v := make([]float32, 1536)
	v[axis] = 1
	return v
}

func seedPassages() ([]domain.Passage, [][]float32) {
	passages := []domain.Passage{
		{Text: "The center opens at 9am.", SourceID: "hours.txt", SequenceIndex: 0},
		{Text: "Workshops run every evening.", SourceID: "programs.txt", SequenceIndex: 0},
		{Text: "The fab lab has two 3D printers.", SourceID: "fablab.txt", SequenceIndex: 0},
	}
	vectors := [][]float32{basisVector(0), basisVector(1), basisVector(2)}
	return passages, vectors
}

func TestPassageRepository_ReplaceAllAndSearch(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewPassageRepository(pool)

	passages, vectors := seedPassages()
	require.NoError(t, repo.ReplaceAll(ctx, "text-embedding-3-small", passages, vectors))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	model, err := repo.EmbeddingModelID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", model)

	results, err := repo.SearchByEmbedding(ctx, basisVector(0), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "hours.txt", results[0].SourceID)
	assert.Equal(t, "The center opens at 9am.", results[0].Text)
	assert.Equal(t, 0, results[0].SequenceIndex)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestPassageRepository_SearchBreaksTiesByPassageOrder(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewPassageRepository(pool)

	// Identical embeddings leave the distance operator nothing to rank
	// on; results must still come back in passage order.
	passages := []domain.Passage{
		{Text: "First chunk.", SourceID: "guide.txt", SequenceIndex: 0},
		{Text: "Second chunk.", SourceID: "guide.txt", SequenceIndex: 1},
		{Text: "Third chunk.", SourceID: "guide.txt", SequenceIndex: 2},
	}
	vec := basisVector(7)
	require.NoError(t, repo.ReplaceAll(ctx, "text-embedding-3-small", passages, [][]float32{vec, vec, vec}))

	for i := 0; i < 5; i++ {
		results, err := repo.SearchByEmbedding(ctx, vec, 3)
		require.NoError(t, err)
		require.Len(t, results, 3)
		for j, sp := range results {
			assert.Equal(t, j, sp.SequenceIndex)
		}
	}
}

func TestPassageRepository_ReplaceAllSwapsContents(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewPassageRepository(pool)

	passages, vectors := seedPassages()
	require.NoError(t, repo.ReplaceAll(ctx, "older-model", passages, vectors))

	replacement := []domain.Passage{{Text: "New schedule.", SourceID: "new.txt", SequenceIndex: 0}}
	require.NoError(t, repo.ReplaceAll(ctx, "text-embedding-3-small", replacement, [][]float32{basisVector(5)}))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	model, err := repo.EmbeddingModelID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", model)

	results, err := repo.SearchByEmbedding(ctx, basisVector(5), 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new.txt", results[0].SourceID)
}

func TestPassageRepository_ReplaceAllMismatchedLengths(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewPassageRepository(pool)

	passages, _ := seedPassages()
	err := repo.ReplaceAll(ctx, "text-embedding-3-small", passages, [][]float32{basisVector(0)})
	assert.Error(t, err)
}

func TestPassageRepository_EmptyStore(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewPassageRepository(pool)

	model, err := repo.EmbeddingModelID(ctx)
	require.NoError(t, err)
	assert.Empty(t, model, "a never-built store has no model recorded")

	results, err := repo.SearchByEmbedding(ctx, basisVector(0), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
