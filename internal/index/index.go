// Package index implements the kiosk's flat vector index: brute-force
// cosine similarity over L2-normalized vectors, small enough for a
// corpus of scraped program and event records, persisted to a directory
// that is swapped atomically on rebuild.
package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/odclabs/kiosk/internal/domain"
)

// Index is an immutable snapshot of embedded passages. It is built
// fresh on every corpus rebuild and never mutated in place; query-time
// readers hold it read-only.
type Index struct {
	modelID  string
	dim      int
	passages []domain.Passage
	vectors  [][]float32
}

// Build creates an index over passages and their embeddings. Vectors
// are normalized on the way in so search reduces to a dot product.
func Build(modelID string, passages []domain.Passage, vectors [][]float32) (*Index, error) {
	if len(passages) != len(vectors) {
		return nil, fmt.Errorf("passage/vector count mismatch: %d vs %d", len(passages), len(vectors))
	}
	if len(vectors) == 0 {
		return nil, domain.ErrEmptyCorpus
	}

	dim := len(vectors[0])
	normalized := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
		normalized[i] = normalize(v)
	}

	ps := make([]domain.Passage, len(passages))
	copy(ps, passages)

	return &Index{
		modelID:  modelID,
		dim:      dim,
		passages: ps,
		vectors:  normalized,
	}, nil
}

// ModelID reports which embedding model built this index.
func (ix *Index) ModelID() string { return ix.modelID }

// Dimension reports the embedding dimension.
func (ix *Index) Dimension() int { return ix.dim }

// Len reports the number of indexed passages.
func (ix *Index) Len() int { return len(ix.passages) }

// Search returns up to k passages ranked by descending cosine
// similarity to the query vector, dropping results below threshold.
// Ties keep original passage order.
func (ix *Index) Search(query []float32, k int, threshold float32) ([]domain.ScoredPassage, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("query has dimension %d, index has %d", len(query), ix.dim)
	}
	if k <= 0 {
		return []domain.ScoredPassage{}, nil
	}

	q := normalize(query)
	scores := make([]float32, len(ix.vectors))
	order := make([]int, len(ix.vectors))
	for i, v := range ix.vectors {
		scores[i] = dot(v, q)
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	results := make([]domain.ScoredPassage, 0, k)
	for _, i := range order {
		if len(results) == k {
			break
		}
		if scores[i] < threshold {
			break
		}
		results = append(results, domain.ScoredPassage{Passage: ix.passages[i], Score: scores[i]})
	}
	return results, nil
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
