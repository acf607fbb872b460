package service

import (
	"context"
	"log"
	"sync/atomic"

	"github.com/odclabs/kiosk/internal/domain"
	"github.com/odclabs/kiosk/internal/index"
)

// Retriever is the query-time contract over the vector store: embed the
// question, return the top-k most similar passages. Implementations
// must rank by descending similarity with stable ties.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) ([]domain.ScoredPassage, error)
}

// FileRetriever serves queries from the on-disk flat index. The loaded
// index is held behind an atomic pointer so a background rebuild can
// swap it without pausing live questions.
type FileRetriever struct {
	embedder  EmbeddingClient
	dir       string
	threshold float32
	current   atomic.Pointer[index.Index]
}

func NewFileRetriever(embedder EmbeddingClient, dir string, threshold float32) *FileRetriever {
	return &FileRetriever{embedder: embedder, dir: dir, threshold: threshold}
}

// Load reads the persisted index, enforcing the embedding-model check.
// Missing index is not fatal here; Retrieve reports it per query and
// the pipeline degrades to the general path.
func (r *FileRetriever) Load() error {
	ix, err := index.Load(r.dir, r.embedder.EmbeddingModelID())
	if err != nil {
		return err
	}
	r.current.Store(ix)
	log.Printf("retriever: loaded index with %d passages (model %s)", ix.Len(), ix.ModelID())
	return nil
}

// Swap replaces the in-memory index after a rebuild.
func (r *FileRetriever) Swap(ix *index.Index) {
	r.current.Store(ix)
}

// Ready reports whether an index is loaded.
func (r *FileRetriever) Ready() bool {
	return r.current.Load() != nil
}

func (r *FileRetriever) Retrieve(ctx context.Context, question string, k int) ([]domain.ScoredPassage, error) {
	ix := r.current.Load()
	if ix == nil {
		return nil, domain.ErrIndexUnavailable
	}

	vec, err := r.embedder.GenerateEmbedding(ctx, question)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "query embedding failed", err)
	}
	return ix.Search(vec, k, r.threshold)
}

// PassageSearcher is the storage-side contract of the Postgres backend.
type PassageSearcher interface {
	SearchByEmbedding(ctx context.Context, embedding []float32, limit int) ([]domain.ScoredPassage, error)
	EmbeddingModelID(ctx context.Context) (string, error)
}

// PostgresRetriever serves queries from the pgvector-backed store.
type PostgresRetriever struct {
	embedder  EmbeddingClient
	repo      PassageSearcher
	threshold float32
}

func NewPostgresRetriever(embedder EmbeddingClient, repo PassageSearcher, threshold float32) *PostgresRetriever {
	return &PostgresRetriever{embedder: embedder, repo: repo, threshold: threshold}
}

// CheckModel verifies the stored embedding-model identifier against the
// configured one. Called once at startup; a mismatch is fatal.
func (r *PostgresRetriever) CheckModel(ctx context.Context) error {
	stored, err := r.repo.EmbeddingModelID(ctx)
	if err != nil {
		return err
	}
	if stored != "" && stored != r.embedder.EmbeddingModelID() {
		return domain.ErrModelMismatch
	}
	return nil
}

func (r *PostgresRetriever) Retrieve(ctx context.Context, question string, k int) ([]domain.ScoredPassage, error) {
	vec, err := r.embedder.GenerateEmbedding(ctx, question)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "query embedding failed", err)
	}

	results, err := r.repo.SearchByEmbedding(ctx, vec, k)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "passage search failed", err)
	}

	filtered := results[:0]
	for _, sp := range results {
		if sp.Score >= r.threshold {
			filtered = append(filtered, sp)
		}
	}
	return filtered, nil
}
