package service

import (
	"context"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/odclabs/kiosk/internal/domain"
	"github.com/odclabs/kiosk/internal/index"
)

// IndexStore receives the full output of a rebuild. Implementations
// must replace the previous contents atomically so queries never see a
// half-built index.
type IndexStore interface {
	ReplaceAll(ctx context.Context, modelID string, passages []domain.Passage, vectors [][]float32) error
}

// RebuildResult summarizes one completed rebuild.
type RebuildResult struct {
	Documents int
	Passages  int
	Duration  time.Duration
}

// RebuildConfig tunes the embedding phase of a rebuild.
type RebuildConfig struct {
	BatchSize        int
	BatchesPerSecond float64
	// Progress, when set, is called after each embedded batch with the
	// number of passages done so far and the total.
	Progress func(done, total int)
}

// Rebuilder turns the corpus into a fresh vector index: load, chunk,
// embed in rate-limited batches, then hand the result to the store.
type Rebuilder struct {
	loadCorpus func() ([]domain.Document, error)
	chunker    *Chunker
	embedder   EmbeddingClient
	store      IndexStore
	cfg        RebuildConfig
	limiter    *rate.Limiter
}

func NewRebuilder(loadCorpus func() ([]domain.Document, error), chunker *Chunker, embedder EmbeddingClient, store IndexStore, cfg RebuildConfig) *Rebuilder {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.BatchesPerSecond <= 0 {
		cfg.BatchesPerSecond = 2
	}
	return &Rebuilder{
		loadCorpus: loadCorpus,
		chunker:    chunker,
		embedder:   embedder,
		store:      store,
		cfg:        cfg,
		limiter:    rate.NewLimiter(rate.Limit(cfg.BatchesPerSecond), 1),
	}
}

// Rebuild runs one full corpus-to-index cycle. The live index is
// untouched until the store swap at the end, so a failed rebuild
// leaves the previous index serving.
func (r *Rebuilder) Rebuild(ctx context.Context) (*RebuildResult, error) {
	start := time.Now()

	docs, err := r.loadCorpus()
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "corpus load failed", err)
	}
	if len(docs) == 0 {
		return nil, domain.ErrEmptyCorpus
	}

	passages := r.chunker.Split(docs)
	if len(passages) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	log.Printf("rebuild: %d documents chunked into %d passages", len(docs), len(passages))

	vectors, err := r.embedAll(ctx, passages)
	if err != nil {
		return nil, err
	}

	if err := r.store.ReplaceAll(ctx, r.embedder.EmbeddingModelID(), passages, vectors); err != nil {
		return nil, err
	}

	result := &RebuildResult{
		Documents: len(docs),
		Passages:  len(passages),
		Duration:  time.Since(start),
	}
	log.Printf("rebuild: finished in %s (%d passages)", result.Duration.Round(time.Millisecond), result.Passages)
	return result, nil
}

func (r *Rebuilder) embedAll(ctx context.Context, passages []domain.Passage) ([][]float32, error) {
	vectors := make([][]float32, 0, len(passages))
	for batchStart := 0; batchStart < len(passages); batchStart += r.cfg.BatchSize {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		end := batchStart + r.cfg.BatchSize
		if end > len(passages) {
			end = len(passages)
		}
		texts := make([]string, 0, end-batchStart)
		for _, p := range passages[batchStart:end] {
			texts = append(texts, p.Text)
		}

		batch, err := r.embedder.GenerateEmbeddings(ctx, texts)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "passage embedding failed", err)
		}
		vectors = append(vectors, batch...)

		if r.cfg.Progress != nil {
			r.cfg.Progress(end, len(passages))
		}
	}
	return vectors, nil
}

// FileIndexStore persists rebuilds as the on-disk flat index and swaps
// the serving retriever to the new contents.
type FileIndexStore struct {
	dir       string
	retriever *FileRetriever
}

func NewFileIndexStore(dir string, retriever *FileRetriever) *FileIndexStore {
	return &FileIndexStore{dir: dir, retriever: retriever}
}

func (s *FileIndexStore) ReplaceAll(ctx context.Context, modelID string, passages []domain.Passage, vectors [][]float32) error {
	ix, err := index.Build(modelID, passages, vectors)
	if err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "index build failed", err)
	}
	if err := ix.Save(s.dir); err != nil {
		return err
	}
	if s.retriever != nil {
		s.retriever.Swap(ix)
	}
	return nil
}
