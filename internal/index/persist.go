package index

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/odclabs/kiosk/internal/domain"
)

const (
	manifestFile = "manifest.json"
	vectorsFile  = "vectors.bin"

	formatVersion = 1
)

// manifest is the JSON half of the persisted layout. Vectors live in a
// separate binary blob keyed by position.
type manifest struct {
	Version   int               `json:"version"`
	ModelID   string            `json:"model_id"`
	Dimension int               `json:"dimension"`
	Count     int               `json:"count"`
	Passages  []manifestPassage `json:"passages"`
}

type manifestPassage struct {
	Text          string `json:"text"`
	SourceID      string `json:"source_id"`
	SequenceIndex int    `json:"sequence_index"`
}

// Save writes the index to dir atomically: everything lands in a
// sibling temp directory first, then a rename swaps it into place, so a
// reader never opens a half-written index.
func (ix *Index) Save(dir string) error {
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("failed to create index parent dir: %w", err)
	}

	tmp, err := os.MkdirTemp(parent, filepath.Base(dir)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp index dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := ix.writeTo(tmp); err != nil {
		return err
	}

	// Swap: move any previous index aside, promote the new one. The
	// stale copy is only removed after the promote succeeds.
	old := dir + ".old"
	_ = os.RemoveAll(old)
	if _, statErr := os.Stat(dir); statErr == nil {
		if err := os.Rename(dir, old); err != nil {
			return fmt.Errorf("failed to move previous index aside: %w", err)
		}
	}
	if err := os.Rename(tmp, dir); err != nil {
		// Try to restore the previous index before reporting.
		_ = os.Rename(old, dir)
		return fmt.Errorf("failed to promote new index: %w", err)
	}
	_ = os.RemoveAll(old)
	return nil
}

func (ix *Index) writeTo(dir string) error {
	m := manifest{
		Version:   formatVersion,
		ModelID:   ix.modelID,
		Dimension: ix.dim,
		Count:     len(ix.passages),
		Passages:  make([]manifestPassage, len(ix.passages)),
	}
	for i, p := range ix.passages {
		m.Passages[i] = manifestPassage{Text: p.Text, SourceID: p.SourceID, SequenceIndex: p.SequenceIndex}
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	buf := make([]byte, 4*ix.dim*len(ix.vectors))
	off := 0
	for _, v := range ix.vectors {
		for _, x := range v {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(x))
			off += 4
		}
	}
	if err := os.WriteFile(filepath.Join(dir, vectorsFile), buf, 0o644); err != nil {
		return fmt.Errorf("failed to write vectors: %w", err)
	}
	return nil
}

// Load reads an index from dir. A missing or corrupt layout yields
// ErrIndexUnavailable; a model identifier differing from expectedModel
// yields ErrModelMismatch. Both wrap detail for the log line.
func Load(dir, expectedModel string) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "vector index unavailable", err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "vector index manifest corrupt", err)
	}
	if m.Version != formatVersion || m.Dimension <= 0 || m.Count != len(m.Passages) {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "vector index manifest corrupt",
			fmt.Errorf("version=%d dimension=%d count=%d passages=%d", m.Version, m.Dimension, m.Count, len(m.Passages)))
	}
	if expectedModel != "" && m.ModelID != expectedModel {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeConfiguration,
			fmt.Sprintf("index was built with embedding model %q, configured %q", m.ModelID, expectedModel),
			domain.ErrModelMismatch)
	}

	raw, err := os.ReadFile(filepath.Join(dir, vectorsFile))
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "vector index unavailable", err)
	}
	if len(raw) != 4*m.Dimension*m.Count {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "vector blob size mismatch",
			fmt.Errorf("have %d bytes, want %d", len(raw), 4*m.Dimension*m.Count))
	}

	vectors := make([][]float32, m.Count)
	off := 0
	for i := range vectors {
		v := make([]float32, m.Dimension)
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(raw[off:]))
			off += 4
		}
		vectors[i] = v
	}

	passages := make([]domain.Passage, m.Count)
	for i, p := range m.Passages {
		passages[i] = domain.Passage{Text: p.Text, SourceID: p.SourceID, SequenceIndex: p.SequenceIndex}
	}

	return &Index{
		modelID:  m.ModelID,
		dim:      m.Dimension,
		passages: passages,
		vectors:  vectors,
	}, nil
}

// IsUnavailable reports whether err means "no usable index on disk",
// the condition the pipeline degrades on rather than failing.
func IsUnavailable(err error) bool {
	derr, ok := err.(*domain.DomainError)
	return ok && derr.Code == domain.ErrCodeUnavailable
}

// IsModelMismatch reports whether err is the fatal configuration error
// of querying with a different embedding model than built the index.
func IsModelMismatch(err error) bool {
	derr, ok := err.(*domain.DomainError)
	return ok && derr.Code == domain.ErrCodeConfiguration
}
