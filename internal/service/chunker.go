package service

import (
	"log"
	"strings"

	"github.com/odclabs/kiosk/internal/domain"
)

// ChunkConfig controls how documents are split into passages.
type ChunkConfig struct {
	// Size is the maximum passage length in runes.
	Size int
	// Overlap is the exact number of runes shared between consecutive
	// passages of one document. Must be smaller than Size.
	Overlap int
}

// DefaultChunkConfig matches the corpus the kiosk was tuned on: short
// scraped program and event records on modest hardware.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{Size: 250, Overlap: 25}
}

// Chunker splits documents into overlapping passages.
type Chunker struct {
	cfg ChunkConfig
}

func NewChunker(cfg ChunkConfig) (*Chunker, error) {
	if cfg.Size <= 0 {
		cfg = DefaultChunkConfig()
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.Size {
		return nil, domain.ErrInvalidChunkConfig
	}
	return &Chunker{cfg: cfg}, nil
}

// Split chunks every document into passages. Unreadable (empty)
// documents are skipped with a warning; a bad record must never abort a
// corpus rebuild.
func (c *Chunker) Split(documents []domain.Document) []domain.Passage {
	passages := make([]domain.Passage, 0, len(documents))
	for _, doc := range documents {
		if strings.TrimSpace(doc.RawText) == "" {
			log.Printf("chunker: skipping empty document %s (%s)", doc.ID, doc.SourcePath)
			continue
		}
		for i, text := range c.splitText(doc.RawText) {
			passages = append(passages, domain.Passage{
				Text:          text,
				SourceID:      doc.ID,
				SequenceIndex: i,
			})
		}
	}
	return passages
}

// splitText cuts text into pieces of at most cfg.Size runes, preferring
// paragraph breaks over sentence breaks over hard cuts. Each piece after
// the first begins with the last cfg.Overlap runes of its predecessor,
// so stripping that prefix and concatenating reproduces the input
// exactly.
func (c *Chunker) splitText(text string) []string {
	runes := []rune(text)
	if len(runes) <= c.cfg.Size {
		return []string{text}
	}

	chunks := make([]string, 0, len(runes)/c.cfg.Size+1)
	start := 0
	for start < len(runes) {
		end := start + c.cfg.Size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		cut := boundaryCut(runes, start, end)
		// A cut at or before start+overlap would make the next chunk
		// start where this one did. Fall back to the hard cut.
		if cut-start <= c.cfg.Overlap {
			cut = end
		}

		chunks = append(chunks, string(runes[start:cut]))
		start = cut - c.cfg.Overlap
	}
	return chunks
}

// boundaryCut scans backwards from end looking for the most natural
// place to cut: a blank line, then a sentence end, then any whitespace.
// Returns end when nothing better exists in (start, end].
func boundaryCut(runes []rune, start, end int) int {
	if idx := lastBoundary(runes, start, end, isParagraphBreak); idx > start {
		return idx
	}
	if idx := lastBoundary(runes, start, end, isSentenceEnd); idx > start {
		return idx
	}
	if idx := lastBoundary(runes, start, end, isSpace); idx > start {
		return idx
	}
	return end
}

func lastBoundary(runes []rune, start, end int, match func([]rune, int) bool) int {
	for i := end; i > start; i-- {
		if match(runes, i-1) {
			return i
		}
	}
	return start
}

func isParagraphBreak(runes []rune, i int) bool {
	return runes[i] == '\n' && i > 0 && runes[i-1] == '\n'
}

func isSentenceEnd(runes []rune, i int) bool {
	switch runes[i] {
	case '.', '!', '?', '؟': // includes the Arabic question mark
		return true
	default:
		return false
	}
}

func isSpace(runes []rune, i int) bool {
	switch runes[i] {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}
