package domain

// Document is a normalized text record produced by the corpus builder.
// Documents are immutable once ingested; a corpus rebuild supersedes the
// whole set rather than updating documents in place.
type Document struct {
	ID         string
	SourcePath string
	RawText    string
}

// Passage is a bounded slice of a document used as the retrieval unit.
// Consecutive passages of a document overlap by a fixed number of
// characters so that context spanning a cut survives retrieval.
type Passage struct {
	Text          string
	SourceID      string
	SequenceIndex int
}

// ScoredPassage pairs a retrieved passage with its similarity score.
// Passage is embedded so retrieval results expose Text, SourceID, and
// SequenceIndex directly.
type ScoredPassage struct {
	Passage
	Score float32
}
