package service

import "context"

// CompletionClient is the single-prompt slice of the language model the
// pipeline depends on. The call is a remote procedure that may fail or
// time out; retry policy belongs to the client implementation, not here.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error)
}

// EmbeddingClient maps text to fixed-dimension dense vectors. The same
// model must serve both index builds and queries.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	EmbeddingModelID() string
}
