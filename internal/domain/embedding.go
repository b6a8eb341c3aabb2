package domain

import "context"

// EmbeddingResult holds a single embedding vector and its token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder produces fixed-length embedding vectors for text. Implementations
// must be safe for concurrent use; the retrieval fan-out calls Embed from
// several goroutines at once.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
	EmbedBatch(ctx context.Context, texts []string) ([]EmbeddingResult, error)
}
