package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations may include:
//   - OpenAI / Azure OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local models via inference servers
type EmbeddingService interface {
	// EmbedBatch generates embeddings for an ordered batch of texts.
	// It returns one fixed-length vector per input text, in the same
	// order, or fails the whole batch.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 1024, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request. Used before a run to distinguish "unreachable,
	// abort" from later per-batch transient failures.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
