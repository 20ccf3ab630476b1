// Package embedding provides sentence embedding providers (ONNX, OpenAI-compatible, mock) and caching.
package embedding

import "context"

// Embedder produces vector embeddings for text. Implementations are safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	// Model returns the identifier of the underlying model.
	Model() string
	Close() error
}
