// Package ports defines interfaces for external service communication.
package ports

import "context"

// Embedder is the embedding oracle: it turns a text description into a
// fixed-dimensionality numeric vector.
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vector embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
