package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/secmatch/internal/domain/ports"
)

// DefaultSearchLimit is the default number of search results.
const DefaultSearchLimit = 10

// SearchHandler performs semantic lookup over cached entity
// descriptions.
type SearchHandler struct {
	embedder ports.Embedder
	cache    ports.VectorCache
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(embedder ports.Embedder, cache ports.VectorCache) *SearchHandler {
	return &SearchHandler{
		embedder: embedder,
		cache:    cache,
	}
}

// Handle embeds the query text and returns the most similar entities.
func (h *SearchHandler) Handle(ctx context.Context, query string, limit int) ([]ports.EntityHit, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	embedding, err := h.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("generating query embedding: %w", err)
	}

	hits, err := h.cache.Search(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("searching entities: %w", err)
	}

	return hits, nil
}
