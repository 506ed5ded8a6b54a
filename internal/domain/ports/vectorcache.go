// Package ports defines interfaces for external service communication.
package ports

import (
	"context"

	"github.com/ersonp/secmatch/internal/domain/entities"
)

// EntityHit is one result of a semantic search over cached entity
// descriptions.
type EntityHit struct {
	HarmonizedID string
	Source       entities.Source
	Description  string
	Score        float32
}

// VectorCache persists one embedding per harmonized entity across
// resolution runs. Writes are idempotent upserts keyed by
// harmonized_id; recomputing and overwriting with the same value is
// safe.
type VectorCache interface {
	// EnsureCollection creates the collection if it doesn't exist.
	EnsureCollection(ctx context.Context, vectorSize uint64) error

	// Close releases the connection.
	Close() error

	// Put upserts the embedding for an entity's description.
	Put(ctx context.Context, entity entities.HarmonizedEntity, embedding []float32) error

	// Get returns the cached embedding for an entity, or nil when the
	// entity has not been embedded yet.
	Get(ctx context.Context, harmonizedID string) ([]float32, error)

	// Search returns the entities whose cached descriptions are most
	// similar to the given embedding.
	Search(ctx context.Context, embedding []float32, limit int) ([]EntityHit, error)
}
