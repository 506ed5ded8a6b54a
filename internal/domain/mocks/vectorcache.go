package mocks

import (
	"context"
	"sync"

	"github.com/ersonp/secmatch/internal/domain/entities"
	"github.com/ersonp/secmatch/internal/domain/ports"
)

// VectorCache is an in-memory implementation of ports.VectorCache.
type VectorCache struct {
	Err error

	mu      sync.Mutex
	vectors map[string][]float32
}

// NewVectorCache creates an empty in-memory vector cache.
func NewVectorCache() *VectorCache {
	return &VectorCache{vectors: make(map[string][]float32)}
}

// EnsureCollection is a no-op.
func (m *VectorCache) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	return m.Err
}

// Close is a no-op.
func (m *VectorCache) Close() error { return nil }

// Put stores the embedding.
func (m *VectorCache) Put(ctx context.Context, entity entities.HarmonizedEntity, embedding []float32) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[entity.HarmonizedID] = embedding
	return nil
}

// Get returns the stored embedding or nil.
func (m *VectorCache) Get(ctx context.Context, harmonizedID string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vectors[harmonizedID], nil
}

// Search is unsupported in the mock; it returns no hits.
func (m *VectorCache) Search(ctx context.Context, embedding []float32, limit int) ([]ports.EntityHit, error) {
	return nil, m.Err
}

// Len returns the number of cached embeddings.
func (m *VectorCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.vectors)
}
