package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ersonp/secmatch/internal/domain/entities"
)

// Store is a functional in-memory implementation of
// ports.ResolutionStore for handler and pipeline tests.
type Store struct {
	Err error // when set, every operation fails with this error

	mu        sync.Mutex
	entities  map[string]entities.HarmonizedEntity
	decisions map[string]entities.MatchDecision
	runs      []entities.ResolutionRun
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		entities:  make(map[string]entities.HarmonizedEntity),
		decisions: make(map[string]entities.MatchDecision),
	}
}

// EnsureSchema is a no-op.
func (m *Store) EnsureSchema(ctx context.Context) error { return m.Err }

// Close is a no-op.
func (m *Store) Close() error { return nil }

// SaveEntity inserts or replaces an entity.
func (m *Store) SaveEntity(ctx context.Context, entity *entities.HarmonizedEntity) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities[entity.HarmonizedID] = *entity
	return nil
}

// SaveEntities saves a batch.
func (m *Store) SaveEntities(ctx context.Context, batch []entities.HarmonizedEntity) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range batch {
		m.entities[e.HarmonizedID] = e
	}
	return nil
}

// FindEntityByID returns the entity or nil.
func (m *Store) FindEntityByID(ctx context.Context, harmonizedID string) (*entities.HarmonizedEntity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entities[harmonizedID]; ok {
		return &e, nil
	}
	return nil, nil
}

// ListEntities returns entities sorted by harmonized ID.
func (m *Store) ListEntities(ctx context.Context, limit, offset int) ([]entities.HarmonizedEntity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]entities.HarmonizedEntity, 0, len(m.entities))
	for _, e := range m.entities {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].HarmonizedID < all[j].HarmonizedID })

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// ListEntitiesBySource returns entities for one feed.
func (m *Store) ListEntitiesBySource(ctx context.Context, source entities.Source, limit int) ([]entities.HarmonizedEntity, error) {
	all, err := m.ListEntities(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	var filtered []entities.HarmonizedEntity
	for _, e := range all {
		if e.Source == source {
			filtered = append(filtered, e)
		}
	}
	if limit > 0 && limit < len(filtered) {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// CountEntities returns the entity count.
func (m *Store) CountEntities(ctx context.Context) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entities), nil
}

// SaveDecisions inserts decisions, skipping existing unordered pairs.
// A match ID collision between distinct pairs fails the batch, same as
// the sqlite repository.
func (m *Store) SaveDecisions(ctx context.Context, decisions []entities.MatchDecision) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := make(map[string]struct{}, len(m.decisions))
	for _, d := range m.decisions {
		existing[d.PairKey()] = struct{}{}
	}

	inserted := 0
	for _, d := range decisions {
		if _, ok := existing[d.PairKey()]; ok {
			continue
		}
		if _, ok := m.decisions[d.MatchID]; ok {
			return inserted, fmt.Errorf("saving decision %s: match id already in use", d.MatchID)
		}
		m.decisions[d.MatchID] = d
		existing[d.PairKey()] = struct{}{}
		inserted++
	}
	return inserted, nil
}

// FindDecision returns the decision or nil.
func (m *Store) FindDecision(ctx context.Context, matchID string) (*entities.MatchDecision, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.decisions[matchID]; ok {
		return &d, nil
	}
	return nil, nil
}

// ListDecisions returns decisions sorted by match ID.
func (m *Store) ListDecisions(ctx context.Context, limit int) ([]entities.MatchDecision, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]entities.MatchDecision, 0, len(m.decisions))
	for _, d := range m.decisions {
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].MatchID < all[j].MatchID })
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// ListDecisionsByStatus returns decisions with the given status.
func (m *Store) ListDecisionsByStatus(ctx context.Context, status entities.MatchStatus, limit int) ([]entities.MatchDecision, error) {
	all, err := m.ListDecisions(ctx, 0)
	if err != nil {
		return nil, err
	}
	var filtered []entities.MatchDecision
	for _, d := range all {
		if d.Status == status {
			filtered = append(filtered, d)
		}
	}
	if limit > 0 && limit < len(filtered) {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// FinalizeDecision transitions a PENDING decision to a terminal
// status.
func (m *Store) FinalizeDecision(ctx context.Context, matchID string, status entities.MatchStatus, rationale string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.decisions[matchID]
	if !ok || d.Status != entities.StatusPending {
		return false, nil
	}
	d.Status = status
	d.Method = entities.MethodOracleValidated
	d.Rationale = rationale
	d.UpdatedAt = time.Now()
	m.decisions[matchID] = d
	return true, nil
}

// SaveRun appends a run record.
func (m *Store) SaveRun(ctx context.Context, run *entities.ResolutionRun) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

// ListRuns returns run records, most recent first.
func (m *Store) ListRuns(ctx context.Context, limit int) ([]entities.ResolutionRun, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	runs := make([]entities.ResolutionRun, len(m.runs))
	copy(runs, m.runs)
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	if limit > 0 && limit < len(runs) {
		runs = runs[:limit]
	}
	return runs, nil
}
