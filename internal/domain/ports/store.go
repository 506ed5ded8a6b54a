package ports

import (
	"context"

	"github.com/ersonp/secmatch/internal/domain/entities"
)

// ResolutionStore is the single owner of harmonized entities, match
// decisions, and run records. No other component keeps authoritative
// copies of decision state.
//
// For all list operations, a limit <= 0 means no limit.
type ResolutionStore interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// Entity operations

	// SaveEntity inserts or replaces a harmonized entity. Replacement
	// is full (re-harmonization replaces, never patches).
	SaveEntity(ctx context.Context, entity *entities.HarmonizedEntity) error

	// SaveEntities saves a batch of harmonized entities.
	SaveEntities(ctx context.Context, batch []entities.HarmonizedEntity) error

	// FindEntityByID finds an entity by its harmonized ID. Returns nil
	// if not found.
	FindEntityByID(ctx context.Context, harmonizedID string) (*entities.HarmonizedEntity, error)

	// ListEntities lists entities with pagination.
	ListEntities(ctx context.Context, limit, offset int) ([]entities.HarmonizedEntity, error)

	// ListEntitiesBySource lists entities from one feed.
	ListEntitiesBySource(ctx context.Context, source entities.Source, limit int) ([]entities.HarmonizedEntity, error)

	// CountEntities returns the total number of harmonized entities.
	CountEntities(ctx context.Context) (int, error)

	// Decision operations

	// SaveDecisions persists new match decisions. An existing row for
	// the same unordered pair is left untouched, so re-running the
	// decision stage never disturbs adjudicated state. Returns the
	// number of rows actually inserted.
	SaveDecisions(ctx context.Context, decisions []entities.MatchDecision) (int, error)

	// FindDecision finds a decision by match ID. Returns nil if not
	// found.
	FindDecision(ctx context.Context, matchID string) (*entities.MatchDecision, error)

	// ListDecisions lists decisions ordered by match ID.
	ListDecisions(ctx context.Context, limit int) ([]entities.MatchDecision, error)

	// ListDecisionsByStatus lists decisions with the given status.
	ListDecisionsByStatus(ctx context.Context, status entities.MatchStatus, limit int) ([]entities.MatchDecision, error)

	// FinalizeDecision applies an adjudication verdict to a decision.
	// The update only lands while the decision is still PENDING, which
	// makes re-adjudication of a terminal decision a no-op; it reports
	// whether this call performed the transition.
	FinalizeDecision(ctx context.Context, matchID string, status entities.MatchStatus, rationale string) (bool, error)

	// Run operations

	// SaveRun persists a run record and its summary counters.
	SaveRun(ctx context.Context, run *entities.ResolutionRun) error

	// ListRuns lists run records, most recent first.
	ListRuns(ctx context.Context, limit int) ([]entities.ResolutionRun, error)
}
