package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ersonp/secmatch/internal/domain/entities"
	"github.com/ersonp/secmatch/internal/domain/ports"
	"github.com/ersonp/secmatch/internal/domain/services"
)

// AdjudicateHandler runs one adjudication pass over the store's
// PENDING decisions.
type AdjudicateHandler struct {
	adjudicator *services.Adjudicator
	store       ports.ResolutionStore
	log         zerolog.Logger
}

// NewAdjudicateHandler creates a new adjudicate handler.
func NewAdjudicateHandler(adjudicator *services.Adjudicator, store ports.ResolutionStore, log zerolog.Logger) *AdjudicateHandler {
	return &AdjudicateHandler{
		adjudicator: adjudicator,
		store:       store,
		log:         log,
	}
}

// AdjudicateResult contains the outcome of one adjudication pass.
type AdjudicateResult struct {
	RunID string
	Stats services.AdjudicationStats
}

// Handle adjudicates up to limit pending decisions and records the
// pass as a run. Inconclusive and unavailable decisions stay PENDING
// for a later pass.
func (h *AdjudicateHandler) Handle(ctx context.Context, limit int) (*AdjudicateResult, error) {
	started := time.Now()
	runID := uuid.New().String()

	stats, err := h.adjudicator.AdjudicatePending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("adjudicating pending decisions: %w", err)
	}

	run := &entities.ResolutionRun{
		RunID: runID,
		Kind:  entities.RunKindAdjudicate,
		Summary: entities.RunSummary{
			Processed:    stats.Processed,
			Approved:     stats.Approved,
			Rejected:     stats.Rejected,
			Inconclusive: stats.Inconclusive,
			Pending:      stats.Inconclusive + stats.Unavailable,
		},
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err := h.store.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("saving run: %w", err)
	}

	h.log.Info().
		Str("run_id", runID).
		Int("processed", stats.Processed).
		Int("approved", stats.Approved).
		Int("rejected", stats.Rejected).
		Int("inconclusive", stats.Inconclusive).
		Int("unavailable", stats.Unavailable).
		Msg("adjudication pass complete")

	return &AdjudicateResult{
		RunID: runID,
		Stats: stats,
	}, nil
}
