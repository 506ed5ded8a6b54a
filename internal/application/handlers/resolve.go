package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ersonp/secmatch/internal/domain/entities"
	"github.com/ersonp/secmatch/internal/domain/ports"
	"github.com/ersonp/secmatch/internal/domain/services"
)

// entityPageSize is the page size used when loading the full entity
// set for a run.
const entityPageSize = 500

// ResolveHandler runs the resolution pipeline over the stored entity
// set: blocking, scoring, and decision. A fresh scorer is built per
// run so the in-run embedding cache starts empty while the cross-run
// vector cache persists.
type ResolveHandler struct {
	embedder ports.Embedder
	cache    ports.VectorCache
	blocking *services.BlockingIndex
	engine   *services.DecisionEngine
	store    ports.ResolutionStore
	opts     services.ScorerOptions
	log      zerolog.Logger
}

// NewResolveHandler creates a new resolve handler. cache may be nil.
func NewResolveHandler(
	embedder ports.Embedder,
	cache ports.VectorCache,
	engine *services.DecisionEngine,
	store ports.ResolutionStore,
	opts services.ScorerOptions,
	log zerolog.Logger,
) *ResolveHandler {
	return &ResolveHandler{
		embedder: embedder,
		cache:    cache,
		blocking: services.NewBlockingIndex(),
		engine:   engine,
		store:    store,
		opts:     opts,
		log:      log,
	}
}

// ResolveResult contains the outcome of one resolution run.
type ResolveResult struct {
	RunID    string
	Summary  entities.RunSummary
	Inserted int
}

// Handle executes one resolution run end to end. Per-pair scoring
// failures are isolated into the summary; the run only aborts on
// structural failures (empty entity set, oracle fully unreachable) or
// a blocking-invariant violation.
func (h *ResolveHandler) Handle(ctx context.Context) (*ResolveResult, error) {
	started := time.Now()
	runID := uuid.New().String()

	all, err := h.loadEntities(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, errors.New("no harmonized entities in store; ingest feeds first")
	}

	var summary entities.RunSummary
	summary.Processed = len(all)

	pairs := h.blocking.GenerateCandidates(all)
	summary.Candidates = len(pairs)
	h.log.Info().Int("entities", len(all)).Int("candidates", len(pairs)).Msg("blocking complete")

	scorer := services.NewSimilarityScorer(h.embedder, h.cache, h.opts)
	results := scorer.ScorePairs(ctx, pairs)

	for _, res := range results {
		if res.Err != nil {
			summary.UnresolvedScoring++
			h.log.Warn().Err(res.Err).Str("pair", res.Pair.Key()).Msg("pair unresolved")
			continue
		}
		summary.Scored++
		if res.Score < 0 || res.Score > 1 {
			summary.OutOfRange++
			h.log.Warn().Float64("score", res.Score).Str("pair", res.Pair.Key()).Msg("score outside [0,1]")
		}
	}

	// Every single pair failing means the oracle never answered; that
	// is a startup-level outage, not a partial failure.
	if summary.Candidates > 0 && summary.Scored == 0 {
		return nil, fmt.Errorf("%w: embedding oracle unreachable for all %d pairs",
			entities.ErrScoringUnavailable, summary.Candidates)
	}

	decisions, err := h.engine.DecideAll(results, runID)
	if err != nil {
		return nil, fmt.Errorf("deciding matches: %w", err)
	}

	for _, d := range decisions {
		switch d.Status {
		case entities.StatusApproved:
			summary.Approved++
		case entities.StatusPending:
			summary.Pending++
		}
	}

	inserted, err := h.store.SaveDecisions(ctx, decisions)
	if err != nil {
		return nil, fmt.Errorf("saving decisions: %w", err)
	}

	run := &entities.ResolutionRun{
		RunID:      runID,
		Kind:       entities.RunKindResolve,
		Summary:    summary,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err := h.store.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("saving run: %w", err)
	}

	h.log.Info().
		Str("run_id", runID).
		Int("scored", summary.Scored).
		Int("unresolved", summary.UnresolvedScoring).
		Int("approved", summary.Approved).
		Int("pending", summary.Pending).
		Msg("resolve complete")

	return &ResolveResult{
		RunID:    runID,
		Summary:  summary,
		Inserted: inserted,
	}, nil
}

func (h *ResolveHandler) loadEntities(ctx context.Context) ([]entities.HarmonizedEntity, error) {
	var all []entities.HarmonizedEntity
	for offset := 0; ; offset += entityPageSize {
		page, err := h.store.ListEntities(ctx, entityPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("listing entities: %w", err)
		}
		all = append(all, page...)
		if len(page) < entityPageSize {
			return all, nil
		}
	}
}
