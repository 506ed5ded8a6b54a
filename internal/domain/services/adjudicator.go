package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ersonp/secmatch/internal/domain/entities"
	"github.com/ersonp/secmatch/internal/domain/ports"
)

// AdjudicatorOptions controls reasoning-oracle concurrency and retry
// behavior.
type AdjudicatorOptions struct {
	MaxConcurrency int
	OracleTimeout  time.Duration
	RetryAttempts  int
	RetryBackoff   time.Duration
}

func (o AdjudicatorOptions) withDefaults() AdjudicatorOptions {
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = DefaultMaxConcurrency
	}
	if o.OracleTimeout <= 0 {
		o.OracleTimeout = DefaultOracleTimeout
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = DefaultRetryAttempts
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = DefaultRetryBackoff
	}
	return o
}

// AdjudicationStats reports the outcome counts of one adjudication
// pass.
type AdjudicationStats struct {
	Processed    int `json:"processed"`
	Approved     int `json:"approved"`
	Rejected     int `json:"rejected"`
	Inconclusive int `json:"inconclusive"`
	Unavailable  int `json:"unavailable"`
	// Skipped counts decisions finalized elsewhere between listing and
	// the verdict arriving; the oracle answered but no transition was
	// applied here.
	Skipped int `json:"skipped"`
}

// Adjudicator resolves PENDING match decisions through the reasoning
// oracle. The status transition is applied at most once per decision:
// the store only finalizes rows still PENDING, so concurrent or
// repeated adjudication of the same decision is a no-op.
type Adjudicator struct {
	reasoner ports.Reasoner
	store    ports.ResolutionStore
	opts     AdjudicatorOptions
}

// NewAdjudicator creates an adjudicator.
func NewAdjudicator(reasoner ports.Reasoner, store ports.ResolutionStore, opts AdjudicatorOptions) *Adjudicator {
	return &Adjudicator{
		reasoner: reasoner,
		store:    store,
		opts:     opts.withDefaults(),
	}
}

// Adjudicate resolves a single decision. Terminal decisions return
// their existing status without an oracle call. An INCONCLUSIVE
// verdict leaves the decision PENDING; it is never coerced into an
// approval or rejection. applied reports whether this call performed
// the status transition; it is false when the row was already
// finalized, so callers can count the verdict as a no-op.
func (a *Adjudicator) Adjudicate(ctx context.Context, decision *entities.MatchDecision, e1, e2 entities.HarmonizedEntity) (verdict entities.Verdict, rationale string, applied bool, err error) {
	if decision.Terminal() {
		return entities.Verdict(decision.Status), decision.Rationale, false, nil
	}

	response, err := a.reviewWithRetry(ctx, ports.ReviewRequest{
		Entity1: e1,
		Entity2: e2,
		Score:   decision.SimilarityScore,
	})
	if err != nil {
		return "", "", false, err
	}

	verdict, rationale = ParseVerdict(response)
	if verdict == entities.VerdictInconclusive {
		return verdict, rationale, false, nil
	}

	applied, err = a.store.FinalizeDecision(ctx, decision.MatchID, entities.MatchStatus(verdict), rationale)
	if err != nil {
		return "", "", false, fmt.Errorf("finalizing decision %s: %w", decision.MatchID, err)
	}
	if applied {
		decision.Status = entities.MatchStatus(verdict)
		decision.Method = entities.MethodOracleValidated
		decision.Rationale = rationale
		decision.UpdatedAt = time.Now()
	}

	return verdict, rationale, applied, nil
}

// AdjudicatePending runs one adjudication pass over every PENDING
// decision in the store, with bounded oracle concurrency. Per-decision
// failures are isolated into the stats; they never abort the pass.
func (a *Adjudicator) AdjudicatePending(ctx context.Context, limit int) (AdjudicationStats, error) {
	var stats AdjudicationStats

	pending, err := a.store.ListDecisionsByStatus(ctx, entities.StatusPending, limit)
	if err != nil {
		return stats, fmt.Errorf("listing pending decisions: %w", err)
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(a.opts.MaxConcurrency)

	for i := range pending {
		decision := pending[i]
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			verdict, _, applied, err := a.adjudicateOne(ctx, &decision)

			mu.Lock()
			defer mu.Unlock()
			stats.Processed++
			switch {
			case err != nil:
				stats.Unavailable++
			case verdict == entities.VerdictInconclusive:
				stats.Inconclusive++
			case !applied:
				stats.Skipped++
			case verdict == entities.VerdictApproved:
				stats.Approved++
			default:
				stats.Rejected++
			}
			return nil
		})
	}

	_ = g.Wait()
	return stats, nil
}

// adjudicateOne loads both sides of a decision and adjudicates it.
func (a *Adjudicator) adjudicateOne(ctx context.Context, decision *entities.MatchDecision) (entities.Verdict, string, bool, error) {
	e1, err := a.store.FindEntityByID(ctx, decision.ID1)
	if err != nil {
		return "", "", false, fmt.Errorf("loading entity %s: %w", decision.ID1, err)
	}
	e2, err := a.store.FindEntityByID(ctx, decision.ID2)
	if err != nil {
		return "", "", false, fmt.Errorf("loading entity %s: %w", decision.ID2, err)
	}
	if e1 == nil || e2 == nil {
		return "", "", false, fmt.Errorf("decision %s references missing entities", decision.MatchID)
	}

	return a.Adjudicate(ctx, decision, *e1, *e2)
}

// reviewWithRetry calls the reasoning oracle with a per-attempt
// timeout and exponential backoff.
func (a *Adjudicator) reviewWithRetry(ctx context.Context, req ports.ReviewRequest) (string, error) {
	var lastErr error

	for attempt := 0; attempt < a.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			backoff := a.opts.RetryBackoff * (1 << (attempt - 1))
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", entities.ErrAdjudicationUnavailable, ctx.Err())
			case <-time.After(backoff):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, a.opts.OracleTimeout)
		response, err := a.reasoner.ReviewMatch(attemptCtx, req)
		cancel()

		if err == nil && strings.TrimSpace(response) == "" {
			err = errors.New("oracle returned empty response")
		}
		if err == nil {
			return response, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	return "", fmt.Errorf("%w after %d attempts: %v", entities.ErrAdjudicationUnavailable, a.opts.RetryAttempts, lastErr)
}

// ParseVerdict classifies an oracle response by the literal tokens
// APPROVED / REJECTED (case-insensitive). A response containing both
// tokens or neither is INCONCLUSIVE; the contract never guesses. The
// rationale is the text after the first "-" separator, falling back to
// the whole response.
func ParseVerdict(response string) (entities.Verdict, string) {
	upper := strings.ToUpper(response)
	hasApproved := strings.Contains(upper, string(entities.VerdictApproved))
	hasRejected := strings.Contains(upper, string(entities.VerdictRejected))

	rationale := strings.TrimSpace(response)
	if idx := strings.Index(response, "-"); idx >= 0 {
		if r := strings.TrimSpace(response[idx+1:]); r != "" {
			rationale = r
		}
	}

	switch {
	case hasApproved && !hasRejected:
		return entities.VerdictApproved, rationale
	case hasRejected && !hasApproved:
		return entities.VerdictRejected, rationale
	default:
		return entities.VerdictInconclusive, strings.TrimSpace(response)
	}
}
