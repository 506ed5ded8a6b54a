package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ersonp/secmatch/internal/domain/entities"
)

// Reference thresholds. Product decisions inferred from the reference
// data; tune via config, not here.
const (
	DefaultApproveThreshold = 0.90
	DefaultReviewThreshold  = 0.80
)

// DecisionEngine thresholds similarity scores into match decisions.
// Pairs scoring under the review threshold are discarded without a
// decision row, which bounds storage to plausible matches only.
type DecisionEngine struct {
	approveThreshold float64
	reviewThreshold  float64
}

// NewDecisionEngine creates a decision engine. Non-positive thresholds
// fall back to the reference defaults.
func NewDecisionEngine(approveThreshold, reviewThreshold float64) (*DecisionEngine, error) {
	if approveThreshold <= 0 {
		approveThreshold = DefaultApproveThreshold
	}
	if reviewThreshold <= 0 {
		reviewThreshold = DefaultReviewThreshold
	}
	if reviewThreshold > approveThreshold {
		return nil, errors.New("review threshold must not exceed approve threshold")
	}
	return &DecisionEngine{
		approveThreshold: approveThreshold,
		reviewThreshold:  reviewThreshold,
	}, nil
}

// Decide thresholds a single scored pair. Returns nil when the score
// falls below the review threshold (pair discarded, no decision).
// The match ID is assigned later by DecideAll, once the batch ordering
// is known.
func (d *DecisionEngine) Decide(pair entities.CandidatePair, score float64) *entities.MatchDecision {
	if score < d.reviewThreshold {
		return nil
	}

	status := entities.StatusPending
	if score >= d.approveThreshold {
		status = entities.StatusApproved
	}

	now := time.Now()
	return &entities.MatchDecision{
		Source1:         pair.Entity1.Source,
		ID1:             pair.Entity1.HarmonizedID,
		Source2:         pair.Entity2.Source,
		ID2:             pair.Entity2.HarmonizedID,
		SimilarityScore: score,
		Method:          entities.MethodSimilarity,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// DecideAll thresholds every successfully scored pair and assigns
// match IDs deterministic within the run: decisions are ranked by
// descending similarity with the pair key as tie-break, and each ID is
// the run ID plus the 1-based rank. Scoping IDs to the run keeps them
// unique across incremental runs, where a new pair can rank ahead of
// pairs persisted by an earlier run.
//
// A repeated unordered pair means the blocking invariant was violated
// upstream; that returns *entities.DuplicateDecisionError and is fatal.
func (d *DecisionEngine) DecideAll(results []ScoreResult, runID string) ([]entities.MatchDecision, error) {
	seen := make(map[string]struct{}, len(results))
	var decisions []entities.MatchDecision

	for _, res := range results {
		if res.Err != nil {
			continue
		}

		key := res.Pair.Key()
		if _, dup := seen[key]; dup {
			return nil, &entities.DuplicateDecisionError{PairKey: key}
		}
		seen[key] = struct{}{}

		decision := d.Decide(res.Pair, res.Score)
		if decision == nil {
			continue
		}
		decision.RunID = runID
		decisions = append(decisions, *decision)
	}

	sort.Slice(decisions, func(i, j int) bool {
		if decisions[i].SimilarityScore != decisions[j].SimilarityScore {
			return decisions[i].SimilarityScore > decisions[j].SimilarityScore
		}
		return decisions[i].PairKey() < decisions[j].PairKey()
	})

	for i := range decisions {
		decisions[i].MatchID = MatchID(runID, i+1)
	}

	return decisions, nil
}

// MatchID formats the match identifier for a 1-based similarity rank
// within a run.
func MatchID(runID string, rank int) string {
	return fmt.Sprintf("%s-M%06d", runID, rank)
}
