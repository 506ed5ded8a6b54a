package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/secmatch/internal/domain/entities"
)

func TestNewDecisionEngine(t *testing.T) {
	t.Run("defaults applied for non-positive thresholds", func(t *testing.T) {
		engine, err := NewDecisionEngine(0, 0)
		require.NoError(t, err)
		assert.Equal(t, DefaultApproveThreshold, engine.approveThreshold)
		assert.Equal(t, DefaultReviewThreshold, engine.reviewThreshold)
	})

	t.Run("review above approve rejected", func(t *testing.T) {
		_, err := NewDecisionEngine(0.80, 0.90)
		require.Error(t, err)
	})
}

func TestDecisionEngine_Decide(t *testing.T) {
	engine, err := NewDecisionEngine(0.90, 0.80)
	require.NoError(t, err)

	pair := entities.NewCandidatePair(
		testEntity(entities.SourceFeedA, "SEC001", "HSBC", "EQUITY"),
		testEntity(entities.SourceFeedB, "HSBA.L", "HSBC ORD", "EQUITY"),
	)

	tests := []struct {
		name       string
		score      float64
		wantNil    bool
		wantStatus entities.MatchStatus
	}{
		{name: "well above approve", score: 0.95, wantStatus: entities.StatusApproved},
		{name: "exactly approve threshold", score: 0.90, wantStatus: entities.StatusApproved},
		{name: "between thresholds", score: 0.85, wantStatus: entities.StatusPending},
		{name: "exactly review threshold", score: 0.80, wantStatus: entities.StatusPending},
		{name: "just below review threshold", score: 0.7999, wantNil: true},
		{name: "far below review threshold", score: 0.10, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := engine.Decide(pair, tt.score)
			if tt.wantNil {
				assert.Nil(t, decision)
				return
			}
			require.NotNil(t, decision)
			assert.Equal(t, tt.wantStatus, decision.Status)
			assert.Equal(t, entities.MethodSimilarity, decision.Method)
			assert.Equal(t, tt.score, decision.SimilarityScore)
			assert.Equal(t, pair.Entity1.HarmonizedID, decision.ID1)
			assert.Equal(t, pair.Entity2.HarmonizedID, decision.ID2)
		})
	}
}

func TestDecisionEngine_DecideAll(t *testing.T) {
	engine, err := NewDecisionEngine(0.90, 0.80)
	require.NoError(t, err)

	pairAB := entities.NewCandidatePair(
		testEntity(entities.SourceFeedA, "SEC001", "HSBC", "EQUITY"),
		testEntity(entities.SourceFeedB, "HSBA.L", "HSBC ORD", "EQUITY"),
	)
	pairAC := entities.NewCandidatePair(
		testEntity(entities.SourceFeedA, "SEC001", "HSBC", "EQUITY"),
		testEntity(entities.SourceFeedC, "FRN001", "HSBC FUND", "EQUITY"),
	)
	pairBC := entities.NewCandidatePair(
		testEntity(entities.SourceFeedB, "HSBA.L", "HSBC ORD", "EQUITY"),
		testEntity(entities.SourceFeedC, "FRN001", "HSBC FUND", "EQUITY"),
	)

	results := []ScoreResult{
		{Pair: pairAB, Score: 0.85},
		{Pair: pairAC, Score: 0.93},
		{Pair: pairBC, Score: 0.40},
	}

	decisions, err := engine.DecideAll(results, "run-1")
	require.NoError(t, err)
	require.Len(t, decisions, 2)

	// Ranked by descending score: the 0.93 pair gets rank 1.
	assert.Equal(t, "run-1-M000001", decisions[0].MatchID)
	assert.Equal(t, 0.93, decisions[0].SimilarityScore)
	assert.Equal(t, entities.StatusApproved, decisions[0].Status)
	assert.Equal(t, "run-1-M000002", decisions[1].MatchID)
	assert.Equal(t, entities.StatusPending, decisions[1].Status)

	for _, d := range decisions {
		assert.Equal(t, "run-1", d.RunID)
	}
}

func TestDecisionEngine_DecideAll_SkipsErroredResults(t *testing.T) {
	engine, err := NewDecisionEngine(0.90, 0.80)
	require.NoError(t, err)

	pair := entities.NewCandidatePair(
		testEntity(entities.SourceFeedA, "SEC001", "HSBC", "EQUITY"),
		testEntity(entities.SourceFeedB, "HSBA.L", "HSBC ORD", "EQUITY"),
	)

	decisions, err := engine.DecideAll([]ScoreResult{
		{Pair: pair, Err: entities.ErrScoringUnavailable},
	}, "run-1")
	require.NoError(t, err)
	assert.Empty(t, decisions)
}

func TestDecisionEngine_DecideAll_DuplicatePairFatal(t *testing.T) {
	engine, err := NewDecisionEngine(0.90, 0.80)
	require.NoError(t, err)

	pair := entities.NewCandidatePair(
		testEntity(entities.SourceFeedA, "SEC001", "HSBC", "EQUITY"),
		testEntity(entities.SourceFeedB, "HSBA.L", "HSBC ORD", "EQUITY"),
	)

	_, err = engine.DecideAll([]ScoreResult{
		{Pair: pair, Score: 0.95},
		{Pair: pair, Score: 0.91},
	}, "run-1")
	require.Error(t, err)

	var dup *entities.DuplicateDecisionError
	assert.ErrorAs(t, err, &dup)
}

func TestDecisionEngine_DecideAll_TieBreakByPairKey(t *testing.T) {
	engine, err := NewDecisionEngine(0.90, 0.80)
	require.NoError(t, err)

	pair1 := entities.NewCandidatePair(
		testEntity(entities.SourceFeedA, "SEC001", "A", "EQUITY"),
		testEntity(entities.SourceFeedB, "B1.L", "B", "EQUITY"),
	)
	pair2 := entities.NewCandidatePair(
		testEntity(entities.SourceFeedA, "SEC002", "C", "EQUITY"),
		testEntity(entities.SourceFeedB, "B2.L", "D", "EQUITY"),
	)

	// Same score, presented out of key order.
	decisions, err := engine.DecideAll([]ScoreResult{
		{Pair: pair2, Score: 0.92},
		{Pair: pair1, Score: 0.92},
	}, "run-1")
	require.NoError(t, err)
	require.Len(t, decisions, 2)
	assert.Less(t, decisions[0].PairKey(), decisions[1].PairKey())
	assert.Equal(t, "run-1-M000001", decisions[0].MatchID)
}

// TestDecisionEngine_DecideAll_DistinctIDsAcrossRuns covers the
// incremental case: a pair first seen in a later run can rank ahead of
// pairs persisted earlier, so its identifier must not repeat one
// already assigned to a different pair.
func TestDecisionEngine_DecideAll_DistinctIDsAcrossRuns(t *testing.T) {
	engine, err := NewDecisionEngine(0.90, 0.80)
	require.NoError(t, err)

	pair1 := entities.NewCandidatePair(
		testEntity(entities.SourceFeedA, "SEC001", "HSBC", "EQUITY"),
		testEntity(entities.SourceFeedB, "HSBA.L", "HSBC ORD", "EQUITY"),
	)
	pair2 := entities.NewCandidatePair(
		testEntity(entities.SourceFeedA, "SEC002", "VODAFONE", "EQUITY"),
		testEntity(entities.SourceFeedB, "VOD.L", "VODAFONE ORD", "EQUITY"),
	)

	first, err := engine.DecideAll([]ScoreResult{{Pair: pair1, Score: 0.91}}, "run-1")
	require.NoError(t, err)
	require.Len(t, first, 1)

	// pair2 outranks pair1 in the second run; both are rank 1 within
	// their own runs but the IDs never collide.
	second, err := engine.DecideAll([]ScoreResult{
		{Pair: pair1, Score: 0.91},
		{Pair: pair2, Score: 0.97},
	}, "run-2")
	require.NoError(t, err)
	require.Len(t, second, 2)

	assert.Equal(t, "run-2-M000001", second[0].MatchID)
	assert.NotEqual(t, first[0].MatchID, second[0].MatchID)
	assert.NotEqual(t, first[0].MatchID, second[1].MatchID)
}

func TestMatchID(t *testing.T) {
	assert.Equal(t, "run-1-M000001", MatchID("run-1", 1))
	assert.Equal(t, "run-1-M000042", MatchID("run-1", 42))
	assert.Equal(t, "run-2-M123456", MatchID("run-2", 123456))
}
