package handlers

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/secmatch/internal/domain/entities"
	"github.com/ersonp/secmatch/internal/domain/mocks"
	"github.com/ersonp/secmatch/internal/domain/services"
)

func testAdjudicatorOptions() services.AdjudicatorOptions {
	return services.AdjudicatorOptions{
		MaxConcurrency: 2,
		OracleTimeout:  time.Second,
		RetryAttempts:  2,
		RetryBackoff:   time.Millisecond,
	}
}

func seedPendingDecision(t *testing.T, store *mocks.Store, matchID string, e1, e2 entities.HarmonizedEntity, score float64) {
	t.Helper()
	require.NoError(t, store.SaveEntities(t.Context(), []entities.HarmonizedEntity{e1, e2}))
	now := time.Now()
	_, err := store.SaveDecisions(t.Context(), []entities.MatchDecision{{
		MatchID:         matchID,
		RunID:           "run-1",
		Source1:         e1.Source,
		ID1:             e1.HarmonizedID,
		Source2:         e2.Source,
		ID2:             e2.HarmonizedID,
		SimilarityScore: score,
		Method:          entities.MethodSimilarity,
		Status:          entities.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}})
	require.NoError(t, err)
}

func TestAdjudicateHandler_Handle(t *testing.T) {
	a1 := testEntity(entities.SourceFeedA, "SEC001", "HSBC HOLDINGS", "HSBC", "EQUITY")
	b1 := testEntity(entities.SourceFeedB, "HSBA.L", "HSBC HOLDINGS ORD", "HSBC", "EQUITY")

	store := mocks.NewStore()
	seedPendingDecision(t, store, "M000001", a1, b1, 0.85)

	reasoner := &mocks.Reasoner{Response: "APPROVED - strong name overlap"}
	adjudicator := services.NewAdjudicator(reasoner, store, testAdjudicatorOptions())
	handler := NewAdjudicateHandler(adjudicator, store, zerolog.Nop())

	result, err := handler.Handle(t.Context(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.Processed)
	assert.Equal(t, 1, result.Stats.Approved)

	decision, err := store.FindDecision(t.Context(), "M000001")
	require.NoError(t, err)
	assert.Equal(t, entities.StatusApproved, decision.Status)
	assert.Equal(t, entities.MethodOracleValidated, decision.Method)
	assert.Equal(t, "strong name overlap", decision.Rationale)

	runs, err := store.ListRuns(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, entities.RunKindAdjudicate, runs[0].Kind)
	assert.Equal(t, 1, runs[0].Summary.Approved)
}

func TestAdjudicateHandler_Handle_SecondPassNoOp(t *testing.T) {
	a1 := testEntity(entities.SourceFeedA, "SEC001", "HSBC HOLDINGS", "HSBC", "EQUITY")
	b1 := testEntity(entities.SourceFeedB, "HSBA.L", "HSBC HOLDINGS ORD", "HSBC", "EQUITY")

	store := mocks.NewStore()
	seedPendingDecision(t, store, "M000001", a1, b1, 0.85)

	reasoner := &mocks.Reasoner{Response: "REJECTED - different share classes"}
	adjudicator := services.NewAdjudicator(reasoner, store, testAdjudicatorOptions())
	handler := NewAdjudicateHandler(adjudicator, store, zerolog.Nop())

	_, err := handler.Handle(t.Context(), 0)
	require.NoError(t, err)
	require.Equal(t, 1, reasoner.Calls())

	// Nothing pending remains; a second pass touches no decisions and
	// never calls the oracle.
	second, err := handler.Handle(t.Context(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Stats.Processed)
	assert.Equal(t, 1, reasoner.Calls())
}

func TestAdjudicateHandler_Handle_LimitRespected(t *testing.T) {
	a1 := testEntity(entities.SourceFeedA, "SEC001", "HSBC", "HSBC", "EQUITY")
	b1 := testEntity(entities.SourceFeedB, "B1.L", "HSBC ORD", "HSBC", "EQUITY")
	a2 := testEntity(entities.SourceFeedA, "SEC002", "BARCLAYS", "BARCLAYS", "EQUITY")
	b2 := testEntity(entities.SourceFeedB, "B2.L", "BARCLAYS ORD", "BARCLAYS", "EQUITY")

	store := mocks.NewStore()
	seedPendingDecision(t, store, "M000001", a1, b1, 0.85)
	seedPendingDecision(t, store, "M000002", a2, b2, 0.82)

	reasoner := &mocks.Reasoner{Response: "APPROVED - matching issuers"}
	adjudicator := services.NewAdjudicator(reasoner, store, testAdjudicatorOptions())
	handler := NewAdjudicateHandler(adjudicator, store, zerolog.Nop())

	result, err := handler.Handle(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.Processed)

	pending, err := store.ListDecisionsByStatus(t.Context(), entities.StatusPending, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestAdjudicateHandler_Handle_InconclusiveCountedAsPending(t *testing.T) {
	a1 := testEntity(entities.SourceFeedA, "SEC001", "HSBC", "HSBC", "EQUITY")
	b1 := testEntity(entities.SourceFeedB, "B1.L", "HSBC ORD", "HSBC", "EQUITY")

	store := mocks.NewStore()
	seedPendingDecision(t, store, "M000001", a1, b1, 0.85)

	reasoner := &mocks.Reasoner{Response: "hard to say either way"}
	adjudicator := services.NewAdjudicator(reasoner, store, testAdjudicatorOptions())
	handler := NewAdjudicateHandler(adjudicator, store, zerolog.Nop())

	result, err := handler.Handle(t.Context(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.Inconclusive)

	runs, err := store.ListRuns(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Summary.Pending)
}
