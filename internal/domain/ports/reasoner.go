package ports

import (
	"context"

	"github.com/ersonp/secmatch/internal/domain/entities"
)

// ReviewRequest carries the two sides of a pending match plus the
// similarity score into the reasoning oracle.
type ReviewRequest struct {
	Entity1 entities.HarmonizedEntity
	Entity2 entities.HarmonizedEntity
	Score   float64
}

// Reasoner is the reasoning oracle used to adjudicate pending matches.
// It returns the oracle's raw free-text response; classifying that
// response into a verdict is the adjudicator's job, so the parsing
// contract stays auditable in one place.
type Reasoner interface {
	ReviewMatch(ctx context.Context, req ReviewRequest) (string, error)
}
