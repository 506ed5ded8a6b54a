package entities

import "time"

// MatchMethod records how a decision reached its current status.
type MatchMethod string

const (
	MethodSimilarity      MatchMethod = "SIMILARITY"
	MethodOracleValidated MatchMethod = "ORACLE_VALIDATED"
)

// MatchStatus is the lifecycle state of a match decision. APPROVED and
// REJECTED are terminal; PENDING may transition exactly once, via
// adjudication.
type MatchStatus string

const (
	StatusApproved MatchStatus = "APPROVED"
	StatusPending  MatchStatus = "PENDING"
	StatusRejected MatchStatus = "REJECTED"
)

// Verdict is the outcome of one adjudication attempt. INCONCLUSIVE
// leaves the decision PENDING for a later re-run.
type Verdict string

const (
	VerdictApproved     Verdict = "APPROVED"
	VerdictRejected     Verdict = "REJECTED"
	VerdictInconclusive Verdict = "INCONCLUSIVE"
)

// MatchDecision is the persisted outcome for a candidate pair that
// cleared the review threshold. At most one exists per unordered
// entity pair.
type MatchDecision struct {
	MatchID         string      `json:"match_id"`
	RunID           string      `json:"run_id"`
	Source1         Source      `json:"source_1"`
	ID1             string      `json:"id_1"`
	Source2         Source      `json:"source_2"`
	ID2             string      `json:"id_2"`
	SimilarityScore float64     `json:"similarity_score"`
	Method          MatchMethod `json:"method"`
	Status          MatchStatus `json:"status"`
	Rationale       string      `json:"rationale,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Terminal reports whether the decision can no longer change status.
func (d MatchDecision) Terminal() bool {
	return d.Status == StatusApproved || d.Status == StatusRejected
}

// PairKey returns the unordered-pair identity of the decision.
func (d MatchDecision) PairKey() string {
	return d.ID1 + "|" + d.ID2
}
