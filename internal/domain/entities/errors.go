package entities

import (
	"errors"
	"fmt"
)

// Transient oracle failures. Both are retried with bounded backoff;
// exhaustion marks the item unresolved instead of aborting the run.
var (
	ErrScoringUnavailable      = errors.New("scoring unavailable")
	ErrAdjudicationUnavailable = errors.New("adjudication unavailable")
)

// MalformedRecordError reports a source row missing a required field.
// The caller drops the record and logs it; siblings in the same batch
// are unaffected.
type MalformedRecordError struct {
	Source Source
	Field  string
	Line   int
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record at line %d: missing %s", e.Source, e.Line, e.Field)
}

// DuplicateDecisionError means the blocking invariant was violated and
// the same unordered pair reached the decision engine twice. This is a
// programming defect and is fatal to the run.
type DuplicateDecisionError struct {
	PairKey string
}

func (e *DuplicateDecisionError) Error() string {
	return fmt.Sprintf("duplicate decision for pair %s", e.PairKey)
}
