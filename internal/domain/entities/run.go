package entities

import "time"

// RunKind distinguishes the pipeline stage that produced a run record.
type RunKind string

const (
	RunKindIngest     RunKind = "ingest"
	RunKindResolve    RunKind = "resolve"
	RunKindAdjudicate RunKind = "adjudicate"
)

// RunSummary holds the per-run counters surfaced to operators so that
// "nothing matched" can be distinguished from "pipeline degraded".
type RunSummary struct {
	Processed         int `json:"processed"`
	DroppedMalformed  int `json:"dropped_malformed"`
	Candidates        int `json:"candidates"`
	Scored            int `json:"scored"`
	UnresolvedScoring int `json:"unresolved_scoring"`
	Approved          int `json:"approved"`
	Pending           int `json:"pending"`
	Rejected          int `json:"rejected"`
	Inconclusive      int `json:"inconclusive"`
	OutOfRange        int `json:"out_of_range"`
}

// ResolutionRun is the persisted record of one pipeline execution.
type ResolutionRun struct {
	RunID      string     `json:"run_id"`
	Kind       RunKind    `json:"kind"`
	Summary    RunSummary `json:"summary"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}
