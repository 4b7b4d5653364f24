package query

import (
	"github.com/ruvector/rvf/index"
	"github.com/ruvector/rvf/observability"
)

// Query is the pure input tuple of spec §3 "Query": a vector, how many
// results to return, the ef_search candidate-queue width, and the two
// safety-net budgets. Setting either budget to zero disables the net for
// this call (spec §4.6 "setting either to zero disables the net").
type Query struct {
	Vector index.Vector
	K      int

	// EfSearch overrides the engine's default when non-zero.
	EfSearch int
	// NProbe overrides the engine's base_n_probe when non-zero.
	NProbe int

	BruteForceTimeBudgetUs    int64
	BruteForceCandidateBudget int
}

// Result is one ranked hit, tagged with the RetrievalQuality it was
// produced under (spec §4.5 "assign each result a RetrievalQuality").
type Result struct {
	ID       uint64
	Distance float64
	Quality  observability.RetrievalQuality
}

// Response is the full answer to a Query: results plus the quality
// signaling chain spec §3/§6 require at the API boundary. DegradationReason
// is only meaningful when ResponseQuality is Degraded or Unreliable.
type Response struct {
	Results             []Result
	ResponseQuality     observability.ResponseQuality
	DegradationReason    observability.DegradationReason
	TimeBudgetExhausted bool
	CandidatesScanned   uint64
	CandidatesBudget    uint64
}
