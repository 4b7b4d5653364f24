package query

import (
	"time"

	"github.com/ruvector/rvf/bloom"
	"github.com/ruvector/rvf/index"
	"github.com/ruvector/rvf/observability"
)

// safetyNet implements spec §4.6: a dual-budgeted exact scan over the
// hot-cache blocks in their stored order, merged with the already
// consolidated candidates. Either budget set to zero disables the net
// entirely (spec "setting either to zero disables the net").
//
// already holds the candidates consolidation already found; a bloom sketch
// prefilters ids likely already present so the scan doesn't pay for an
// exact membership check on every hot-cache vector, falling back to the
// exact seen-set on any sketch hit (a false positive here can only cost a
// redundant map lookup, never drop a genuine new candidate, per the sketch's
// own never-decide-inclusion contract in bloom/candidate.go).
func (e *Engine) safetyNet(q Query, already []index.Candidate) ([]index.Candidate, uint64, bool) {
	if q.BruteForceTimeBudgetUs <= 0 || q.BruteForceCandidateBudget <= 0 {
		return already, 0, false
	}

	seen := make(map[uint64]bool, len(already))
	for _, c := range already {
		seen[c.ID] = true
	}
	sketch, err := bloom.NewCandidateSketch(uint64(len(already)+1), 10, 7)
	if err == nil && sketch != nil {
		for _, c := range already {
			_ = sketch.InsertID(c.ID)
		}
	}

	merged := append([]index.Candidate(nil), already...)
	deadline := time.Now().Add(time.Duration(q.BruteForceTimeBudgetUs) * time.Microsecond)
	var scanned uint64
	var budgetExhausted bool

	for _, block := range e.HotCache {
		if int(scanned) >= q.BruteForceCandidateBudget || time.Now().After(deadline) {
			budgetExhausted = true
			break
		}
		for i, id := range block.VectorIDs {
			if isSeen(sketch, seen, id, err) {
				continue
			}
			seen[id] = true
			if sketch != nil {
				_ = sketch.InsertID(id)
			}
			d := index.L2Squared(q.Vector, block.Vectors[i])
			merged = append(merged, index.Candidate{ID: id, Distance: d, Quality: observability.RetrievalBruteForceFallback})
		}
		scanned += uint64(len(block.VectorIDs))
	}

	index.SortCandidates(merged)
	return merged, scanned, budgetExhausted
}

func isSeen(sketch *bloom.CandidateSketch, exact map[uint64]bool, id uint64, sketchErr error) bool {
	if sketchErr == nil && sketch != nil {
		if maybe, err := sketch.MayContain(id); err == nil && !maybe {
			return false
		}
	}
	return exact[id]
}
