package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruvector/rvf/index"
)

func TestSafetyNetDisabledWhenEitherBudgetIsZero(t *testing.T) {
	e := &Engine{HotCache: []index.HotCacheBlock{
		{ID: 0, VectorIDs: []uint64{1}, Vectors: []index.Vector{{1}}},
	}}
	already := []index.Candidate{{ID: 5, Distance: 0}}

	merged, scanned, exhausted := e.safetyNet(Query{BruteForceTimeBudgetUs: 0, BruteForceCandidateBudget: 10}, already)
	assert.Equal(t, already, merged)
	assert.Equal(t, uint64(0), scanned)
	assert.False(t, exhausted)

	merged, _, _ = e.safetyNet(Query{BruteForceTimeBudgetUs: 1000, BruteForceCandidateBudget: 0}, already)
	assert.Equal(t, already, merged)
}

func TestSafetyNetAddsUnseenHotCacheVectors(t *testing.T) {
	e := &Engine{HotCache: []index.HotCacheBlock{
		{ID: 0, VectorIDs: []uint64{1, 2}, Vectors: []index.Vector{{0, 0}, {5, 5}}},
	}}
	already := []index.Candidate{{ID: 1, Distance: 0}}

	merged, scanned, exhausted := e.safetyNet(Query{
		Vector:                    index.Vector{0, 0},
		BruteForceTimeBudgetUs:    1_000_000,
		BruteForceCandidateBudget: 10,
	}, already)
	require.False(t, exhausted)
	assert.Equal(t, uint64(2), scanned)

	ids := make(map[uint64]bool)
	for _, c := range merged {
		ids[c.ID] = true
	}
	assert.True(t, ids[1])
	assert.True(t, ids[2])
}

func TestSafetyNetBudgetExhaustedStopsScan(t *testing.T) {
	e := &Engine{HotCache: []index.HotCacheBlock{
		{ID: 0, VectorIDs: []uint64{1}, Vectors: []index.Vector{{1}}},
		{ID: 1, VectorIDs: []uint64{2}, Vectors: []index.Vector{{2}}},
		{ID: 2, VectorIDs: []uint64{3}, Vectors: []index.Vector{{3}}},
	}}

	_, scanned, exhausted := e.safetyNet(Query{
		Vector:                    index.Vector{0},
		BruteForceTimeBudgetUs:    1_000_000,
		BruteForceCandidateBudget: 1,
	}, nil)
	assert.True(t, exhausted)
	assert.Equal(t, uint64(1), scanned)
}
