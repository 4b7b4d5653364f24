package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortCandidatesDistanceThenID(t *testing.T) {
	c := []Candidate{
		{ID: 5, Distance: 2},
		{ID: 1, Distance: 2},
		{ID: 9, Distance: 1},
	}
	SortCandidates(c)
	require.Len(t, c, 3)
	assert.Equal(t, uint64(9), c[0].ID)
	assert.Equal(t, uint64(1), c[1].ID)
	assert.Equal(t, uint64(5), c[2].ID)
}

func sampleLayerSetAndVectors() (*LayerSet, MapVectorSource) {
	vectors := MapVectorSource{
		0: Vector{0, 0},
		1: Vector{1, 0},
		2: Vector{2, 0},
		3: Vector{3, 0},
		4: Vector{10, 0},
	}
	layers := &LayerSet{
		Bottom: 1,
		Graphs: map[int]*Graph{
			0: {EntryPoint: 0, Neighbors: map[uint32][]uint32{0: {2}}},
			1: {EntryPoint: 0, Neighbors: map[uint32][]uint32{
				0: {1, 2},
				2: {0, 3, 4},
			}},
		},
	}
	return layers, vectors
}

func TestTraverseFindsNearestNeighbors(t *testing.T) {
	layers, vectors := sampleLayerSetAndVectors()
	results, reachedBottom := Traverse(layers, 0, Vector{3, 0}, vectors, 4)
	require.NotEmpty(t, results)
	assert.Equal(t, uint64(3), results[0].ID)
	assert.True(t, reachedBottom)
}

func TestTraverseSkipsUnmountedLayers(t *testing.T) {
	layers := &LayerSet{
		Bottom: 2,
		Graphs: map[int]*Graph{
			0: {EntryPoint: 0, Neighbors: map[uint32][]uint32{0: {1}}},
			// layer 1 intentionally absent (unmounted)
			2: {EntryPoint: 0, Neighbors: map[uint32][]uint32{1: {2}}},
		},
	}
	vectors := MapVectorSource{0: {0}, 1: {1}, 2: {2}}
	results, reachedBottom := Traverse(layers, 0, Vector{2}, vectors, 10)
	ids := make([]uint64, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	assert.Contains(t, ids, uint64(2))
	assert.False(t, reachedBottom, "layer 1 was skipped, so traversal did not reach the true bottom")
}

func TestConsolidateCandidatesMergesAndDedupes(t *testing.T) {
	vectors := MapVectorSource{
		1: Vector{1, 0},
		2: Vector{2, 0},
		3: Vector{3, 0},
	}
	hnsw := []Candidate{{ID: 1, Distance: L2Squared(Vector{0, 0}, vectors[1])}}
	merged := ConsolidateCandidates(hnsw, []uint64{1, 2, 3}, vectors, Vector{0, 0}, 2)
	require.Len(t, merged, 2)
	assert.Equal(t, uint64(1), merged[0].ID)
	assert.Equal(t, uint64(2), merged[1].ID)
}

func TestConsolidateCandidatesSkipsUnresolvableBlockIDs(t *testing.T) {
	vectors := MapVectorSource{1: Vector{1, 0}}
	merged := ConsolidateCandidates(nil, []uint64{1, 999}, vectors, Vector{0, 0}, 10)
	require.Len(t, merged, 1)
	assert.Equal(t, uint64(1), merged[0].ID)
}
