package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruvector/rvf/index"
	"github.com/ruvector/rvf/observability"
)

func buildFixture() (*index.CentroidSet, *index.LayerSet, index.MapVectorSource) {
	vectors := index.MapVectorSource{
		0:  {0, 0},
		1:  {1, 0},
		2:  {2, 0},
		3:  {3, 0},
		4:  {50, 0},
		10: {1, 1},
		11: {2, 2},
	}
	centroids := &index.CentroidSet{
		Dimension: 2,
		Centroids: []index.Centroid{
			{ID: 0, Vector: index.Vector{0, 0}, BlockIDs: []uint32{0, 1, 2, 3}},
			{ID: 1, Vector: index.Vector{50, 50}, BlockIDs: []uint32{4}},
		},
	}
	layers := &index.LayerSet{
		Bottom: 0,
		Graphs: map[int]*index.Graph{
			0: {EntryPoint: 0, Neighbors: map[uint32][]uint32{
				0: {1, 2},
				1: {3},
			}},
		},
	}
	return centroids, layers, vectors
}

func TestEngineQueryReturnsNearestResults(t *testing.T) {
	centroids, layers, vectors := buildFixture()
	e := NewEngine(centroids, layers, index.NewMountTable(), vectors, nil, 0, 2, 10)

	resp := e.Query(Query{Vector: index.Vector{3, 0}, K: 2})
	require.Len(t, resp.Results, 2)
	assert.Equal(t, uint64(3), resp.Results[0].ID)
}

func TestEngineQueryDefaultsEfSearchAndNProbe(t *testing.T) {
	centroids, layers, vectors := buildFixture()
	e := NewEngine(centroids, layers, index.NewMountTable(), vectors, nil, 0, 1, 5)

	resp := e.Query(Query{Vector: index.Vector{0, 0}, K: 1})
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, uint64(0), resp.Results[0].ID)
}

func TestEngineQueryUsesSafetyNetWhenConsolidatedSetIsThin(t *testing.T) {
	centroids, layers, vectors := buildFixture()
	e := NewEngine(centroids, layers, index.NewMountTable(), vectors, []index.HotCacheBlock{
		{ID: 0, VectorIDs: []uint64{10, 11}, Vectors: []index.Vector{{1, 1}, {2, 2}}},
	}, 0, 1, 2)

	resp := e.Query(Query{
		Vector:                    index.Vector{1, 1},
		K:                         5,
		BruteForceTimeBudgetUs:    1_000_000,
		BruteForceCandidateBudget: 100,
	})
	require.NotEmpty(t, resp.Results)
	found := false
	for _, r := range resp.Results {
		if r.ID == 10 {
			found = true
			assert.Equal(t, observability.RetrievalBruteForceFallback, r.Quality)
		}
	}
	assert.True(t, found, "hot cache vector 10 should surface via the safety net")
}

func TestEngineQualityFullWhenEverythingResolves(t *testing.T) {
	centroids, layers, vectors := buildFixture()
	mounts := index.NewMountTable()
	mounts.Mount(index.PriorityLayerC)
	e := NewEngine(centroids, layers, mounts, vectors, nil, 0, 2, 10)

	resp := e.Query(Query{Vector: index.Vector{1, 0}, K: 1})
	assert.Equal(t, observability.QualityFull, resp.ResponseQuality)
}

func TestEngineQualityDegradedWhenLayerCNotMounted(t *testing.T) {
	centroids, layers, vectors := buildFixture()
	e := NewEngine(centroids, layers, index.NewMountTable(), vectors, nil, 0, 2, 10)

	resp := e.Query(Query{Vector: index.Vector{1, 0}, K: 1})
	assert.Equal(t, observability.QualityDegraded, resp.ResponseQuality)
	assert.Equal(t, observability.DegradationIncompleteMount, resp.DegradationReason.Kind)
}

func TestEngineQualityMonotonicAcrossMountSupersets(t *testing.T) {
	centroids, layers, vectors := buildFixture()

	s1 := index.NewMountTable()
	resp1 := NewEngine(centroids, layers, s1, vectors, nil, 0, 2, 10).Query(Query{Vector: index.Vector{1, 0}, K: 1})

	s2 := index.NewMountTable()
	s2.Mount(index.PriorityLayerC)
	resp2 := NewEngine(centroids, layers, s2, vectors, nil, 0, 2, 10).Query(Query{Vector: index.Vector{1, 0}, K: 1})

	assert.True(t, s2.Superset(s1))
	assert.GreaterOrEqual(t, int(resp1.ResponseQuality), int(resp2.ResponseQuality),
		"mounting more (s2 superset of s1) must never report worse quality")
}

func TestEngineQueryWithNoCentroidsOrLayersStillRunsSafetyNet(t *testing.T) {
	e := NewEngine(nil, nil, index.NewMountTable(), index.MapVectorSource{1: {1}}, []index.HotCacheBlock{
		{ID: 0, VectorIDs: []uint64{1}, Vectors: []index.Vector{{1}}},
	}, 0, 1, 1)

	resp := e.Query(Query{
		Vector:                    index.Vector{1},
		K:                         1,
		BruteForceTimeBudgetUs:    1_000_000,
		BruteForceCandidateBudget: 10,
	})
	require.Len(t, resp.Results, 1)
	assert.Equal(t, uint64(1), resp.Results[0].ID)
}
