package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCentroidSet() *CentroidSet {
	return &CentroidSet{
		Dimension: 2,
		Centroids: []Centroid{
			{ID: 0, Vector: Vector{0, 0}, BlockIDs: []uint32{1, 2}},
			{ID: 1, Vector: Vector{10, 10}, BlockIDs: []uint32{3}},
			{ID: 2, Vector: Vector{20, 20}, BlockIDs: []uint32{4, 5}},
		},
	}
}

func TestCentroidSetEncodeDecodeRoundTrip(t *testing.T) {
	cs := sampleCentroidSet()
	payload := EncodeCentroidSet(cs)

	got, err := DecodeCentroidSet(payload, 2)
	require.NoError(t, err)
	require.Len(t, got.Centroids, 3)
	assert.Equal(t, cs.Centroids[1].Vector, got.Centroids[1].Vector)
	assert.Equal(t, cs.Centroids[2].BlockIDs, got.Centroids[2].BlockIDs)
}

func TestCentroidSetDecodeTruncatedPayload(t *testing.T) {
	cs := sampleCentroidSet()
	payload := EncodeCentroidSet(cs)
	_, err := DecodeCentroidSet(payload[:len(payload)-1], 2)
	assert.Error(t, err)
}

func TestCentroidSetProbeOrdersByDistance(t *testing.T) {
	cs := sampleCentroidSet()
	hits := cs.Probe(Vector{1, 1}, 2)
	require.Len(t, hits, 2)
	assert.Equal(t, uint32(0), hits[0].ID)
	assert.Equal(t, uint32(1), hits[1].ID)
}

func TestDegeneracyCheckUniformDistancesAreDegenerate(t *testing.T) {
	cv, degenerate := DegeneracyCheck([]float64{10, 10, 10, 10}, 0.05)
	assert.Equal(t, 0.0, cv)
	assert.True(t, degenerate)
}

func TestDegeneracyCheckSpreadDistancesAreNotDegenerate(t *testing.T) {
	cv, degenerate := DegeneracyCheck([]float64{1, 100, 400, 900}, 0.05)
	assert.Greater(t, cv, 0.05)
	assert.False(t, degenerate)
}

func TestDegeneracyCheckEmptyInput(t *testing.T) {
	cv, degenerate := DegeneracyCheck(nil, 0.05)
	assert.Equal(t, 0.0, cv)
	assert.False(t, degenerate)
}

func TestWidenedNProbeCapsAtSqrtK(t *testing.T) {
	assert.Equal(t, 32, WidenedNProbe(8, 100000))
	assert.Equal(t, 10, WidenedNProbe(8, 100))
}
