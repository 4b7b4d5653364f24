package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruvector/rvf/format"
	"github.com/ruvector/rvf/index"
	"github.com/ruvector/rvf/internal/rvftest"
	"github.com/ruvector/rvf/store"
)

func TestProgressiveMountGrowsIndexState(t *testing.T) {
	ctx := context.Background()
	c := rvftest.NewTestContext(t, rvftest.TestConfig{TestLabelPrefix: "store-mount"})
	s := c.CreateSigned(ctx, "mount.rvf", store.WithDimension(2, byte(format.DtypeFloat32)))

	hcRef, err := s.AppendSegment(ctx, format.KindHotCacheSeg, index.EncodeHotCache([]index.HotCacheBlock{
		{ID: 0, VectorIDs: []uint64{1}, Vectors: []index.Vector{{1, 1}}},
	}))
	require.NoError(t, err)
	s.SetHotCache(hcRef)

	qdRef, err := s.AppendSegment(ctx, format.KindQuantDictSeg, index.EncodeQuantDict(&index.QuantDict{
		Scale: 1, Offset: 0, Vectors: map[uint64][]int8{2: {3, 4}},
	}))
	require.NoError(t, err)
	s.SetQuantDict(qdRef)

	vRef, err := s.AppendSegment(ctx, format.KindVectorBlock, index.EncodeVectorBlock(map[uint64]index.Vector{3: {5, 6}}))
	require.NoError(t, err)
	_ = vRef

	require.NoError(t, s.WriteManifest(ctx))

	st, err := s.MountHotset(ctx)
	require.NoError(t, err)
	assert.True(t, st.Table.Mounted(index.PriorityHotset))
	assert.False(t, st.Table.Mounted(index.PriorityHotCache))

	require.NoError(t, s.MountHotCache(ctx, st))
	require.Len(t, st.HotCache, 1)
	assert.True(t, st.Table.Mounted(index.PriorityHotCache))

	require.NoError(t, s.MountQuantDict(ctx, st))
	require.NotNil(t, st.QuantDict)
	v, ok := st.VectorSource().Vector(2)
	require.True(t, ok)
	assert.Equal(t, index.Vector{3, 4}, v)

	require.NoError(t, s.MountFullVectors(ctx, st))
	assert.True(t, st.Table.Mounted(index.PriorityFullVectors))
	v, ok = st.VectorSource().Vector(3)
	require.True(t, ok)
	assert.Equal(t, index.Vector{5, 6}, v)
}

func TestMountHotsetWithNoHotsetPointersIsEmptyButMounted(t *testing.T) {
	ctx := context.Background()
	c := rvftest.NewTestContext(t, rvftest.TestConfig{TestLabelPrefix: "store-mount-empty"})
	s := c.CreateSigned(ctx, "empty.rvf", store.WithDimension(2, byte(format.DtypeFloat32)))
	require.NoError(t, s.WriteManifest(ctx))

	st, err := s.MountHotset(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), st.EntryPoint)
	assert.Nil(t, st.Centroids)
	assert.True(t, st.Table.Mounted(index.PriorityHotset))
}
