package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruvector/rvf/format"
)

func sampleDirectory() *Directory {
	return &Directory{Entries: []Entry{
		{
			Kind:        format.KindIndexSeg,
			Offset:      4096,
			Size:        1024,
			ContentHash: format.ContentHash128([]byte("layer-0")),
			Meta:        &SegmentMeta{HNSWM: 16, HNSWEfConstruction: 200, LayerIndex: 0},
		},
		{
			Kind:        format.KindIndexSeg,
			Offset:      5120,
			Size:        2048,
			ContentHash: format.ContentHash128([]byte("layer-1")),
			Meta:        &SegmentMeta{HNSWM: 16, HNSWEfConstruction: 200, LayerIndex: 1},
		},
		{
			Kind:        format.KindVectorBlock,
			Offset:      7168,
			Size:        512,
			ContentHash: format.ContentHash128([]byte("vectors")),
		},
	}}
}

func TestDirectoryRoundTrip(t *testing.T) {
	dir := sampleDirectory()
	payload, err := dir.MarshalBinary()
	require.NoError(t, err)

	got, err := UnmarshalDirectory(payload)
	require.NoError(t, err)
	require.Len(t, got.Entries, 3)
	assert.Equal(t, dir.Entries[0].Offset, got.Entries[0].Offset)
	assert.Equal(t, dir.Entries[0].ContentHash, got.Entries[0].ContentHash)
	require.NotNil(t, got.Entries[0].Meta)
	assert.Equal(t, uint8(0), got.Entries[0].Meta.LayerIndex)
	assert.Equal(t, uint8(1), got.Entries[1].Meta.LayerIndex)
	assert.Nil(t, got.Entries[2].Meta)
}

func TestDirectoryFind(t *testing.T) {
	dir := sampleDirectory()
	e, ok := dir.Find(format.KindIndexSeg, 5120)
	require.True(t, ok)
	assert.Equal(t, uint8(1), e.Meta.LayerIndex)

	_, ok = dir.Find(format.KindIndexSeg, 9999)
	assert.False(t, ok)
}

func TestDirectoryByKind(t *testing.T) {
	dir := sampleDirectory()
	layers := dir.ByKind(format.KindIndexSeg)
	assert.Len(t, layers, 2)
	blocks := dir.ByKind(format.KindVectorBlock)
	assert.Len(t, blocks, 1)
}

func TestDirectoryLiveDropsTombstoned(t *testing.T) {
	dir := sampleDirectory()
	live := dir.Live(map[uint64]bool{5120: true})
	require.Len(t, live.Entries, 2)
	for _, e := range live.Entries {
		assert.NotEqual(t, uint64(5120), e.Offset)
	}
}

func TestHashEqual(t *testing.T) {
	a := format.ContentHash128([]byte("x"))
	b := format.ContentHash128([]byte("x"))
	c := format.ContentHash128([]byte("y"))
	assert.True(t, HashEqual(a, b))
	assert.False(t, HashEqual(a, c))
}
