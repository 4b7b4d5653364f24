package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedHeaderRoundTrip(t *testing.T) {
	h := &SeedHeader{
		Version:           SeedVersion1,
		Flags:             SeedFlagMicrokernelPresent | SeedFlagDownloadManifest | SeedFlagSigned,
		FileID:            42,
		TotalVectorCount:  1000,
		Dimension:         384,
		BaseDtype:         DtypeFloat32,
		MicrokernelOffset: SeedHeaderFixedSize,
		MicrokernelSize:   512,
		ManifestOffset:    SeedHeaderFixedSize + 512,
		ManifestSize:      256,
		SigAlgo:           SigAlgoEd25519,
		SigLength:         Ed25519SigBytes,
		TotalSeedSize:     SeedHeaderFixedSize + 512 + 256 + Ed25519SigBytes,
	}
	h.ContentHash = ContentHash64([]byte("expanded rvf bytes"))

	buf := h.MarshalBinary()
	require.Len(t, buf, SeedHeaderFixedSize)

	got, err := ParseSeedHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h.FileID, got.FileID)
	assert.Equal(t, h.Flags, got.Flags)
	assert.Equal(t, h.MicrokernelSize, got.MicrokernelSize)
	assert.Equal(t, h.ContentHash, got.ContentHash)
}

func TestSeedHeaderInvalidMagic(t *testing.T) {
	h := &SeedHeader{Version: SeedVersion1}
	buf := h.MarshalBinary()
	buf[0] = 0
	_, err := ParseSeedHeader(buf)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestSeedHeaderTooShort(t *testing.T) {
	_, err := ParseSeedHeader(make([]byte, SeedHeaderFixedSize-1))
	assert.ErrorIs(t, err, ErrShortPage)
}
