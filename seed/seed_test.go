package seed

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruvector/rvf/format"
	"github.com/ruvector/rvf/security"
)

// buildSeed assembles a full RVQS payload from a header, microkernel bytes,
// and a pre-encoded manifest payload, signing the result if signer is
// non-nil.
func buildSeed(t *testing.T, microkernel, manifestPayload []byte, signer security.Signer) []byte {
	t.Helper()

	h := &format.SeedHeader{
		Version:   format.SeedVersion1,
		FileID:    0xA5A5A5A5,
		Dimension: 4,
		BaseDtype: format.DtypeFloat32,
	}
	h.MicrokernelOffset = format.SeedHeaderFixedSize
	h.MicrokernelSize = uint32(len(microkernel))
	h.ManifestOffset = h.MicrokernelOffset + h.MicrokernelSize
	h.ManifestSize = uint32(len(manifestPayload))

	h.Flags = format.SeedFlagDownloadManifest
	if len(microkernel) > 0 {
		h.Flags |= format.SeedFlagMicrokernelPresent
	}

	// The signature's length (and so total_seed_size) must be known
	// before the signed prefix is assembled, since both fields live
	// inside that prefix. Ed25519 signatures are a fixed 64 bytes, so
	// this is knowable up front without a chicken-and-egg signing pass.
	sigLen := 0
	if signer != nil {
		h.Flags |= format.SeedFlagSigned
		h.SigAlgo = signer.Algo()
		sigLen = 64
	}
	h.SigLength = uint16(sigLen)
	h.TotalSeedSize = uint32(int(h.ManifestOffset)+len(manifestPayload)+sigLen)

	fixed := h.MarshalBinary()
	signedBytes := append(append(append([]byte(nil), fixed...), microkernel...), manifestPayload...)

	var sig []byte
	if signer != nil {
		var err error
		sig, err = signer.Sign(signedBytes)
		require.NoError(t, err)
	}

	full := append(append([]byte(nil), signedBytes...), sig...)
	return full
}

func sampleManifestPayload() []byte {
	var buf []byte
	buf = format.AppendTLV(buf, format.TagPrimaryHost, []byte("primary.example.com"))
	buf = format.AppendTLV(buf, format.TagFallbackHost, []byte("fallback.example.com"))
	buf = format.AppendTLV(buf, format.TagTTLSeconds, le32(3600))
	buf = format.AppendTLV(buf, format.TagTotalSize, le64(1 << 20))
	layers := []format.LayerEntry{
		{LayerID: 0, Priority: 0, RequiredFlag: true, Offset: 0, Size: 64, ContentHash: format.ContentHash128([]byte("layer-0"))},
		{LayerID: 1, Priority: 1, RequiredFlag: false, Offset: 64, Size: 32, ContentHash: format.ContentHash128([]byte("layer-1"))},
	}
	buf = format.AppendTLV(buf, format.TagLayerManifest, format.EncodeLayerManifest(layers))
	return buf
}

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func le64(v uint64) []byte {
	out := make([]byte, 8)
	for i := range out {
		out[i] = byte(v >> (8 * i))
	}
	return out
}

func TestParseSeedRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	signer, err := security.NewEd25519Signer(priv)
	require.NoError(t, err)

	data := buildSeed(t, []byte("microkernel-bytes"), sampleManifestPayload(), signer)

	p, err := ParseSeed(data)
	require.NoError(t, err)
	assert.Equal(t, []byte("microkernel-bytes"), p.Microkernel)
	assert.NotEmpty(t, p.Signature)

	verifier, err := security.NewEd25519Verifier(pub)
	require.NoError(t, err)
	ts := security.NewTrustStore()
	ts.AddSigner("fp-1", verifier)

	v, err := VerifySeed(p, ts)
	require.NoError(t, err)
	require.NotNil(t, v)
}

func TestParseSeedRejectsShortBuffer(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	signer, err := security.NewEd25519Signer(priv)
	require.NoError(t, err)
	data := buildSeed(t, nil, sampleManifestPayload(), signer)

	_, err = ParseSeed(data[:len(data)-5])
	assert.Error(t, err)
}

func TestVerifySeedRejectsUnsigned(t *testing.T) {
	data := buildSeed(t, nil, sampleManifestPayload(), nil)
	p, err := ParseSeed(data)
	require.NoError(t, err)

	ts := security.NewTrustStore()
	_, err = VerifySeed(p, ts)
	assert.Error(t, err)
}

func TestVerifySeedRejectsUnknownSigner(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	signer, err := security.NewEd25519Signer(priv)
	require.NoError(t, err)
	data := buildSeed(t, nil, sampleManifestPayload(), signer)

	p, err := ParseSeed(data)
	require.NoError(t, err)

	ts := security.NewTrustStore()
	_, err = VerifySeed(p, ts)
	assert.Error(t, err)
}

func TestDecodeDownloadManifest(t *testing.T) {
	payload := sampleManifestPayload()
	m, err := DecodeDownloadManifest(payload)
	require.NoError(t, err)
	assert.Equal(t, "primary.example.com", m.PrimaryHost)
	assert.Equal(t, "fallback.example.com", m.FallbackHost)
	assert.Equal(t, uint32(3600), m.TTLSeconds)
	assert.Equal(t, uint64(1<<20), m.TotalSize)
	require.Len(t, m.Layers, 2)
	assert.Equal(t, uint16(1), m.Layers[1].LayerID)
}
