package security

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerifier(t *testing.T) (ed25519.PrivateKey, Verifier) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	v, err := NewEd25519Verifier(pub)
	require.NoError(t, err)
	return priv, v
}

func TestTrustStoreLookup(t *testing.T) {
	_, v := newVerifier(t)
	ts := NewTrustStore()
	ts.AddSigner("fp-1", v)

	got, ok := ts.Lookup("fp-1")
	assert.True(t, ok)
	assert.NotNil(t, got)

	_, ok = ts.Lookup("unknown")
	assert.False(t, ok)
}

func TestTrustStoreFingerprintsOrderIndependent(t *testing.T) {
	_, v1 := newVerifier(t)
	_, v2 := newVerifier(t)
	ts := NewTrustStore()
	ts.AddSigner("fp-1", v1)
	ts.AddSigner("fp-2", v2)

	fps := ts.Fingerprints()
	assert.Len(t, fps, 2)
	assert.Contains(t, fps, "fp-1")
	assert.Contains(t, fps, "fp-2")
}

func TestTrustStoreExpectedSigner(t *testing.T) {
	ts := NewTrustStore()
	_, ok := ts.ExpectedSigner(42)
	assert.False(t, ok)

	ts.ExpectSigner(42, "fp-pinned")
	fp, ok := ts.ExpectedSigner(42)
	assert.True(t, ok)
	assert.Equal(t, "fp-pinned", fp)
}
