package security

import (
	"crypto/ed25519"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruvector/rvf/format"
)

func TestEd25519SignerVerifierRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	signer, err := NewEd25519Signer(priv)
	require.NoError(t, err)
	assert.Equal(t, format.SigAlgoEd25519, signer.Algo())

	verifier, err := NewEd25519Verifier(pub)
	require.NoError(t, err)

	payload := []byte("level 0 signed prefix bytes")
	sig, err := signer.Sign(payload)
	require.NoError(t, err)

	assert.NoError(t, verifier.Verify(payload, sig))
}

func TestEd25519VerifierRejectsTamperedPayload(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	signer, err := NewEd25519Signer(priv)
	require.NoError(t, err)
	verifier, err := NewEd25519Verifier(pub)
	require.NoError(t, err)

	sig, err := signer.Sign([]byte("original"))
	require.NoError(t, err)

	assert.Error(t, verifier.Verify([]byte("tampered"), sig))
}

func TestEd25519VerifierRejectsWrongKey(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	otherPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	signer, err := NewEd25519Signer(priv)
	require.NoError(t, err)
	wrongVerifier, err := NewEd25519Verifier(otherPub)
	require.NoError(t, err)

	payload := []byte("payload")
	sig, err := signer.Sign(payload)
	require.NoError(t, err)

	assert.Error(t, wrongVerifier.Verify(payload, sig))
}

type fakeMLDSAVerifier struct {
	want []byte
}

func (f fakeMLDSAVerifier) Verify(payload, sig []byte) error {
	if string(sig) != string(f.want) {
		return errors.New("mldsa: signature mismatch")
	}
	return nil
}

func TestAsVerifierAdaptsMLDSA65Verifier(t *testing.T) {
	v := AsVerifier(fakeMLDSAVerifier{want: []byte("good-sig")})
	assert.NoError(t, v.Verify([]byte("payload"), []byte("good-sig")))
	assert.Error(t, v.Verify([]byte("payload"), []byte("bad-sig")))
}
