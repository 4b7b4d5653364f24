package seed

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selfSignedDER(t *testing.T) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "rvqs-test"},
		NotBefore:    time.Unix(0, 0),
		NotAfter:     time.Unix(0, 0).AddDate(10, 0, 0),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return der
}

func TestHTTPFetcherVerifyPinAcceptsMatchingCert(t *testing.T) {
	der := selfSignedDER(t)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	pin := sha256.Sum256(cert.RawSubjectPublicKeyInfo)

	f := NewHTTPFetcher(pin[:])
	assert.NoError(t, f.verifyPin([][]byte{der}))
}

func TestHTTPFetcherVerifyPinRejectsMismatchedCert(t *testing.T) {
	der := selfSignedDER(t)
	f := NewHTTPFetcher([]byte("not-the-right-pin-aaaaaaaaaaaaaa"))
	assert.Error(t, f.verifyPin([][]byte{der}))
}

func TestHTTPFetcherVerifyPinRejectsWhenNoPinConfigured(t *testing.T) {
	der := selfSignedDER(t)
	f := NewHTTPFetcher(nil)
	assert.Error(t, f.verifyPin([][]byte{der}))
}
