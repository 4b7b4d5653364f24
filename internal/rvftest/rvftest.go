// Package rvftest is the test-fixture harness every package's _test.go
// files build on. Grounded on mmrtesting.TestContext's
// log-plus-backing-store-plus-*testing.T shape, but the backing store is
// a local temp file under an in-memory TrustStore instead of an Azurite
// blob emulator: RVF has no blob-store dependency to fixture against, so
// the only thing worth centralizing here is "give me a freshly signed,
// openable store" and "clean it up afterward."
package rvftest

import (
	"context"
	"crypto/ed25519"
	"os"
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/stretchr/testify/require"

	"github.com/ruvector/rvf/security"
	"github.com/ruvector/rvf/store"
)

// TestContext bundles the logger, trust store, and signer every store/
// index/query test needs, plus the *testing.T to fail loudly through.
type TestContext struct {
	T          *testing.T
	Log        logger.Logger
	TrustStore *security.TrustStore
	Signer     security.Signer
	Fingerprint string

	paths []string
}

// TestConfig mirrors mmrtesting.TestConfig's shape for the one knob RVF
// tests actually need: a label for the logger's service name.
type TestConfig struct {
	TestLabelPrefix string
}

// NewTestContext generates a fresh Ed25519 keypair, registers it under a
// fixed test fingerprint, and returns a TestContext ready to back
// store.CreateSigned/OpenWithPolicy calls.
func NewTestContext(t *testing.T, cfg TestConfig) *TestContext {
	t.Helper()
	logger.New("INFO")
	log := logger.Sugar.WithServiceName(cfg.TestLabelPrefix)

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	signer, err := security.NewEd25519Signer(priv)
	require.NoError(t, err)
	verifier, err := security.NewEd25519Verifier(pub)
	require.NoError(t, err)

	const fingerprint = "test-ed25519-1"
	ts := security.NewTrustStore()
	ts.AddSigner(fingerprint, verifier)

	return &TestContext{
		T:           t,
		Log:         log,
		TrustStore:  ts,
		Signer:      signer,
		Fingerprint: fingerprint,
	}
}

// TempFilePath allocates a path under t.TempDir() for a new RVF file.
// store.CreateSigned requires the path not to already exist, so this only
// reserves a name rather than creating the file.
func (c *TestContext) TempFilePath(name string) string {
	c.T.Helper()
	dir := c.T.TempDir()
	path := dir + string(os.PathSeparator) + name
	c.paths = append(c.paths, path)
	return path
}

// CreateSigned is a thin convenience wrapper over store.CreateSigned that
// supplies this context's signer, trust store, and logger by default.
func (c *TestContext) CreateSigned(ctx context.Context, name string, opts ...store.Option) *store.Store {
	c.T.Helper()
	path := c.TempFilePath(name)
	all := append([]store.Option{
		store.WithTrustStore(c.TrustStore),
		store.WithLogger(c.Log),
	}, opts...)
	s, err := store.CreateSigned(ctx, path, c.Signer, all...)
	require.NoError(c.T, err)
	return s
}

// OpenWithPolicy is a thin convenience wrapper over store.OpenWithPolicy
// that supplies this context's trust store and logger by default.
func (c *TestContext) OpenWithPolicy(ctx context.Context, path string, policy security.Policy, opts ...store.Option) (*store.Store, error) {
	c.T.Helper()
	all := append([]store.Option{
		store.WithTrustStore(c.TrustStore),
		store.WithLogger(c.Log),
	}, opts...)
	return store.OpenWithPolicy(ctx, path, policy, all...)
}
