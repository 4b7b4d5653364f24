package seed

import (
	"github.com/ruvector/rvf/format"
	"github.com/ruvector/rvf/security"
)

// Verified is a Parsed seed whose signature has checked out against a
// configured TrustStore.
type Verified struct {
	*Parsed
}

// VerifySeed implements spec §4.7's mandatory signature check: an unsigned
// seed (SeedFlagSigned unset) MUST be rejected outright, and the signature
// MUST verify against a key present in ts — the same UnsignedManifest /
// InvalidSignature / UnknownSigner discrimination store.OpenWithPolicy
// applies to a Level 0 page applies here to a seed.
func VerifySeed(p *Parsed, ts *security.TrustStore) (*Verified, error) {
	if p.Header.Flags&format.SeedFlagSigned == 0 {
		return nil, security.ErrUnsignedManifest()
	}
	if len(p.Signature) == 0 {
		return nil, security.ErrUnsignedManifest()
	}

	var lastErr error
	for _, fp := range ts.Fingerprints() {
		v, _ := ts.Lookup(fp)
		if v == nil {
			continue
		}
		if err := v.Verify(p.SignedBytes, p.Signature); err == nil {
			return &Verified{Parsed: p}, nil
		} else {
			lastErr = err
		}
	}
	if lastErr == nil {
		return nil, security.ErrUnknownSigner("")
	}
	return nil, security.ErrInvalidSignature("")
}
