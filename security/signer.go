package security

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/ruvector/rvf/format"
	"github.com/veraison/go-cose"
)

// Verifier is the verify half of spec §4.4's signature contract, resolved
// once at Store/Expander construction time rather than dispatched
// dynamically inside a hot loop (spec §9 "resolve the capability once at
// open").
type Verifier interface {
	// Verify checks sig over payload. A non-nil error means the signature
	// does not verify under this key; it does not distinguish "wrong key"
	// from "corrupted signature" — that distinction is the caller's job
	// (trust-store lookup happens before Verify is called).
	Verify(payload, sig []byte) error
}

// Signer is the sign half of the contract, used by store.CreateSigned and
// store.compact to produce a fresh Level 0 signature.
type Signer interface {
	Sign(payload []byte) ([]byte, error)
	// Algo reports the sig_algo wire value this signer produces
	// (SigAlgoEd25519 or SigAlgoMLDSA65), written into Level0.SigAlgo.
	Algo() uint16
}

// coseEd25519Verifier adapts a cose.Verifier (AlgorithmEdDSA) to Verifier.
// Grounded on the teacher's IdentifiableCoseSigner/publicKeyProvider shape
// in massifs/identifiablecosesigner.go and massifs/rootsigverify.go: embed
// the primitive, resolve it once, never branch on algorithm inside Verify.
type coseEd25519Verifier struct {
	verifier cose.Verifier
}

// NewEd25519Verifier builds a Verifier backed by go-cose's Ed25519 support.
func NewEd25519Verifier(pub ed25519.PublicKey) (Verifier, error) {
	v, err := cose.NewVerifier(cose.AlgorithmEdDSA, pub)
	if err != nil {
		return nil, fmt.Errorf("security: building ed25519 verifier: %w", err)
	}
	return &coseEd25519Verifier{verifier: v}, nil
}

func (v *coseEd25519Verifier) Verify(payload, sig []byte) error {
	return v.verifier.Verify(payload, sig)
}

type coseEd25519Signer struct {
	signer cose.Signer
}

// NewEd25519Signer builds a Signer backed by go-cose's Ed25519 support.
// The private key must be a full ed25519.PrivateKey (seed || public key).
func NewEd25519Signer(priv ed25519.PrivateKey) (Signer, error) {
	s, err := cose.NewSigner(cose.AlgorithmEdDSA, priv)
	if err != nil {
		return nil, fmt.Errorf("security: building ed25519 signer: %w", err)
	}
	return &coseEd25519Signer{signer: s}, nil
}

func (s *coseEd25519Signer) Sign(payload []byte) ([]byte, error) {
	return s.signer.Sign(rand.Reader, payload)
}

func (s *coseEd25519Signer) Algo() uint16 { return format.SigAlgoEd25519 }

// MLDSA65Verifier/MLDSA65Signer are bare capability interfaces with no
// default implementation. ML-DSA-65 is explicitly an external collaborator
// (spec §1, §6): this package only defines the contract a caller's
// injected primitive must satisfy.
type MLDSA65Verifier interface {
	Verify(payload, sig []byte) error
}

type MLDSA65Signer interface {
	Sign(payload []byte) ([]byte, error)
}

// AsVerifier adapts an MLDSA65Verifier to the common Verifier interface so
// callers can hold a single `map[uint16]Verifier` keyed by sig_algo.
func AsVerifier(v MLDSA65Verifier) Verifier { return mldsaVerifierAdapter{v} }

type mldsaVerifierAdapter struct{ v MLDSA65Verifier }

func (a mldsaVerifierAdapter) Verify(payload, sig []byte) error { return a.v.Verify(payload, sig) }
