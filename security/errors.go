package security

import "github.com/ruvector/rvf/observability"

// These constructors centralize the security-layer error shapes so store
// and manifest never hand-build an observability.Error with the wrong
// Code for a given rejection. Distinctness of the codes (unsigned vs
// invalid-signature vs unknown-signer vs hash-mismatch) is the spec §4.4
// / §8 invariant this package exists to uphold.

func ErrUnsignedManifest() *observability.Error {
	return observability.New(observability.CodeSecUnsigned, "level 0 manifest carries no signature under a policy that requires one")
}

func ErrInvalidSignature(signerFingerprint string) *observability.Error {
	return &observability.Error{
		Code:              observability.CodeSecInvalidSig,
		Message:           "signature does not verify under the matching configured signer",
		SignerFingerprint: signerFingerprint,
	}
}

func ErrUnknownSigner(signerFingerprint string) *observability.Error {
	return &observability.Error{
		Code:              observability.CodeSecUnknownSigner,
		Message:           "no configured trust-store signer matches this manifest",
		SignerFingerprint: signerFingerprint,
	}
}

func ErrContentHashMismatch(pointerName string, offset uint64, expected, actual []byte) *observability.Error {
	return &observability.Error{
		Code:         observability.CodeSecHashMismatch,
		Message:      "content hash of referenced segment does not match the manifest",
		PointerName:  pointerName,
		Offset:       offset,
		ExpectedHash: expected,
		ActualHash:   actual,
	}
}
