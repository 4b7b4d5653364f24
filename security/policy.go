// Package security wraps signature verification and content-hash
// enforcement under a uniform policy, and reports failures through the
// observability error taxonomy rather than ad-hoc messages.
package security

// Policy controls how much of a store's trust chain is enforced at open
// time and on each subsequent lazy segment touch.
type Policy uint8

const (
	// Permissive skips signature and content-hash checks entirely. Open
	// always succeeds if magic/version/CRC parse; queries may then return
	// structurally valid but semantically wrong results if segments have
	// been swapped out from under the manifest. This is documented
	// behavior, not a bug: the caller asked for it.
	Permissive Policy = 0x00
	// WarnOnly opens even without a signature, but a content-hash
	// mismatch on first touch still fails that request and transitions
	// the store to ReadOnly.
	WarnOnly Policy = 0x01
	// Strict is the default: an unsigned manifest fails open outright,
	// and hotset pointers (entrypoint, top layer, centroids, quant dict,
	// hot cache) are content-hash verified before the store is
	// considered mounted.
	Strict Policy = 0x02
	// Paranoid additionally verifies every Level 1 segment's content
	// hash lazily and unconditionally on first touch, rather than
	// trusting the manifest's record of it.
	Paranoid Policy = 0x03
)

// DefaultPolicy is Strict. Callers wanting Permissive must say so
// explicitly; store.OpenWithPolicy logs that downgrade at info level
// through the logger passed with store.WithLogger (no audit event is
// emitted for it).
const DefaultPolicy = Strict

func (p Policy) String() string {
	switch p {
	case Permissive:
		return "permissive"
	case WarnOnly:
		return "warn_only"
	case Strict:
		return "strict"
	case Paranoid:
		return "paranoid"
	default:
		return "unknown"
	}
}

// RequiresSignature reports whether p fails open on an unsigned manifest.
func (p Policy) RequiresSignature() bool {
	return p == Strict || p == Paranoid
}

// VerifiesContentHashOnOpen reports whether p checks hotset content
// hashes as part of open, rather than deferring every check to first
// touch.
func (p Policy) VerifiesContentHashOnOpen() bool {
	return p == Strict || p == Paranoid
}

// EagerSegmentVerification reports whether p verifies every referenced
// Level 1 segment's content hash on first touch, unconditionally, rather
// than trusting the manifest's recorded hash until a mismatch is found
// some other way.
func (p Policy) EagerSegmentVerification() bool {
	return p == Paranoid
}

// Allows reports the policy-monotonicity relationship: a file that opens
// under other also opens under p, given the same trust store. Paranoid is
// the strictest; Permissive the loosest.
func (p Policy) Allows(other Policy) bool {
	return p <= other
}
