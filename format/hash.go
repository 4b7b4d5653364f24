package format

import "golang.org/x/crypto/sha3"

// ContentHashSize is the full-width SHAKE-256 digest recorded for segments
// that are addressed by a 256-bit hash (RVQS's full-file content_hash uses
// this width truncated to 64 bits — see ContentHash64).
const ContentHashSize = 32

// ContentHash128Size is the truncated width stored against every Level 0
// hotset pointer and every Level 1 directory entry.
const ContentHash128Size = 16

// ContentHash64Size is the width of the RVQS seed's embedded content_hash
// field (SHAKE-256-64 of the fully expanded RVF).
const ContentHash64Size = 8

// ContentHash returns the full 32-byte SHAKE-256 digest of payload.
func ContentHash(payload []byte) [ContentHashSize]byte {
	var out [ContentHashSize]byte
	sha3.ShakeSum256(out[:], payload)
	return out
}

// ContentHash128 returns the first 128 bits of the SHAKE-256 digest of
// payload — the width used for Level 0 hotset pointers and Level 1
// directory entries.
func ContentHash128(payload []byte) [ContentHash128Size]byte {
	full := ContentHash(payload)
	var out [ContentHash128Size]byte
	copy(out[:], full[:ContentHash128Size])
	return out
}

// ContentHash64 returns the first 64 bits of the SHAKE-256 digest of
// payload — the width used by the RVQS seed's embedded content_hash field.
func ContentHash64(payload []byte) [ContentHash64Size]byte {
	full := ContentHash(payload)
	var out [ContentHash64Size]byte
	copy(out[:], full[:ContentHash64Size])
	return out
}
