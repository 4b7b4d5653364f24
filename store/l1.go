package store

import (
	"context"

	"github.com/ruvector/rvf/format"
	"github.com/ruvector/rvf/manifest"
	"github.com/ruvector/rvf/observability"
	"github.com/ruvector/rvf/security"
)

// EnsureL1Mounted loads the Level 1 directory on first call and caches it
// on the published Snapshot thereafter (spec §4.2 step 7, §4.3's
// L0Verified --touch L1--> L1Verified transition). Safe to call
// concurrently; only the first caller pays the parse cost.
func (s *Store) EnsureL1Mounted(ctx context.Context) (*manifest.Directory, error) {
	snap := s.snap.Load()
	if snap.Directory != nil {
		return snap.Directory, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check under the lock in case another writer already mounted it.
	snap = s.snap.Load()
	if snap.Directory != nil {
		return snap.Directory, nil
	}

	if snap.L0.L1DirectoryOffset == 0 {
		// Bootstrap file: no directory segment written yet. Present an
		// empty directory rather than erroring — spec §3 "optional for
		// bootstrap (can operate with just hotset pointers from Level 0)".
		snap.Directory = &manifest.Directory{}
		return snap.Directory, nil
	}

	hdr, payload, err := snap.Segment(snap.L0.L1DirectoryOffset)
	if err != nil {
		return nil, observability.Wrap(observability.CodeFmtL1CRC, err)
	}
	if hdr.Kind != format.KindL1Directory {
		return nil, observability.New(observability.CodeFmtL1CRC, "level 0 l1_directory_offset does not point at an L1_DIRECTORY segment")
	}

	// The Level 0 page carries no standalone L1-directory hash field (only
	// the five hotset pointers are hashed in the wire layout, spec §6); L1
	// integrity is instead enforced by every individual segment's hash
	// check as each is touched (spec §4.2 step 7) or, under Paranoid, all
	// at once below.
	dir, err := manifest.UnmarshalDirectory(payload)
	if err != nil {
		return nil, observability.Wrap(observability.CodeFmtL1CRC, err)
	}

	if s.policy.EagerSegmentVerification() {
		if err := verifyDirectorySegments(dir, snap, s.hashCache); err != nil {
			s.mount.Fail()
			return nil, err
		}
	}

	snap.Directory = dir
	s.mount.Transition(manifest.L1Verified)
	return dir, nil
}

// verifyDirectorySegments implements Paranoid's "verify ... every
// referenced segment on first touch (not batch-upfront; lazy but
// unconditional)" by checking every entry as soon as the directory itself
// is parsed, rather than waiting for index/query to touch each one
// individually.
func verifyDirectorySegments(dir *manifest.Directory, snap *Snapshot, cache *manifest.HashCache) error {
	for _, e := range dir.Entries {
		_, payload, err := snap.Segment(e.Offset)
		if err != nil {
			return observability.Wrap(observability.CodeFmtL1CRC, err)
		}
		ok, actual := cache.Verify(e.Offset, payload, e.ContentHash)
		if !ok {
			return security.ErrContentHashMismatch(e.Kind.String(), e.Offset, e.ContentHash[:], actual[:])
		}
	}
	return nil
}

// TouchSegment resolves offset to its payload bytes through the
// write-once hash cache, applying the configured policy's verification
// rule (spec §7's E_SEC_HASH_MISMATCH recoverability table): Strict and
// Paranoid fail the whole store; WarnOnly demotes it to ReadOnly and
// returns the error for this call only.
func (s *Store) TouchSegment(ctx context.Context, offset uint64, expected [format.ContentHash128Size]byte) ([]byte, error) {
	snap := s.snap.Load()
	_, payload, err := snap.Segment(offset)
	if err != nil {
		return nil, observability.Wrap(observability.CodeFmtL1CRC, err)
	}
	if s.policy == security.Permissive {
		return payload, nil
	}
	ok, actual := s.hashCache.Verify(offset, payload, expected)
	if ok {
		return payload, nil
	}
	mismatch := security.ErrContentHashMismatch("", offset, expected[:], actual[:])
	s.emit(ctx, observability.CodeSecHashMismatch, map[string]any{"offset": offset})
	if s.policy == security.WarnOnly {
		s.mount.DegradeToReadOnly()
	} else {
		s.mount.Fail()
	}
	return nil, mismatch
}
