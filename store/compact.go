package store

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/ruvector/rvf/format"
	"github.com/ruvector/rvf/manifest"
	"github.com/ruvector/rvf/observability"
)

// Compact implements spec §4.2's compact algorithm: copy every segment
// listed in the Level 1 directory (tombstoned segments are not dropped)
// into a fresh staging file, recompute content hashes, write a new
// Level 1 directory and Level 0 page with an incremented epoch, fsync, and
// atomically rename over the source path. file_id is preserved (spec
// invariant 7) so RVQS seeds and cached references referring to it by
// identity remain valid even though every offset changes.
//
// The staging filename is a uuid suffix, the same ephemeral-uniqueness
// pattern the teacher's mmrtesting package uses google/uuid for, repurposed
// here for a local staging path instead of a blob-store tenant identity.
func (s *Store) Compact(ctx context.Context) (*Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := s.ensureL1MountedLocked(ctx)
	if err != nil {
		return nil, err
	}

	stagingPath := s.path + "." + uuid.NewString() + ".compacting"
	staged, err := os.OpenFile(stagingPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, observability.Wrap(observability.CodeIO, err)
	}
	defer os.Remove(stagingPath) // no-op once the rename below succeeds

	snap := s.snap.Load()
	var newEntries []manifest.Entry
	var offset uint64

	for _, e := range dir.Entries {
		_, payload, err := snap.Segment(e.Offset)
		if err != nil {
			_ = staged.Close()
			return nil, observability.Wrap(observability.CodeFmtL1CRC, err)
		}
		freshHash := format.ContentHash128(payload)
		hdr := format.SegmentHeader{Kind: e.Kind, PayloadLength: uint64(len(payload))}
		buf := hdr.MarshalBinary()
		buf = append(buf, payload...)
		if _, err := staged.WriteAt(buf, int64(offset)); err != nil {
			_ = staged.Close()
			return nil, observability.Wrap(observability.CodeIO, err)
		}
		newEntries = append(newEntries, manifest.Entry{
			Kind: e.Kind, Offset: offset, Size: uint64(len(buf)), ContentHash: freshHash, Meta: e.Meta,
		})
		offset += uint64(len(buf))
	}

	newDir := manifest.Directory{Entries: newEntries}
	dirPayload, err := newDir.MarshalBinary()
	if err != nil {
		_ = staged.Close()
		return nil, observability.Wrap(observability.CodeIO, err)
	}
	dirHdr := format.SegmentHeader{Kind: format.KindL1Directory, PayloadLength: uint64(len(dirPayload))}
	dirBuf := dirHdr.MarshalBinary()
	dirBuf = append(dirBuf, dirPayload...)
	if _, err := staged.WriteAt(dirBuf, int64(offset)); err != nil {
		_ = staged.Close()
		return nil, observability.Wrap(observability.CodeIO, err)
	}
	dirOffset := offset
	offset += uint64(len(dirBuf))

	l0 := s.pendingL0
	l0.Epoch++
	l0.L1DirectoryOffset = dirOffset
	l0.L1DirectorySize = uint64(len(dirPayload))
	remapHotset(&l0, dir, &newDir)

	if s.signer != nil {
		unsigned := l0
		unsigned.Signature = nil
		page, err := unsigned.MarshalBinary()
		if err != nil {
			_ = staged.Close()
			return nil, observability.Wrap(observability.CodeIO, err)
		}
		sig, err := s.signer.Sign(format.SignedBytes(page[:]))
		if err != nil {
			_ = staged.Close()
			return nil, observability.New(observability.CodeIO, "signing failure during compaction: "+err.Error())
		}
		l0.Signature = sig
		l0.SigAlgo = s.signer.Algo()
	}

	page, err := l0.MarshalBinary()
	if err != nil {
		_ = staged.Close()
		return nil, observability.Wrap(observability.CodeIO, err)
	}
	if _, err := staged.WriteAt(page[:], int64(offset)); err != nil {
		_ = staged.Close()
		return nil, observability.Wrap(observability.CodeIO, err)
	}
	if err := staged.Truncate(int64(offset) + format.Level0PageSize); err != nil {
		_ = staged.Close()
		return nil, observability.Wrap(observability.CodeIO, err)
	}
	if err := staged.Sync(); err != nil {
		_ = staged.Close()
		return nil, observability.Wrap(observability.CodeIO, err)
	}
	if err := staged.Close(); err != nil {
		return nil, observability.Wrap(observability.CodeIO, err)
	}

	if err := os.Rename(stagingPath, s.path); err != nil {
		return nil, observability.Wrap(observability.CodeIO, err)
	}

	if err := s.reopenAfterCompactLocked(); err != nil {
		return nil, err
	}

	s.emit(ctx, observability.Code("RVF_COMPACTED"), map[string]any{"epoch": l0.Epoch, "file_id": l0.FileID})
	return s, nil
}

// remapHotset rewrites l0's five hotset pointers from their offsets in the
// old directory to the matching segment's new offset in the compacted
// directory, since compaction relocates every payload (spec §4.2 step 4).
func remapHotset(l0 *format.Level0, oldDir, newDir *manifest.Directory) {
	remap := func(kind format.SegmentKind, oldOffset uint64) (uint64, [format.ContentHash128Size]byte, bool) {
		if oldOffset == 0 {
			return 0, [format.ContentHash128Size]byte{}, false
		}
		idx := -1
		for i, e := range oldDir.Entries {
			if e.Kind == kind && e.Offset == oldOffset {
				idx = i
				break
			}
		}
		if idx < 0 || idx >= len(newDir.Entries) {
			return 0, [format.ContentHash128Size]byte{}, false
		}
		ne := newDir.Entries[idx]
		return ne.Offset, ne.ContentHash, true
	}

	if off, h, ok := remap(format.KindEntrypointSeg, l0.EntrypointSegOffset); ok {
		l0.EntrypointSegOffset, l0.EntrypointContentHash = off, h
	}
	if off, h, ok := remap(format.KindIndexSeg, l0.TopLayerSegOffset); ok {
		l0.TopLayerSegOffset, l0.TopLayerContentHash = off, h
	}
	if off, h, ok := remap(format.KindCentroidSeg, l0.CentroidSegOffset); ok {
		l0.CentroidSegOffset, l0.CentroidContentHash = off, h
	}
	if off, h, ok := remap(format.KindQuantDictSeg, l0.QuantDictSegOffset); ok {
		l0.QuantDictSegOffset, l0.QuantDictContentHash = off, h
	}
	if off, h, ok := remap(format.KindHotCacheSeg, l0.HotCacheSegOffset); ok {
		l0.HotCacheSegOffset, l0.HotCacheContentHash = off, h
	}
}

func (s *Store) ensureL1MountedLocked(ctx context.Context) (*manifest.Directory, error) {
	s.mu.Unlock()
	dir, err := s.EnsureL1Mounted(ctx)
	s.mu.Lock()
	return dir, err
}

// reopenAfterCompactLocked reopens the renamed file, remaps it, and
// discards the old hash cache wholesale (spec §5: "this cache MUST NOT
// cache across compaction"). Caller must hold s.mu.
func (s *Store) reopenAfterCompactLocked() error {
	oldSnap := s.snap.Load()
	if oldSnap != nil {
		_ = oldSnap.data.Unmap()
	}
	if s.file != nil {
		_ = s.file.Close()
	}

	f, err := os.OpenFile(s.path, os.O_RDWR, 0o644)
	if err != nil {
		return observability.Wrap(observability.CodeIO, err)
	}
	s.file = f

	data, size, err := s.mapFile()
	if err != nil {
		return err
	}
	page := data[size-format.Level0PageSize : size]
	l0, err := format.ParseLevel0(page)
	if err != nil {
		return classifyFormatError(err)
	}

	hdr, payload, err := (&Snapshot{data: data}).Segment(l0.L1DirectoryOffset)
	if err != nil || hdr.Kind != format.KindL1Directory {
		return observability.New(observability.CodeFmtL1CRC, "compacted file's l1_directory_offset is invalid")
	}
	newDir, err := manifest.UnmarshalDirectory(payload)
	if err != nil {
		return observability.Wrap(observability.CodeFmtL1CRC, err)
	}

	s.hashCache.Invalidate()
	s.pendingL0 = *l0
	s.pendingDir = manifest.Directory{}
	s.pendingTail = 0
	s.snap.Store(&Snapshot{data: data, size: size, L0: l0, Directory: newDir, tailOffset: size - format.Level0PageSize})
	s.mount.Transition(manifest.L1Verified)
	return nil
}
