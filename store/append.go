package store

import (
	"context"
	crand "crypto/rand"
	"os"
	"time"

	"github.com/ruvector/rvf/format"
	"github.com/ruvector/rvf/manifest"
	"github.com/ruvector/rvf/observability"
	"github.com/ruvector/rvf/security"
)

// SegmentRef describes a segment just appended: where it landed and its
// content hash, so the caller can wire it into a hotset pointer or the
// pending directory via SetHotset*.
type SegmentRef struct {
	Kind        format.SegmentKind
	Offset      uint64
	Size        uint64
	ContentHash [format.ContentHash128Size]byte
}

// CreateSigned implements spec §4.2's create_signed: a brand-new, empty
// RVF file with a zeroed hotset, ready for AppendSegment calls followed by
// a WriteManifest to publish the first signed Level 0 page.
func CreateSigned(ctx context.Context, path string, signer security.Signer, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, observability.Wrap(observability.CodeIO, err)
	}

	fileID := newFileID()
	l0 := format.Level0{
		Version:         format.CurrentVersion,
		FileID:          fileID,
		Dimension:       o.Dimension,
		BaseDtype:       format.BaseDtype(o.BaseDtype),
		ProfileID:       o.ProfileID,
		CreatedNs:       time.Now().UnixNano(),
		BaseNProbe:      o.BaseNProbe,
		EfSearchDefault: o.EfSearchDefault,
		MaxEpochDrift:   o.MaxEpochDrift,
	}
	page, err := l0.MarshalBinary()
	if err != nil {
		_ = f.Close()
		return nil, observability.Wrap(observability.CodeIO, err)
	}
	if _, err := f.WriteAt(page[:], 0); err != nil {
		_ = f.Close()
		return nil, observability.Wrap(observability.CodeIO, err)
	}

	s := &Store{
		path:       path,
		file:       f,
		policy:     security.Strict,
		trustStore: o.TrustStore,
		signer:     signer,
		audit:      o.Audit,
		log:        o.Log,
		mount:      manifest.NewMountTracker(),
		hashCache:  manifest.NewHashCache(),
		fileID:     fileID,
		pendingL0:  l0,
	}

	data, size, err := s.mapFile()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	s.snap.Store(&Snapshot{data: data, size: size, L0: &l0, Directory: &manifest.Directory{}, tailOffset: size - format.Level0PageSize})
	s.mount.Transition(manifest.L1Verified)

	return s, nil
}

// newFileID draws a random 64-bit identifier. Grounded on google/uuid for
// randomness source uniformity with store.Compact's staging-name uuids,
// folded down to the Level 0 file_id field's 64-bit width.
func newFileID() uint64 {
	var b [8]byte
	_, _ = crand.Read(b[:])
	var v uint64
	for i, c := range b {
		v |= uint64(c) << (8 * i)
	}
	return v
}

// AppendSegment implements spec §4.2's append_segment: write header +
// payload at the current tail offset (overwriting the old Level 0 page,
// which is rewritten further out by the next WriteManifest call), record
// the content hash, and stage a directory entry. The manifest commit
// itself is deferred until WriteManifest (spec "batch commit").
func (s *Store) AppendSegment(ctx context.Context, kind format.SegmentKind, payload []byte) (SegmentRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.mount.State().CanMutate() {
		return SegmentRef{}, observability.New(observability.CodeIO, "store is read-only or failed; cannot append")
	}

	snap := s.snap.Load()
	offset := uint64(snap.tailOffset)

	hash := format.ContentHash128(payload)
	hdr := format.SegmentHeader{Kind: kind, PayloadLength: uint64(len(payload))}
	buf := hdr.MarshalBinary()
	buf = append(buf, payload...)

	if _, err := s.file.WriteAt(buf, int64(offset)); err != nil {
		return SegmentRef{}, observability.Wrap(observability.CodeIO, err)
	}

	newTail := offset + uint64(len(buf))
	if err := s.file.Truncate(int64(newTail) + format.Level0PageSize); err != nil {
		return SegmentRef{}, observability.Wrap(observability.CodeIO, err)
	}
	s.pendingDir.Entries = append(append([]manifest.Entry(nil), s.currentDirectoryLocked()...), manifest.Entry{
		Kind: kind, Offset: offset, Size: uint64(len(buf)), ContentHash: hash,
	})

	s.mount.Transition(manifest.L1Dirty)
	s.pendingTail = newTail

	return SegmentRef{Kind: kind, Offset: offset, Size: uint64(len(buf)), ContentHash: hash}, nil
}

// AppendSegmentWithMeta is AppendSegment plus a manifest.SegmentMeta
// attached to the resulting directory entry. It is the only way an
// INDEX_SEG's layer_index becomes visible to MountLayer's progressive mount
// (spec §4.5) — AppendSegment alone never populates Entry.Meta.
func (s *Store) AppendSegmentWithMeta(ctx context.Context, kind format.SegmentKind, payload []byte, meta manifest.SegmentMeta) (SegmentRef, error) {
	ref, err := s.AppendSegment(ctx, kind, payload)
	if err != nil {
		return ref, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pendingDir.Entries {
		if s.pendingDir.Entries[i].Offset == ref.Offset {
			m := meta
			s.pendingDir.Entries[i].Meta = &m
			break
		}
	}
	return ref, nil
}

func (s *Store) currentDirectoryLocked() []manifest.Entry {
	if s.pendingDir.Entries != nil {
		return s.pendingDir.Entries
	}
	if snap := s.snap.Load(); snap.Directory != nil {
		return snap.Directory.Entries
	}
	return nil
}

// SetEntrypoint, SetTopLayer, SetCentroids, SetQuantDict, and SetHotCache
// point the next WriteManifest's Level 0 hotset pointers at ref. Callers
// (the offline index builder, out of scope for this CORE) invoke these
// after AppendSegment returns the ref for the corresponding segment kind.
func (s *Store) SetEntrypoint(ref SegmentRef) { s.setHotset(&s.pendingL0.EntrypointSegOffset, &s.pendingL0.EntrypointContentHash, ref) }
func (s *Store) SetTopLayer(ref SegmentRef)   { s.setHotset(&s.pendingL0.TopLayerSegOffset, &s.pendingL0.TopLayerContentHash, ref) }
func (s *Store) SetCentroids(ref SegmentRef)  { s.setHotset(&s.pendingL0.CentroidSegOffset, &s.pendingL0.CentroidContentHash, ref) }
func (s *Store) SetQuantDict(ref SegmentRef)  { s.setHotset(&s.pendingL0.QuantDictSegOffset, &s.pendingL0.QuantDictContentHash, ref) }
func (s *Store) SetHotCache(ref SegmentRef)   { s.setHotset(&s.pendingL0.HotCacheSegOffset, &s.pendingL0.HotCacheContentHash, ref) }

func (s *Store) setHotset(offset *uint64, hash *[format.ContentHash128Size]byte, ref SegmentRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*offset = ref.Offset
	*hash = ref.ContentHash
}

// SetTotalVectorCount and SetCentroidEpoch let a writer update the
// file-wide counters WriteManifest will persist; both are plain counters
// spec §3 defines but that this CORE does not compute on its own (vector
// ingestion and centroid recomputation are builder concerns, out of scope
// per spec §1).
func (s *Store) SetTotalVectorCount(n uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingL0.TotalVectorCount = n
}

func (s *Store) SetCentroidEpoch(epoch uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingL0.CentroidEpoch = epoch
}

// WriteManifest implements spec §4.2's write_manifest: commits a new
// Level 0 tail page with an incremented epoch, the current hotset
// pointers and pending directory, re-signed if a signer is configured.
func (s *Store) WriteManifest(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.mount.State().CanMutate() {
		return observability.New(observability.CodeIO, "store is read-only or failed; cannot write manifest")
	}

	dir := manifest.Directory{Entries: s.currentDirectoryLocked()}
	dirPayload, err := dir.MarshalBinary()
	if err != nil {
		return observability.Wrap(observability.CodeIO, err)
	}

	tail := s.pendingTail
	if tail == 0 {
		snap := s.snap.Load()
		tail = uint64(snap.tailOffset)
	}

	dirHdr := format.SegmentHeader{Kind: format.KindL1Directory, PayloadLength: uint64(len(dirPayload))}
	dirBuf := dirHdr.MarshalBinary()
	dirBuf = append(dirBuf, dirPayload...)
	if _, err := s.file.WriteAt(dirBuf, int64(tail)); err != nil {
		return observability.Wrap(observability.CodeIO, err)
	}
	newTail := tail + uint64(len(dirBuf))

	l0 := s.pendingL0
	l0.Epoch++
	l0.L1DirectoryOffset = tail
	l0.L1DirectorySize = uint64(len(dirPayload))

	if s.signer != nil {
		unsigned := l0
		unsigned.Signature = nil
		unsigned.SigAlgo = s.signer.Algo()
		page, err := unsigned.MarshalBinary()
		if err != nil {
			return observability.Wrap(observability.CodeIO, err)
		}
		sig, err := s.signer.Sign(format.SignedBytes(page[:]))
		if err != nil {
			return observability.New(observability.CodeIO, "signing failure: "+err.Error())
		}
		l0.Signature = sig
		l0.SigAlgo = s.signer.Algo()
	}

	page, err := l0.MarshalBinary()
	if err != nil {
		return observability.Wrap(observability.CodeIO, err)
	}
	if _, err := s.file.WriteAt(page[:], int64(newTail)); err != nil {
		return observability.Wrap(observability.CodeIO, err)
	}
	finalSize := int64(newTail) + format.Level0PageSize
	if err := s.file.Truncate(finalSize); err != nil {
		return observability.Wrap(observability.CodeIO, err)
	}
	if err := s.file.Sync(); err != nil {
		return observability.Wrap(observability.CodeIO, err)
	}

	oldSnap := s.snap.Load()
	data, size, err := s.mapFile()
	if err != nil {
		return err
	}
	newDir := dir
	s.snap.Store(&Snapshot{data: data, size: size, L0: &l0, Directory: &newDir, tailOffset: int64(newTail)})
	if oldSnap != nil {
		_ = oldSnap.data.Unmap()
	}

	s.pendingL0 = l0
	s.pendingDir = manifest.Directory{}
	s.pendingTail = 0
	s.mount.Transition(manifest.L1Verified)

	s.emit(ctx, observability.Code("RVF_MANIFEST_WRITTEN"), map[string]any{"epoch": l0.Epoch, "file_id": l0.FileID})
	return nil
}
