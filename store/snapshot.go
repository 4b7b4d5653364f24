package store

import (
	"sync/atomic"

	"github.com/edsrzf/mmap-go"
	"github.com/ruvector/rvf/format"
	"github.com/ruvector/rvf/manifest"
)

// Snapshot is the immutable, reference-counted view a query takes at entry
// and holds until it returns (spec §5 "snapshots instead of locks on
// reads"). Appending a segment or compacting publishes a new Snapshot via
// an atomic pointer swap; readers already holding an old Snapshot keep
// reading consistent bytes until they release it.
type Snapshot struct {
	data mmap.MMap
	size int64

	L0        *format.Level0
	Directory *manifest.Directory

	// tailOffset is where the next AppendSegment call will write, i.e.
	// size - format.Level0PageSize before any pending writes.
	tailOffset int64
}

// Bytes returns the full backing byte slice for this snapshot. Readers
// must not retain it past the point they release the snapshot (e.g. by
// taking a new one on the next query) since compaction invalidates offsets
// wholesale.
func (s *Snapshot) Bytes() []byte { return s.data }

// Segment reads the header+payload for the segment located at offset,
// returning the decoded header and a slice of the payload bytes. The
// returned payload slice aliases the snapshot's backing array — callers
// must not mutate it.
func (s *Snapshot) Segment(offset uint64) (format.SegmentHeader, []byte, error) {
	if offset+format.SegmentHeaderSize > uint64(len(s.data)) {
		return format.SegmentHeader{}, nil, format.ErrSegmentTruncated
	}
	hdr, err := format.UnmarshalSegmentHeader(s.data[offset : offset+format.SegmentHeaderSize])
	if err != nil {
		return format.SegmentHeader{}, nil, err
	}
	start := offset + format.SegmentHeaderSize
	end := start + hdr.PayloadLength
	if end > uint64(len(s.data)) {
		return format.SegmentHeader{}, nil, format.ErrSegmentTruncated
	}
	return hdr, s.data[start:end], nil
}

// snapshotPointer is an atomic.Pointer[Snapshot] equivalent compatible with
// the module's Go 1.24 toolchain (kept as an explicit wrapper so the
// zero-value is directly usable without a generic instantiation site
// scattered across the package).
type snapshotPointer struct {
	p atomic.Pointer[Snapshot]
}

func (sp *snapshotPointer) Load() *Snapshot          { return sp.p.Load() }
func (sp *snapshotPointer) Store(s *Snapshot)        { sp.p.Store(s) }
func (sp *snapshotPointer) Swap(s *Snapshot) *Snapshot { return sp.p.Swap(s) }
