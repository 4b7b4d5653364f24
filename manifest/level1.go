package manifest

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/ruvector/rvf/format"
)

// SegmentMeta is the optional per-layer metadata a Level 1 entry carries:
// HNSW construction parameters for INDEX_SEG entries, centroid count for
// CENTROID_SEG, or quantization codebook size for QUANT_DICT_SEG. Shape
// varies by segment kind, so it is CBOR-encoded the way massifs/rootsigner.go
// encodes MMRState — a variable-shape struct with keyasint tags rather than
// a union of fixed-width fields.
type SegmentMeta struct {
	HNSWM              uint32 `cbor:"1,keyasint,omitempty"`
	HNSWEfConstruction uint32 `cbor:"2,keyasint,omitempty"`
	CentroidK          uint32 `cbor:"3,keyasint,omitempty"`
	QuantCodebookSize  uint32 `cbor:"4,keyasint,omitempty"`
	LayerIndex         uint8  `cbor:"5,keyasint,omitempty"`
}

// Entry is one record in the Level 1 segment directory: every segment in
// the file, its framing location, and its content hash.
type Entry struct {
	Kind        format.SegmentKind
	Offset      uint64
	Size        uint64
	ContentHash [format.ContentHash128Size]byte
	Meta        *SegmentMeta
}

// Directory is the fully decoded Level 1 directory segment: an
// enumeration of every segment in the file, required for full mount but
// optional for RVQS bootstrap (which can operate off Level 0 hotset
// pointers alone, spec §3 "Level 1 Directory").
type Directory struct {
	Entries []Entry
}

// codec is shared across Marshal/Unmarshal the way massifs/cborcodec.go's
// NewCBORCodec is constructed once and reused, rather than re-deriving
// per-call options.
var codec cbor.EncMode

func init() {
	var err error
	codec, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("manifest: building canonical cbor encoder: %v", err))
	}
}

type wireEntry struct {
	Kind   uint8  `cbor:"1,keyasint"`
	Offset uint64 `cbor:"2,keyasint"`
	Size   uint64 `cbor:"3,keyasint"`
	Hash   []byte `cbor:"4,keyasint"`
	Meta   *SegmentMeta `cbor:"5,keyasint,omitempty"`
}

// MarshalBinary CBOR-encodes the directory into the payload of an
// L1_DIRECTORY segment.
func (d *Directory) MarshalBinary() ([]byte, error) {
	wire := make([]wireEntry, len(d.Entries))
	for i, e := range d.Entries {
		wire[i] = wireEntry{
			Kind:   uint8(e.Kind),
			Offset: e.Offset,
			Size:   e.Size,
			Hash:   append([]byte(nil), e.ContentHash[:]...),
			Meta:   e.Meta,
		}
	}
	return codec.Marshal(wire)
}

// UnmarshalDirectory decodes a Level 1 directory from an L1_DIRECTORY
// segment's payload bytes.
func UnmarshalDirectory(payload []byte) (*Directory, error) {
	var wire []wireEntry
	if err := cbor.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("manifest: decoding level 1 directory: %w", err)
	}
	entries := make([]Entry, len(wire))
	for i, w := range wire {
		e := Entry{
			Kind:   format.SegmentKind(w.Kind),
			Offset: w.Offset,
			Size:   w.Size,
			Meta:   w.Meta,
		}
		copy(e.ContentHash[:], w.Hash)
		entries[i] = e
	}
	return &Directory{Entries: entries}, nil
}

// Find returns the first entry of the given kind whose offset matches, or
// false if no such entry is present. Used to resolve a Level 0 hotset
// pointer to its Level 1 metadata once the directory is mounted.
func (d *Directory) Find(kind format.SegmentKind, offset uint64) (Entry, bool) {
	for _, e := range d.Entries {
		if e.Kind == kind && e.Offset == offset {
			return e, true
		}
	}
	return Entry{}, false
}

// ByKind returns every entry of the given kind, in directory order — used
// to enumerate all INDEX_SEG layers or all VECTOR_BLOCK segments.
func (d *Directory) ByKind(kind format.SegmentKind) []Entry {
	var out []Entry
	for _, e := range d.Entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Live returns a copy of the directory without the entries whose offsets
// are marked in tombstoned. store.Compact does not call it; it copies
// every directory entry into the staging file.
func (d *Directory) Live(tombstoned map[uint64]bool) *Directory {
	var out Directory
	for _, e := range d.Entries {
		if tombstoned[e.Offset] {
			continue
		}
		out.Entries = append(out.Entries, e)
	}
	return &out
}

// HashEqual reports whether two content hashes are byte-identical; a small
// helper so callers never hand-roll bytes.Equal against a raw slice.
func HashEqual(a, b [format.ContentHash128Size]byte) bool {
	return bytes.Equal(a[:], b[:])
}
