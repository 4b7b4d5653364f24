package format

import "encoding/binary"

// SegmentKind tags the payload that follows a SegmentHeader.
type SegmentKind uint8

const (
	KindVectorBlock SegmentKind = iota
	KindIndexSeg
	KindCentroidSeg
	KindQuantDictSeg
	KindHotCacheSeg
	KindEntrypointSeg
	KindL1Directory
)

func (k SegmentKind) String() string {
	switch k {
	case KindVectorBlock:
		return "VECTOR_BLOCK"
	case KindIndexSeg:
		return "INDEX_SEG"
	case KindCentroidSeg:
		return "CENTROID_SEG"
	case KindQuantDictSeg:
		return "QUANT_DICT_SEG"
	case KindHotCacheSeg:
		return "HOT_CACHE_SEG"
	case KindEntrypointSeg:
		return "ENTRYPOINT_SEG"
	case KindL1Directory:
		return "L1_DIRECTORY"
	default:
		return "UNKNOWN"
	}
}

// SegmentFlag bits carried in a segment header.
type SegmentFlag uint16

const (
	// SegmentFlagTombstoned marks a segment superseded by compaction.
	// Nothing in this module sets it, and store.Compact copies every
	// directory entry whatever its flags, so tombstoned segments are not
	// dropped.
	SegmentFlagTombstoned SegmentFlag = 1 << 0
)

// SegmentHeaderSize is the fixed-width header preceding every segment's
// payload: kind(1) + reserved(1) + flags(2) + payload_length(8).
const SegmentHeaderSize = 12

// SegmentHeader is the fixed, length-prefixed framing that precedes every
// segment's payload in the file.
type SegmentHeader struct {
	Kind          SegmentKind
	Flags         SegmentFlag
	PayloadLength uint64
}

// MarshalBinary serializes the header. The payload is not part of this
// struct: the caller appends it (store.AppendSegment copies the payload
// bytes after the header into one buffer and writes both with one WriteAt).
func (h SegmentHeader) MarshalBinary() []byte {
	buf := make([]byte, SegmentHeaderSize)
	buf[0] = byte(h.Kind)
	buf[1] = 0
	binary.LittleEndian.PutUint16(buf[2:4], uint16(h.Flags))
	binary.LittleEndian.PutUint64(buf[4:12], h.PayloadLength)
	return buf
}

// UnmarshalSegmentHeader decodes a SegmentHeader from the front of b.
func UnmarshalSegmentHeader(b []byte) (SegmentHeader, error) {
	if len(b) < SegmentHeaderSize {
		return SegmentHeader{}, ErrSegmentTruncated
	}
	return SegmentHeader{
		Kind:          SegmentKind(b[0]),
		Flags:         SegmentFlag(binary.LittleEndian.Uint16(b[2:4])),
		PayloadLength: binary.LittleEndian.Uint64(b[4:12]),
	}, nil
}
