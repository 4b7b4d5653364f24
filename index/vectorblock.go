package index

import (
	"encoding/binary"
	"math"

	"github.com/ruvector/rvf/format"
)

// DecodeVectorBlock decodes a VECTOR_BLOCK payload into an id->vector map:
// a count prefix (uint32) followed, per vector, by {id uint64,
// dimension*float32} — the warm-tier full-precision source the spec's
// "distances use the base dtype on the warm tier" step reads from.
func DecodeVectorBlock(payload []byte, dimension int) (map[uint64]Vector, error) {
	if len(payload) < 4 {
		return nil, format.ErrSegmentTruncated
	}
	count := binary.LittleEndian.Uint32(payload)
	off := 4
	out := make(map[uint64]Vector, count)
	for i := 0; i < int(count); i++ {
		if off+8 > len(payload) {
			return nil, format.ErrSegmentTruncated
		}
		id := binary.LittleEndian.Uint64(payload[off:])
		off += 8
		vecBytes := dimension * 4
		if off+vecBytes > len(payload) {
			return nil, format.ErrSegmentTruncated
		}
		vec := make(Vector, dimension)
		for j := 0; j < dimension; j++ {
			bits := binary.LittleEndian.Uint32(payload[off+j*4:])
			vec[j] = math.Float32frombits(bits)
		}
		off += vecBytes
		out[id] = vec
	}
	return out, nil
}

// EncodeVectorBlock is the inverse of DecodeVectorBlock.
func EncodeVectorBlock(vectors map[uint64]Vector) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(len(vectors)))
	for id, v := range vectors {
		var idBuf [8]byte
		binary.LittleEndian.PutUint64(idBuf[:], id)
		buf = append(buf, idBuf[:]...)
		for _, f := range v {
			var fb [4]byte
			binary.LittleEndian.PutUint32(fb[:], math.Float32bits(f))
			buf = append(buf, fb[:]...)
		}
	}
	return buf
}

// DecodeEntrypoint decodes an ENTRYPOINT_SEG payload: a single little-endian
// uint64 vector id, the root HNSW traversal descends from.
func DecodeEntrypoint(payload []byte) (uint64, error) {
	if len(payload) < 8 {
		return 0, format.ErrSegmentTruncated
	}
	return binary.LittleEndian.Uint64(payload), nil
}

// EncodeEntrypoint is the inverse of DecodeEntrypoint.
func EncodeEntrypoint(id uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, id)
	return buf
}
