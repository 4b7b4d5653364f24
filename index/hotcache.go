package index

import (
	"encoding/binary"
	"math"

	"github.com/ruvector/rvf/format"
)

// HotCacheBlock is one block of the HOT_CACHE_SEG payload: a self-contained
// run of full-precision vectors kept resident so the brute-force safety net
// (spec §4.6) never needs to fault in a cold VECTOR_BLOCK segment. Blocks
// are scanned in their stored order, never re-ordered by score, so that the
// safety net's budget accounting is reproducible across runs.
type HotCacheBlock struct {
	ID        uint32
	VectorIDs []uint64
	Vectors   []Vector
}

// DecodeHotCache decodes a HOT_CACHE_SEG payload: a sequence of blocks, each
// a fixed prefix (block id uint32, vector count uint32) followed by, per
// vector, {id uint64, dimension*float32} — the same fixed-prefix-plus-tail
// framing as CentroidSet and Graph.
func DecodeHotCache(payload []byte, dimension int) ([]HotCacheBlock, error) {
	var blocks []HotCacheBlock
	off := 0
	for off < len(payload) {
		if off+8 > len(payload) {
			return nil, format.ErrSegmentTruncated
		}
		blockID := binary.LittleEndian.Uint32(payload[off:])
		count := binary.LittleEndian.Uint32(payload[off+4:])
		off += 8

		block := HotCacheBlock{ID: blockID, VectorIDs: make([]uint64, count), Vectors: make([]Vector, count)}
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
			block.VectorIDs[i] = id
			block.Vectors[i] = vec
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// EncodeHotCache is the inverse of DecodeHotCache.
func EncodeHotCache(blocks []HotCacheBlock) []byte {
	var buf []byte
	for _, b := range blocks {
		hdr := make([]byte, 8)
		binary.LittleEndian.PutUint32(hdr[0:], b.ID)
		binary.LittleEndian.PutUint32(hdr[4:], uint32(len(b.VectorIDs)))
		buf = append(buf, hdr...)
		for i, id := range b.VectorIDs {
			var idBuf [8]byte
			binary.LittleEndian.PutUint64(idBuf[:], id)
			buf = append(buf, idBuf[:]...)
			for _, f := range b.Vectors[i] {
				var fb [4]byte
				binary.LittleEndian.PutUint32(fb[:], math.Float32bits(f))
				buf = append(buf, fb[:]...)
			}
		}
	}
	return buf
}
