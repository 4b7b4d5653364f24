package index

import (
	"encoding/binary"
	"math"

	"github.com/ruvector/rvf/format"
)

// QuantDict is the decoded QUANT_DICT_SEG payload: a single per-file linear
// scalar quantization (scale, offset) plus the quantized components for
// every vector it covers. Spec §4.5 step 3 only requires that a "compact
// distance path" exist when full vectors aren't resident; one linear
// scale/offset shared by every component is the simplest codebook that satisfies that without
// committing to a specific product-quantization scheme the spec leaves
// unspecified (recorded as an Open Question decision in DESIGN.md).
type QuantDict struct {
	Scale   float32
	Offset  float32
	Vectors map[uint64][]int8
}

// DecodeQuantDict decodes a QUANT_DICT_SEG payload: {scale float32, offset
// float32, count uint32} followed, per vector, by {id uint64,
// dimension*int8}.
func DecodeQuantDict(payload []byte, dimension int) (*QuantDict, error) {
	if len(payload) < 12 {
		return nil, format.ErrSegmentTruncated
	}
	qd := &QuantDict{
		Scale:  math.Float32frombits(binary.LittleEndian.Uint32(payload[0:])),
		Offset: math.Float32frombits(binary.LittleEndian.Uint32(payload[4:])),
	}
	count := binary.LittleEndian.Uint32(payload[8:])
	off := 12
	qd.Vectors = make(map[uint64][]int8, count)
	for i := 0; i < int(count); i++ {
		if off+8 > len(payload) {
			return nil, format.ErrSegmentTruncated
		}
		id := binary.LittleEndian.Uint64(payload[off:])
		off += 8
		if off+dimension > len(payload) {
			return nil, format.ErrSegmentTruncated
		}
		codes := make([]int8, dimension)
		for j := 0; j < dimension; j++ {
			codes[j] = int8(payload[off+j])
		}
		off += dimension
		qd.Vectors[id] = codes
	}
	return qd, nil
}

// EncodeQuantDict is the inverse of DecodeQuantDict.
func EncodeQuantDict(qd *QuantDict) []byte {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(qd.Scale))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(qd.Offset))
	binary.LittleEndian.PutUint32(buf[8:], uint32(len(qd.Vectors)))
	for id, codes := range qd.Vectors {
		var idBuf [8]byte
		binary.LittleEndian.PutUint64(idBuf[:], id)
		buf = append(buf, idBuf[:]...)
		for _, c := range codes {
			buf = append(buf, byte(c))
		}
	}
	return buf
}

// Dequantize reconstructs the approximate vector for id, or false if id
// isn't covered by this dictionary.
func (qd *QuantDict) Dequantize(id uint64) (Vector, bool) {
	codes, ok := qd.Vectors[id]
	if !ok {
		return nil, false
	}
	out := make(Vector, len(codes))
	for i, c := range codes {
		out[i] = float32(c)*qd.Scale + qd.Offset
	}
	return out, true
}

// VectorSource adapts this dictionary to the index.VectorSource interface
// the traversal and consolidation steps consume, so the query engine can be
// wired to the compact-distance path with no call-site branching.
func (qd *QuantDict) VectorSource() VectorSource { return quantDictSource{qd} }

type quantDictSource struct{ qd *QuantDict }

func (s quantDictSource) Vector(id uint64) (Vector, bool) { return s.qd.Dequantize(id) }
