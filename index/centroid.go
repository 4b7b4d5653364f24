package index

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/ruvector/rvf/format"
)

// DefaultDegenerateCVThreshold is the spec §4.5/§9 tunable default
// (recorded as a query.Engine constructor option rather than a compile-time
// constant, per the Open Question decision in DESIGN.md).
const DefaultDegenerateCVThreshold = 0.05

// Centroid is one reference vector of a CentroidSet plus the vector block
// ids it routes to.
type Centroid struct {
	ID       uint32
	Vector   Vector
	BlockIDs []uint32
}

// CentroidSet is the decoded CENTROID_SEG payload: K reference vectors used
// for the coarse routing probe (spec §3 "Centroid Set").
type CentroidSet struct {
	Dimension int
	Centroids []Centroid
}

// DecodeCentroidSet decodes a CENTROID_SEG payload. Wire shape: for each
// centroid, a fixed prefix (id uint32, block count uint32) followed by
// `dimension` little-endian float32 components and `block count` uint32
// block ids — a flat, allocation-cheap layout in the spirit of the
// libravdb NodeEntry/LinkEntry fixed-prefix-plus-variable-tail framing.
func DecodeCentroidSet(payload []byte, dimension int) (*CentroidSet, error) {
	cs := &CentroidSet{Dimension: dimension}
	off := 0
	for off < len(payload) {
		if off+8 > len(payload) {
			return nil, format.ErrSegmentTruncated
		}
		id := binary.LittleEndian.Uint32(payload[off:])
		blockCount := binary.LittleEndian.Uint32(payload[off+4:])
		off += 8

		vecBytes := dimension * 4
		if off+vecBytes > len(payload) {
			return nil, format.ErrSegmentTruncated
		}
		vec := make(Vector, dimension)
		for i := 0; i < dimension; i++ {
			bits := binary.LittleEndian.Uint32(payload[off+i*4:])
			vec[i] = math.Float32frombits(bits)
		}
		off += vecBytes

		blockTailBytes := int(blockCount) * 4
		if off+blockTailBytes > len(payload) {
			return nil, format.ErrSegmentTruncated
		}
		blocks := make([]uint32, blockCount)
		for i := range blocks {
			blocks[i] = binary.LittleEndian.Uint32(payload[off+i*4:])
		}
		off += blockTailBytes

		cs.Centroids = append(cs.Centroids, Centroid{ID: id, Vector: vec, BlockIDs: blocks})
	}
	return cs, nil
}

// EncodeCentroidSet is the inverse of DecodeCentroidSet, used by tests and
// by internal/rvftest's fixture builder.
func EncodeCentroidSet(cs *CentroidSet) []byte {
	var buf []byte
	for _, c := range cs.Centroids {
		hdr := make([]byte, 8)
		binary.LittleEndian.PutUint32(hdr[0:], c.ID)
		binary.LittleEndian.PutUint32(hdr[4:], uint32(len(c.BlockIDs)))
		buf = append(buf, hdr...)
		for _, f := range c.Vector {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], math.Float32bits(f))
			buf = append(buf, b[:]...)
		}
		for _, b := range c.BlockIDs {
			var bb [4]byte
			binary.LittleEndian.PutUint32(bb[:], b)
			buf = append(buf, bb[:]...)
		}
	}
	return buf
}

// CentroidHit is one ranked centroid from Probe: its distance to the query
// and the vector blocks it routes to.
type CentroidHit struct {
	ID       uint32
	Distance float64
	BlockIDs []uint32
}

// Probe implements spec §4.5 step 1: distance from the query to every
// centroid (or a sampled subset if K is very large — not yet needed at the
// scales this CORE targets, so Probe always scans all K), returning the
// top-nProbe nearest.
func (cs *CentroidSet) Probe(query Vector, nProbe int) []CentroidHit {
	hits := make([]CentroidHit, len(cs.Centroids))
	for i, c := range cs.Centroids {
		hits[i] = CentroidHit{ID: c.ID, Distance: L2Squared(query, c.Vector), BlockIDs: c.BlockIDs}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	if nProbe < len(hits) {
		hits = hits[:nProbe]
	}
	return hits
}

// K returns the number of centroids in the set.
func (cs *CentroidSet) K() int { return len(cs.Centroids) }

// DegeneracyCheck implements spec §4.5 step 2: sort the top 2*nProbe
// centroid distances, compute the coefficient of variation, and report
// whether it falls below threshold (meaning every centroid looks roughly
// equidistant — the routing signal is unreliable).
func DegeneracyCheck(distances []float64, threshold float64) (cv float64, degenerate bool) {
	if len(distances) == 0 {
		return 0, false
	}
	mean := Mean(distances)
	const epsilon = 1e-12
	if mean < epsilon {
		return 0, true
	}
	stddev := StandardDeviation(distances, mean)
	cv = stddev / mean
	return cv, cv < threshold
}

// WidenedNProbe implements spec §4.5 step 2's widen rule:
// new n_probe = min(4*base_n_probe, ceil(sqrt(K))).
func WidenedNProbe(baseNProbe, k int) int {
	widened := 4 * baseNProbe
	ceiling := int(math.Ceil(math.Sqrt(float64(k))))
	if widened > ceiling {
		return ceiling
	}
	return widened
}
