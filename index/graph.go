package index

import (
	"encoding/binary"

	"github.com/ruvector/rvf/format"
)

// Graph is one decoded INDEX_SEG: the adjacency for a single HNSW layer
// (spec §3 "HNSW Layer (INDEX_SEG)"). Node ids and neighbor lists are
// bounded by the construction-time M parameter (manifest.SegmentMeta.HNSWM)
// but this package does not enforce that bound on read — it only traverses
// whatever is there.
//
// Wire layout, grounded on the libravdb HNSW reference file's
// NodeEntry/LinkEntry fixed-prefix-plus-variable-tail framing: entry point
// (uint32) followed by, per node, {id uint32, neighbor count uint32,
// neighbor ids...}.
type Graph struct {
	EntryPoint uint32
	Neighbors  map[uint32][]uint32
}

// DecodeGraph decodes one INDEX_SEG payload.
func DecodeGraph(payload []byte) (*Graph, error) {
	if len(payload) < 4 {
		return nil, format.ErrSegmentTruncated
	}
	g := &Graph{Neighbors: make(map[uint32][]uint32)}
	g.EntryPoint = binary.LittleEndian.Uint32(payload)
	off := 4
	for off < len(payload) {
		if off+8 > len(payload) {
			return nil, format.ErrSegmentTruncated
		}
		id := binary.LittleEndian.Uint32(payload[off:])
		count := binary.LittleEndian.Uint32(payload[off+4:])
		off += 8
		tail := int(count) * 4
		if off+tail > len(payload) {
			return nil, format.ErrSegmentTruncated
		}
		neighbors := make([]uint32, count)
		for i := range neighbors {
			neighbors[i] = binary.LittleEndian.Uint32(payload[off+i*4:])
		}
		off += tail
		g.Neighbors[id] = neighbors
	}
	return g, nil
}

// EncodeGraph is the inverse of DecodeGraph.
func EncodeGraph(g *Graph) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, g.EntryPoint)
	for id, neighbors := range g.Neighbors {
		hdr := make([]byte, 8)
		binary.LittleEndian.PutUint32(hdr[0:], id)
		binary.LittleEndian.PutUint32(hdr[4:], uint32(len(neighbors)))
		buf = append(buf, hdr...)
		for _, n := range neighbors {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], n)
			buf = append(buf, b[:]...)
		}
	}
	return buf
}

// NodeCount reports how many nodes this layer's adjacency covers.
func (g *Graph) NodeCount() int { return len(g.Neighbors) }
