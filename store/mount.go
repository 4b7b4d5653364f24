package store

import (
	"context"

	"github.com/ruvector/rvf/format"
	"github.com/ruvector/rvf/index"
	"github.com/ruvector/rvf/observability"
)

// IndexState is the decoded, progressively-mounted index state a
// query.Engine is built from. A Store owns decoding (it alone knows how to
// resolve a segment offset through a verified Snapshot); query owns what to
// do with the decoded shapes. Populated fields grow strictly across calls
// to Mount*, matching spec §5 "readers observe strictly more mounted
// layers... never fewer" (index.MountTable.Mount is itself additive-only).
type IndexState struct {
	Table      *index.MountTable
	EntryPoint uint64
	Centroids  *index.CentroidSet
	Layers     *index.LayerSet
	QuantDict  *index.QuantDict
	HotCache   []index.HotCacheBlock
	Vectors    map[uint64]index.Vector
}

// MountHotset decodes the Level 0 hotset (entrypoint, top HNSW layer,
// centroids) — spec §4.5 priority 0, "permits any query at all". Callers
// normally follow this with MountHotCache before the first query, since
// priority 0 alone has no safety net to fall back on.
func (s *Store) MountHotset(ctx context.Context) (*IndexState, error) {
	snap := s.snap.Load()
	dim := int(snap.L0.Dimension)

	st := &IndexState{Table: index.NewMountTable(), Layers: &index.LayerSet{Graphs: map[int]*index.Graph{}}}

	if snap.L0.EntrypointSegOffset != 0 {
		_, payload, err := snap.Segment(snap.L0.EntrypointSegOffset)
		if err != nil {
			return nil, observability.Wrap(observability.CodeFmtL1CRC, err)
		}
		ep, err := index.DecodeEntrypoint(payload)
		if err != nil {
			return nil, observability.Wrap(observability.CodeFmtL1CRC, err)
		}
		st.EntryPoint = ep
	}

	if snap.L0.TopLayerSegOffset != 0 {
		_, payload, err := snap.Segment(snap.L0.TopLayerSegOffset)
		if err != nil {
			return nil, observability.Wrap(observability.CodeFmtL1CRC, err)
		}
		g, err := index.DecodeGraph(payload)
		if err != nil {
			return nil, observability.Wrap(observability.CodeFmtL1CRC, err)
		}
		st.Layers.Graphs[0] = g
		st.Layers.Bottom = 0
	}

	if snap.L0.CentroidSegOffset != 0 {
		_, payload, err := snap.Segment(snap.L0.CentroidSegOffset)
		if err != nil {
			return nil, observability.Wrap(observability.CodeFmtL1CRC, err)
		}
		cs, err := index.DecodeCentroidSet(payload, dim)
		if err != nil {
			return nil, observability.Wrap(observability.CodeFmtL1CRC, err)
		}
		st.Centroids = cs
	}

	st.Table.Mount(index.PriorityHotset)
	return st, nil
}

// MountHotCache decodes the HOT_CACHE_SEG hotset pointer into st, enabling
// the budgeted brute-force safety net (spec §4.5 priority 1).
func (s *Store) MountHotCache(ctx context.Context, st *IndexState) error {
	snap := s.snap.Load()
	if snap.L0.HotCacheSegOffset == 0 {
		st.Table.Mount(index.PriorityHotCache)
		return nil
	}
	_, payload, err := snap.Segment(snap.L0.HotCacheSegOffset)
	if err != nil {
		return observability.Wrap(observability.CodeFmtL1CRC, err)
	}
	blocks, err := index.DecodeHotCache(payload, int(snap.L0.Dimension))
	if err != nil {
		return observability.Wrap(observability.CodeFmtL1CRC, err)
	}
	st.HotCache = blocks
	st.Table.Mount(index.PriorityHotCache)
	return nil
}

// MountQuantDict decodes the QUANT_DICT_SEG hotset pointer, enabling the
// compact-distance path (spec §4.5 priority 3).
func (s *Store) MountQuantDict(ctx context.Context, st *IndexState) error {
	snap := s.snap.Load()
	if snap.L0.QuantDictSegOffset == 0 {
		st.Table.Mount(index.PriorityQuantDict)
		return nil
	}
	_, payload, err := snap.Segment(snap.L0.QuantDictSegOffset)
	if err != nil {
		return observability.Wrap(observability.CodeFmtL1CRC, err)
	}
	qd, err := index.DecodeQuantDict(payload, int(snap.L0.Dimension))
	if err != nil {
		return observability.Wrap(observability.CodeFmtL1CRC, err)
	}
	st.QuantDict = qd
	st.Table.Mount(index.PriorityQuantDict)
	return nil
}

// MountLayer mounts one more INDEX_SEG layer from the Level 1 directory
// (Layer A/B/C beyond the top layer already present from MountHotset),
// identified by manifest.SegmentMeta.LayerIndex. Requires EnsureL1Mounted
// to have already run.
func (s *Store) MountLayer(ctx context.Context, st *IndexState, priority index.Priority, layerIndex int) error {
	dir, err := s.EnsureL1Mounted(ctx)
	if err != nil {
		return err
	}
	snap := s.snap.Load()
	for _, e := range dir.ByKind(format.KindIndexSeg) {
		if e.Meta == nil || int(e.Meta.LayerIndex) != layerIndex {
			continue
		}
		_, payload, err := snap.Segment(e.Offset)
		if err != nil {
			return observability.Wrap(observability.CodeFmtL1CRC, err)
		}
		g, err := index.DecodeGraph(payload)
		if err != nil {
			return observability.Wrap(observability.CodeFmtL1CRC, err)
		}
		st.Layers.Graphs[layerIndex] = g
		if layerIndex > st.Layers.Bottom {
			st.Layers.Bottom = layerIndex
		}
	}
	st.Table.Mount(priority)
	return nil
}

// MountFullVectors decodes every VECTOR_BLOCK segment in the Level 1
// directory into st.Vectors, the warm tier the spec's exact-distance path
// needs (priority 5).
func (s *Store) MountFullVectors(ctx context.Context, st *IndexState) error {
	dir, err := s.EnsureL1Mounted(ctx)
	if err != nil {
		return err
	}
	snap := s.snap.Load()
	if st.Vectors == nil {
		st.Vectors = make(map[uint64]index.Vector)
	}
	for _, e := range dir.ByKind(format.KindVectorBlock) {
		_, payload, err := snap.Segment(e.Offset)
		if err != nil {
			return observability.Wrap(observability.CodeFmtL1CRC, err)
		}
		vecs, err := index.DecodeVectorBlock(payload, int(snap.L0.Dimension))
		if err != nil {
			return observability.Wrap(observability.CodeFmtL1CRC, err)
		}
		for id, v := range vecs {
			st.Vectors[id] = v
		}
	}
	st.Table.Mount(index.PriorityFullVectors)
	return nil
}

// VectorSource resolves to the warm (full-precision) tier when mounted,
// falling back to the quant-dict tier otherwise — spec §4.5 step 3
// "distances use the base dtype on the warm tier, or the quantized
// codebook when the quant-dict layer is mounted but full vectors are not".
func (st *IndexState) VectorSource() index.VectorSource {
	if st.Table.Mounted(index.PriorityFullVectors) && st.Vectors != nil {
		return index.MapVectorSource(st.Vectors)
	}
	if st.QuantDict != nil {
		return st.QuantDict.VectorSource()
	}
	return index.MapVectorSource(nil)
}
