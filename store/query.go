package store

import (
	"context"

	"github.com/ruvector/rvf/format"
	"github.com/ruvector/rvf/index"
	"github.com/ruvector/rvf/manifest"
	"github.com/ruvector/rvf/query"
)

// Query is spec §6's mandatory public entrypoint: mount whatever index
// state the file currently has available and run it through query.Engine.
// It is the only place query.NewEngine/Engine.Query are reachable from
// outside the query package's own tests.
func (s *Store) Query(ctx context.Context, q query.Query) (query.Response, error) {
	st, err := s.buildIndexState(ctx)
	if err != nil {
		return query.Response{}, err
	}
	snap := s.snap.Load()
	e := query.NewEngine(
		st.Centroids,
		st.Layers,
		st.Table,
		st.VectorSource(),
		st.HotCache,
		st.EntryPoint,
		int(snap.L0.BaseNProbe),
		int(snap.L0.EfSearchDefault),
	)
	drift := manifest.EpochDrift(snap.L0.Epoch, snap.L0.CentroidEpoch)
	e.NProbeMultiplier, _ = manifest.NProbeWiden(drift, snap.L0.MaxEpochDrift)
	return e.Query(q), nil
}

// buildIndexState mounts every priority of spec §4.5's progressive-mount
// table that the file currently has segments for: the Level 0 hotset, hot
// cache, quant dict, every HNSW layer recorded in the Level 1 directory, and
// the full vector tier. Mounting is additive and cheap relative to a query,
// so Query rebuilds it fresh on every call rather than caching a stale
// IndexState across appends.
func (s *Store) buildIndexState(ctx context.Context) (*IndexState, error) {
	st, err := s.MountHotset(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.MountHotCache(ctx, st); err != nil {
		return nil, err
	}
	if err := s.MountQuantDict(ctx, st); err != nil {
		return nil, err
	}

	dir, err := s.EnsureL1Mounted(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range dir.ByKind(format.KindIndexSeg) {
		if e.Meta == nil || e.Meta.LayerIndex == 0 {
			continue // layer 0 is already mounted as part of the Level 0 hotset
		}
		if err := s.MountLayer(ctx, st, layerPriority(e.Meta.LayerIndex), int(e.Meta.LayerIndex)); err != nil {
			return nil, err
		}
	}

	if err := s.MountFullVectors(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// layerPriority buckets a Level 1 directory entry's layer_index onto the
// three HNSW mount priorities spec §4.5's table names: the layer
// immediately below the hotset's top layer is Layer A, the next is Layer B,
// and everything deeper is Layer C (bottom / full graph).
func layerPriority(layerIndex uint8) index.Priority {
	switch {
	case layerIndex == 1:
		return index.PriorityLayerA
	case layerIndex == 2:
		return index.PriorityLayerB
	default:
		return index.PriorityLayerC
	}
}
