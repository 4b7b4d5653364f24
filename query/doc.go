// Package query implements the progressive query pipeline of spec §4.5:
// centroid probe, degeneracy-driven n_probe widening, HNSW traversal across
// whatever layers are currently mounted, candidate consolidation, and (when
// consolidation comes up short) the dual-budgeted brute-force safety net of
// §4.6. It never touches the file directly; callers wire an Engine to a
// store.Store's mounted index state.
package query
