package index

import (
	"math"

	"golang.org/x/exp/slices"

	"github.com/ruvector/rvf/observability"
)

// Candidate is one ranked result from traversal or centroid-block gather,
// carrying the quality it was produced under (spec §4.5 "Candidate
// consolidation").
type Candidate struct {
	ID       uint64
	Distance float64
	Quality  observability.RetrievalQuality
}

// SortCandidates sorts by ascending distance, tie-broken by ascending id
// (spec §5 "result ordering is stable... equal-distance sets are
// reproducible across runs"). Uses golang.org/x/exp/slices.SortFunc, the
// teacher's (indirect) dependency, rather than a hand-rolled sort. Exported
// so callers outside this package (the query safety net, merging its own
// brute-force candidates) can apply the same tie-break rule without
// duplicating it.
func SortCandidates(c []Candidate) {
	slices.SortFunc(c, func(a, b Candidate) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
}

// LayerSet is the collection of mounted HNSW layers a traversal runs over,
// ordered top (sparsest, fastest to cross) to bottom (densest, most
// recall). Layer indices need not be contiguous; Traverse only visits
// layers present in Graphs.
type LayerSet struct {
	// Graphs maps layer index (0 = top) to its decoded adjacency. A layer
	// absent from this map is simply skipped — spec §4.5 step 3
	// "unmounted layers are silently skipped (degrades retrieval quality
	// rather than failing)".
	Graphs map[int]*Graph
	// Bottom is the highest layer index that exists in the full graph
	// (whether or not it is currently mounted). Traverse reports whether it
	// actually walked every layer down to Bottom without a gap; Engine.Query
	// folds that signal together with which PriorityLayer* are mounted into
	// ResponseQuality (spec §4.5's priority table: Layer C mounted and
	// reached all the way down is Full/Verified, a gap anywhere is
	// Partial/Degraded).
	Bottom int
}

// Traverse implements spec §4.5 step 3: greedy best-first search starting
// from the entry point, descending through every mounted layer with an
// efSearch-bounded candidate queue. Distances are computed via src, which
// the caller wires to whichever vector tier (full or quantized) is
// currently resident. The second return value reports whether every layer
// from 0 through layers.Bottom was present in Graphs — false means at least
// one layer was silently skipped (spec §4.5 step 3), so the caller should
// not treat the result as a full-depth traversal.
func Traverse(layers *LayerSet, entryPoint uint64, query Vector, src VectorSource, efSearch int) ([]Candidate, bool) {
	if efSearch <= 0 {
		efSearch = 1
	}
	visited := map[uint64]bool{entryPoint: true}
	frontier := []Candidate{{ID: entryPoint, Distance: distanceTo(src, entryPoint, query)}}

	reachedBottom := true
	for layerIdx := 0; layerIdx <= layers.Bottom; layerIdx++ {
		g, ok := layers.Graphs[layerIdx]
		if !ok {
			reachedBottom = false
			continue // unmounted layer, spec §4.5 step 3
		}
		frontier = descendLayer(g, frontier, query, src, efSearch, visited)
	}

	SortCandidates(frontier)
	if len(frontier) > efSearch {
		frontier = frontier[:efSearch]
	}
	return frontier, reachedBottom
}

func descendLayer(g *Graph, frontier []Candidate, query Vector, src VectorSource, efSearch int, visited map[uint64]bool) []Candidate {
	queue := append([]Candidate(nil), frontier...)
	improved := true
	for improved {
		improved = false
		SortCandidates(queue)
		if len(queue) > efSearch {
			queue = queue[:efSearch]
		}
		for _, cur := range queue {
			neighbors := g.Neighbors[uint32(cur.ID)]
			for _, n := range neighbors {
				nid := uint64(n)
				if visited[nid] {
					continue
				}
				visited[nid] = true
				d := distanceTo(src, nid, query)
				if len(queue) < efSearch || d < queue[len(queue)-1].Distance {
					queue = append(queue, Candidate{ID: nid, Distance: d})
					improved = true
				}
			}
		}
	}
	return queue
}

func distanceTo(src VectorSource, id uint64, query Vector) float64 {
	v, ok := src.Vector(id)
	if !ok {
		return math.MaxFloat64
	}
	return L2Squared(query, v)
}

// ConsolidateCandidates implements spec §4.5 step 4: union the HNSW
// candidates with the vectors reachable from the selected centroid blocks,
// sort by distance, and take the top-k. blockVectors supplies every vector
// id reachable in the probed centroid blocks; it is the caller's job to
// resolve which ids those are (query owns the block->id mapping via the
// vector block segments).
func ConsolidateCandidates(hnsw []Candidate, blockIDs []uint64, src VectorSource, query Vector, k int) []Candidate {
	seen := make(map[uint64]bool, len(hnsw)+len(blockIDs))
	merged := make([]Candidate, 0, len(hnsw)+len(blockIDs))
	for _, c := range hnsw {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		merged = append(merged, c)
	}
	for _, id := range blockIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		v, ok := src.Vector(id)
		if !ok {
			continue
		}
		merged = append(merged, Candidate{ID: id, Distance: L2Squared(query, v)})
	}
	SortCandidates(merged)
	if len(merged) > k {
		merged = merged[:k]
	}
	return merged
}
