package query

import (
	"math"

	"github.com/ruvector/rvf/index"
	"github.com/ruvector/rvf/observability"
)

// Engine holds everything the query pipeline needs once a store's mounted
// index state is resolved: the centroid set, whichever HNSW layers are
// currently mounted, a VectorSource that resolves a candidate id to its
// distance-comparable embedding (full precision or quantized codebook,
// whichever tier is resident), and the hot-cache blocks the safety net
// scans. Callers (typically a thin wrapper in the store package) rebuild an
// Engine whenever a new mount completes; an Engine itself is read-only and
// safe for concurrent Query calls.
type Engine struct {
	Centroids *index.CentroidSet
	Layers    *index.LayerSet
	Mounts    *index.MountTable
	Vectors   index.VectorSource
	HotCache  []index.HotCacheBlock

	EntryPoint      uint64
	BaseNProbe      int
	EfSearchDefault int

	// DegenerateCVThreshold is the coefficient-of-variation cutoff below
	// which centroid distances are treated as degenerate (spec §4.5 step 2
	// default 0.05, recorded here per the Open Question decision that this
	// is a constructor parameter rather than a compile-time constant).
	DegenerateCVThreshold float64

	// NProbeMultiplier applies the epoch-drift elasticity rule of spec
	// §4.3 (manifest.NProbeWiden) to BaseNProbe before the centroid probe
	// runs. NewEngine sets it to 1.0; store.Query sets it from the mounted
	// Level 0 page's epoch drift each time it builds an Engine.
	NProbeMultiplier float64
}

// NewEngine builds an Engine with the defaults spec §9's Open Question
// decision calls for when a caller doesn't override them.
func NewEngine(centroids *index.CentroidSet, layers *index.LayerSet, mounts *index.MountTable, vectors index.VectorSource, hotCache []index.HotCacheBlock, entryPoint uint64, baseNProbe, efSearchDefault int) *Engine {
	return &Engine{
		Centroids:             centroids,
		Layers:                layers,
		Mounts:                mounts,
		Vectors:               vectors,
		HotCache:              hotCache,
		EntryPoint:            entryPoint,
		BaseNProbe:            baseNProbe,
		EfSearchDefault:       efSearchDefault,
		DegenerateCVThreshold: index.DefaultDegenerateCVThreshold,
		NProbeMultiplier:      1.0,
	}
}

// Query runs the full pipeline of spec §4.5 steps 1-6: centroid probe,
// degeneracy check with adaptive n_probe widening, HNSW traversal over
// mounted layers, candidate consolidation, the safety net when
// consolidation comes up short, and final quality assignment.
func (e *Engine) Query(q Query) Response {
	efSearch := q.EfSearch
	if efSearch == 0 {
		efSearch = e.EfSearchDefault
	}
	nProbe := q.NProbe
	if nProbe == 0 {
		nProbe = int(math.Round(float64(e.BaseNProbe) * e.NProbeMultiplier))
	}
	if nProbe < 1 {
		nProbe = 1
	}

	k := q.K
	if k < 1 {
		k = 1
	}

	// Step 1+2: probe 2*n_probe centroids so the degeneracy check has the
	// window spec §4.5 step 2 specifies, then trim to the (possibly
	// widened) n_probe for block gathering.
	probeWindow := 2 * nProbe
	if e.Centroids != nil && probeWindow > e.Centroids.K() {
		probeWindow = e.Centroids.K()
	}
	var hits []index.CentroidHit
	if e.Centroids != nil {
		hits = e.Centroids.Probe(q.Vector, probeWindow)
	}
	distances := make([]float64, len(hits))
	for i, h := range hits {
		distances[i] = h.Distance
	}
	cv, degenerate := index.DegeneracyCheck(distances, e.DegenerateCVThreshold)
	if degenerate && e.Centroids != nil {
		nProbe = index.WidenedNProbe(nProbe, e.Centroids.K())
	}
	if nProbe < len(hits) {
		hits = hits[:nProbe]
	}

	blockIDs := make([]uint64, 0, len(hits)*4)
	for _, h := range hits {
		for _, b := range h.BlockIDs {
			blockIDs = append(blockIDs, uint64(b))
		}
	}

	// Step 3: HNSW traversal over whatever layers are currently mounted.
	var hnswCandidates []index.Candidate
	reachedBottom := false
	if e.Layers != nil {
		hnswCandidates, reachedBottom = index.Traverse(e.Layers, e.EntryPoint, q.Vector, e.Vectors, efSearch)
	}

	// Step 4: consolidation, keeping up to 2·k candidates so the 2·k checks
	// of steps 5 and 6 can hold; results are cut to k below.
	consolidated := index.ConsolidateCandidates(hnswCandidates, blockIDs, e.Vectors, q.Vector, 2*k)

	bruteForceIDs := map[uint64]bool{}
	var scanned uint64
	var budgetExhausted bool
	results := consolidated

	// Step 5: safety net when the consolidated set is thin.
	if len(consolidated) < 2*k {
		merged, sc, exhausted := e.safetyNet(q, consolidated)
		results = merged
		scanned = sc
		budgetExhausted = exhausted
		for _, c := range merged {
			if c.Quality == observability.RetrievalBruteForceFallback {
				bruteForceIDs[c.ID] = true
			}
		}
	}

	if len(results) > k {
		results = results[:k]
	}

	resp := Response{
		CandidatesScanned: scanned,
		CandidatesBudget:  uint64(q.BruteForceCandidateBudget),
	}
	for _, c := range results {
		quality := observability.RetrievalNormal
		switch {
		case bruteForceIDs[c.ID]:
			quality = observability.RetrievalBruteForceFallback
		case degenerate:
			quality = observability.RetrievalWidenedProbe
		}
		resp.Results = append(resp.Results, Result{ID: c.ID, Distance: c.Distance, Quality: quality})
	}

	// mountComplete mirrors spec §4.5's priority table at the response
	// level: Full/Verified requires Layer C mounted AND traversal actually
	// reaching the bottom of the graph without a gap (index.Traverse's
	// reachedBottom). A mount table missing Layer C, or one where some
	// in-between layer was unmounted and silently skipped, can never earn
	// QualityFull regardless of how clean the other signals look —
	// otherwise two mount states S1⊆S2 would report identical quality,
	// breaking the monotonicity invariant of spec §8.
	mountComplete := e.Mounts != nil && e.Mounts.Mounted(index.PriorityLayerC) && reachedBottom

	// Step 6: response-level quality, spec §4.6 step 6's three-way
	// assignment collapsed onto this module's ResponseQuality (spec §4.5's
	// four-level Verified/Usable/Degraded/Unreliable taxonomy is carried at
	// the per-result RetrievalQuality granularity above; ResponseQuality
	// itself only distinguishes "fully trustworthy", "degraded but useful",
	// and "not enough to stand behind", per the Open Question decision in
	// DESIGN.md).
	switch {
	case len(results) >= k && len(consolidated) >= 2*k && !degenerate && mountComplete:
		resp.ResponseQuality = observability.QualityFull
	case len(results) >= k && (degenerate || len(bruteForceIDs) > 0):
		resp.ResponseQuality = observability.QualityDegraded
		if len(bruteForceIDs) > 0 && budgetExhausted {
			resp.DegradationReason = observability.BudgetExhausted(scanned, uint64(q.BruteForceCandidateBudget), q.BruteForceTimeBudgetUs*1000)
			resp.TimeBudgetExhausted = budgetExhausted
		} else {
			resp.DegradationReason = observability.DegenerateDistribution(cv, e.DegenerateCVThreshold)
		}
	case budgetExhausted:
		resp.ResponseQuality = observability.QualityDegraded
		resp.DegradationReason = observability.BudgetExhausted(scanned, uint64(q.BruteForceCandidateBudget), q.BruteForceTimeBudgetUs*1000)
		resp.TimeBudgetExhausted = true
	case len(results) >= k && len(consolidated) >= 2*k && !degenerate && !mountComplete:
		resp.ResponseQuality = observability.QualityDegraded
		resp.DegradationReason = observability.IncompleteMount(deepestMounted(e.Mounts), reachedBottom)
	default:
		resp.ResponseQuality = observability.QualityUnreliable
		resp.DegradationReason = observability.DegenerateDistribution(cv, e.DegenerateCVThreshold)
	}

	return resp
}

// deepestMounted reports the name of the highest spec §4.5 priority
// currently resident in mounts, for DegradationReason diagnostics.
func deepestMounted(mounts *index.MountTable) string {
	if mounts == nil {
		return "none"
	}
	for _, p := range []index.Priority{
		index.PriorityLayerC,
		index.PriorityFullVectors,
		index.PriorityLayerB,
		index.PriorityQuantDict,
		index.PriorityLayerA,
		index.PriorityHotCache,
		index.PriorityHotset,
	} {
		if mounts.Mounted(p) {
			return p.String()
		}
	}
	return "none"
}
