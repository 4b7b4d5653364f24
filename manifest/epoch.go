package manifest

// DefaultMaxEpochDrift is the spec §4.3 default: drift beyond this widens
// n_probe to the maximum and signals a background centroid recomputation.
const DefaultMaxEpochDrift uint32 = 64

// EpochDrift is epoch − centroid_epoch, the staleness signal spec §3/§4.3
// define. Callers compute it once per query against the manifest currently
// mounted (epochs only move forward between opens, spec §5 linearizability).
func EpochDrift(epoch, centroidEpoch uint32) uint32 {
	if epoch < centroidEpoch {
		return 0
	}
	return epoch - centroidEpoch
}

// NProbeWiden implements the ADR-033 elasticity rule of spec §4.3:
//   - drift ≤ maxDrift/2            → base n_probe (multiplier 1.0)
//   - maxDrift/2 < drift ≤ maxDrift  → linear widen up to 2×
//   - drift > maxDrift              → pinned at 2×, plus a recompute signal
//
// The returned multiplier is applied to base_n_probe by query.Engine
// (store.Query sets Engine.NProbeMultiplier from it); this function only
// knows the arithmetic, not the index.
func NProbeWiden(drift, maxDrift uint32) (multiplier float64, recomputeSignal bool) {
	if maxDrift == 0 {
		// A manifest that declares zero tolerance treats any drift at all
		// as over-budget.
		if drift > 0 {
			return 2.0, true
		}
		return 1.0, false
	}
	half := float64(maxDrift) / 2

	switch {
	case float64(drift) <= half:
		return 1.0, false
	case float64(drift) <= float64(maxDrift):
		// Linear interpolation from 1.0 at drift==half to 2.0 at
		// drift==maxDrift.
		frac := (float64(drift) - half) / (float64(maxDrift) - half)
		return 1.0 + frac, false
	default:
		return 2.0, true
	}
}
