// Package scoring computes the quantile-based slowdown objective the
// evolutionary search maximizes.
package scoring

import (
	"math"
	"sort"

	"github.com/nocsched/focus-scheduler/pkg/flowtable"
)

// Quantile reports the q-quantile (linear interpolation, q in [0,1]) of a
// slice of per-layer maxima. Assumes values is already non-empty.
func quantile(values []float64, q float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Score computes, per flow, the completion proxy (delay+interval)*counts,
// takes the maximum within each layer, and returns the negative of the
// q-quantile across layers. Higher is better. q is typically 0.9-1.0.
func Score(table flowtable.Table, q float64) float64 {
	if len(table) == 0 {
		return 0
	}

	layerMax := make(map[string]float64)
	for _, f := range table {
		proxy := (f.Delay + float64(f.Interval)) * float64(f.Counts)
		if cur, ok := layerMax[f.Layer]; !ok || proxy > cur {
			layerMax[f.Layer] = proxy
		}
	}

	values := make([]float64, 0, len(layerMax))
	for _, v := range layerMax {
		values = append(values, v)
	}

	return -quantile(values, q)
}
