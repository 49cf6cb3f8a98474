package scg

import (
	"math"
	"sort"
)

// MaxObjRounding applies a single threshold τ to |v|: nodes above τ take the
// sign of v, the rest are left out. Nodes are added in order of decreasing
// |v| while the Rayleigh quotient of the {-1, 0, z} vector is updated
// incrementally, so every threshold is scored in O(deg) time. Both
// orientations are tried and the best prefix with at least one positive node
// wins.
type MaxObjRounding struct {
	ZeroTolerance float64
}

func (r *MaxObjRounding) Name() string { return RoundingMaxObj }

func (r *MaxObjRounding) Round(in RoundingInput) (Decision, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	n := len(in.Vector)
	decision := make(Decision, n)
	entries, _ := significantEntries(in.Vector, in.Adjacency, r.ZeroTolerance)
	if len(entries) == 0 {
		return decision, nil
	}
	sort.SliceStable(entries, func(a, b int) bool {
		ma, mb := math.Abs(entries[a].value), math.Abs(entries[b].value)
		if ma != mb {
			return ma > mb
		}
		return entries[a].node < entries[b].node
	})

	z := float64(in.Z)
	adj := in.Adjacency
	bestScore := math.Inf(-1)
	bestLen := 0
	bestOrientation := 1.0

	ax := make([]float64, n)
	for _, orientation := range []float64{1, -1} {
		for i := range ax {
			ax[i] = 0
		}
		xAx, xx := 0.0, 0.0
		positives := 0

		for k, c := range entries {
			a := -1.0
			if orientation*c.value > 0 {
				a = z
				positives++
			}
			i := c.node
			xAx += 2*a*ax[i] + adj.At(i, i)*a*a
			xx += a * a
			adj.ForEachNeighbor(i, func(j int, w float64) {
				ax[j] += w * a
			})

			if positives == 0 {
				continue
			}
			if score := xAx / xx; score > bestScore {
				bestScore = score
				bestLen = k + 1
				bestOrientation = orientation
			}
		}
	}

	for _, c := range entries[:bestLen] {
		if bestOrientation*c.value > 0 {
			decision[c.node] = 1
		} else {
			decision[c.node] = -1
		}
	}
	return decision, nil
}
