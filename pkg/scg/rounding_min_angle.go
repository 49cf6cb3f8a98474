package scg

import (
	"math"
	"sort"
)

// MinAngleRounding picks x ∈ {-1, 0, z}ⁿ with a small angle to the
// eigenvector. A positive entry a placed at z adds z·a to ⟨x, v⟩ and z² to
// ‖x‖²; a negative entry b placed at -1 adds |b| and 1. Entries are ranked
// by contribution per unit of squared norm and every prefix holding at least
// one positive entry is scored by ⟨x, v⟩ / ‖x‖, in both orientations of v.
// For z = 1 this is the exact minimum angle.
type MinAngleRounding struct {
	ZeroTolerance float64
}

func (r *MinAngleRounding) Name() string { return RoundingMinAngle }

func (r *MinAngleRounding) Round(in RoundingInput) (Decision, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	decision := make(Decision, len(in.Vector))
	entries, _ := significantEntries(in.Vector, in.Adjacency, r.ZeroTolerance)
	if len(entries) == 0 {
		return decision, nil
	}

	z := float64(in.Z)
	bestScore := math.Inf(-1)
	var best []rankedEntry

	for _, orientation := range []float64{1, -1} {
		ranked := rankEntries(entries, orientation, z)
		length, score := bestPrefix(ranked)
		if length > 0 && score > bestScore {
			bestScore = score
			best = ranked[:length]
		}
	}

	for _, e := range best {
		if e.positive {
			decision[e.node] = 1
		} else {
			decision[e.node] = -1
		}
	}
	return decision, nil
}

type rankedEntry struct {
	node     int
	positive bool
	gain     float64 // contribution to ⟨x, v⟩
	weight   float64 // contribution to ‖x‖²
}

// rankEntries orders entries of orientation·v by gain/weight descending,
// ties by node index
func rankEntries(entries []candidate, orientation, z float64) []rankedEntry {
	ranked := make([]rankedEntry, len(entries))
	for k, c := range entries {
		x := orientation * c.value
		if x > 0 {
			ranked[k] = rankedEntry{node: c.node, positive: true, gain: z * x, weight: z * z}
		} else {
			ranked[k] = rankedEntry{node: c.node, gain: -x, weight: 1}
		}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		ra := ranked[a].gain / ranked[a].weight
		rb := ranked[b].gain / ranked[b].weight
		if ra != rb {
			return ra > rb
		}
		return ranked[a].node < ranked[b].node
	})
	return ranked
}

// bestPrefix returns the length and score of the best-scoring prefix that
// contains a positive entry; length 0 means there is none
func bestPrefix(ranked []rankedEntry) (int, float64) {
	best := math.Inf(-1)
	length := 0
	gain, weight := 0.0, 0.0
	seenPositive := false
	for k, e := range ranked {
		gain += e.gain
		weight += e.weight
		seenPositive = seenPositive || e.positive
		if !seenPositive {
			continue
		}
		if score := gain / math.Sqrt(weight); score > best {
			best = score
			length = k + 1
		}
	}
	return length, best
}
