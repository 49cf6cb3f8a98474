package scg

import (
	"math"
	"math/rand"
)

// RandomizedRounding samples ternary vectors from the eigenvector: node i
// keeps the sign of v_i with probability |v_i| / max|v| and is left out
// otherwise. Each sample is scored in both orientations by the Rayleigh
// quotient of its {-1, 0, z} vector under the masked adjacency, and the best
// sample over all trials wins.
type RandomizedRounding struct {
	Trials        int
	ZeroTolerance float64
	rng           *rand.Rand
}

// NewRandomizedRounding seeds a private generator so runs are reproducible
func NewRandomizedRounding(trials int, seed int64, zeroTolerance float64) *RandomizedRounding {
	if trials < 1 {
		trials = 1
	}
	return &RandomizedRounding{
		Trials:        trials,
		ZeroTolerance: zeroTolerance,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

func (r *RandomizedRounding) Name() string { return RoundingRandomized }

func (r *RandomizedRounding) Round(in RoundingInput) (Decision, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	n := len(in.Vector)
	best := make(Decision, n)
	entries, maxAbs := significantEntries(in.Vector, in.Adjacency, r.ZeroTolerance)
	if len(entries) == 0 {
		return best, nil
	}

	bestScore := math.Inf(-1)
	sample := make(Decision, n)
	for trial := 0; trial < r.Trials; trial++ {
		for i := range sample {
			sample[i] = 0
		}
		kept := 0
		for _, c := range entries {
			if r.rng.Float64() < math.Abs(c.value)/maxAbs {
				sample[c.node] = sign(c.value)
				kept++
			}
		}
		if kept == 0 {
			continue
		}

		for _, orientation := range []int8{1, -1} {
			oriented := orient(sample, orientation)
			if p, _ := oriented.Counts(); p == 0 {
				continue
			}
			score := RayleighQuotient(ternaryValues(oriented, in.Z), in.Adjacency)
			if score > bestScore {
				bestScore = score
				copy(best, oriented)
			}
		}
	}
	return best, nil
}

func sign(x float64) int8 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func orient(d Decision, orientation int8) Decision {
	out := make(Decision, len(d))
	for i, x := range d {
		out[i] = x * orientation
	}
	return out
}
