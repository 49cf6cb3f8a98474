package scg

import (
	"fmt"
	"math"

	"github.com/gilchrisn/polarized-clustering-service/pkg/signed"
)

// Rounding strategy names
const (
	RoundingMinAngle   = "min_angle"
	RoundingRandomized = "randomized"
	RoundingMaxObj     = "max_obj"
	RoundingBansal     = "bansal"
)

// RoundingStrategies lists the accepted strategy names in a fixed order
func RoundingStrategies() []string {
	return []string{RoundingMinAngle, RoundingRandomized, RoundingMaxObj, RoundingBansal}
}

// IsRoundingStrategy reports whether name is a known strategy
func IsRoundingStrategy(name string) bool {
	for _, s := range RoundingStrategies() {
		if s == name {
			return true
		}
	}
	return false
}

// Decision is a ternary per-node vector. Only the sign of an entry is
// meaningful: +1 joins the cluster decided this round, -1 is the opposite
// side and 0 leaves the node undecided.
type Decision []int8

// Counts returns the number of positive and negative entries
func (d Decision) Counts() (positive, negative int) {
	for _, x := range d {
		switch {
		case x > 0:
			positive++
		case x < 0:
			negative++
		}
	}
	return positive, negative
}

// RoundingInput is everything a strategy may look at in one round
type RoundingInput struct {
	Vector       []float64 // eigenvector of the largest eigenvalue, length N
	Z            int       // round counter, K-1 down to 1
	NeutralLabel int
	Adjacency    *signed.MaskedAdjacency
}

// Strategy turns a continuous eigenvector into a Decision. Inactive nodes
// must map to 0; an all-zero or constant input may yield an all-zero
// decision.
type Strategy interface {
	Name() string
	Round(in RoundingInput) (Decision, error)
}

// NewStrategy builds the named strategy from config. Strategies that draw
// random numbers are seeded from algorithm.random_seed, so a fresh strategy
// should be built for each run.
func NewStrategy(name string, config *Config) (Strategy, error) {
	tol := config.ZeroTolerance()
	switch name {
	case RoundingMinAngle:
		return &MinAngleRounding{ZeroTolerance: tol}, nil
	case RoundingRandomized:
		return NewRandomizedRounding(config.RandomizedTrials(), config.RandomSeed(), tol), nil
	case RoundingMaxObj:
		return &MaxObjRounding{ZeroTolerance: tol}, nil
	case RoundingBansal:
		return &BansalRounding{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown rounding strategy %q", ErrConfiguration, name)
	}
}

// candidate is an active node with a significant eigenvector entry
type candidate struct {
	node  int
	value float64
}

// significantEntries returns the active entries of v whose magnitude
// exceeds tol·max|v|, together with that maximum. Entries at or below the
// threshold are treated as exact zeros.
func significantEntries(v []float64, adj *signed.MaskedAdjacency, tol float64) ([]candidate, float64) {
	maxAbs := 0.0
	for i, x := range v {
		if adj.IsActive(i) {
			maxAbs = math.Max(maxAbs, math.Abs(x))
		}
	}
	if maxAbs == 0 || math.IsNaN(maxAbs) || math.IsInf(maxAbs, 0) {
		return nil, 0
	}

	cut := tol * maxAbs
	out := make([]candidate, 0)
	for i, x := range v {
		if adj.IsActive(i) && math.Abs(x) > cut {
			out = append(out, candidate{node: i, value: x})
		}
	}
	return out, maxAbs
}

// ternaryValues maps a decision to the {-1, 0, z} vector it stands for
func ternaryValues(d Decision, z int) []float64 {
	x := make([]float64, len(d))
	for i, s := range d {
		switch {
		case s > 0:
			x[i] = float64(z)
		case s < 0:
			x[i] = -1
		}
	}
	return x
}

func checkInput(in RoundingInput) error {
	if in.Adjacency == nil {
		return fmt.Errorf("rounding: nil adjacency")
	}
	if len(in.Vector) != in.Adjacency.Dim() {
		return fmt.Errorf("rounding: vector length %d does not match %d nodes", len(in.Vector), in.Adjacency.Dim())
	}
	if in.Z < 1 {
		return fmt.Errorf("rounding: round counter must be positive, got %d", in.Z)
	}
	return nil
}
