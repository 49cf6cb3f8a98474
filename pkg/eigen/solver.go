// Package eigen computes extremal eigenpairs of symmetric operators whose
// support may shrink over time. Rows outside Operator.ActiveNodes are
// identically zero and are never touched by the solvers.
package eigen

import (
	"errors"
	"math"
)

var (
	ErrNotConverged = errors.New("eigen: solver did not converge")
	ErrFactorize    = errors.New("eigen: symmetric factorization failed")
)

// Operator is a symmetric N×N matrix that is zero outside ActiveNodes
type Operator interface {
	Dim() int
	ActiveNodes() []int
	At(i, j int) float64
	MulVec(dst, x []float64)
}

// Eigenpair holds one eigenvalue and its unit eigenvector over all N indices.
// When the active block is identically zero the vector is all zero.
type Eigenpair struct {
	Value  float64
	Vector []float64
}

// Solver returns the largest and smallest algebraic eigenpairs
type Solver interface {
	Extremes(op Operator) (largest, smallest Eigenpair, err error)
}

// Method names accepted by New
const (
	MethodAuto    = "auto"
	MethodDense   = "dense"
	MethodLanczos = "lanczos"
)

// Options configure the solvers built by New
type Options struct {
	Method         string
	DenseThreshold int
	LanczosSteps   int
	MaxRestarts    int
	Tolerance      float64
	Seed           int64
}

// DefaultOptions mirrors the configuration defaults
func DefaultOptions() Options {
	return Options{
		Method:         MethodAuto,
		DenseThreshold: 1500,
		LanczosSteps:   64,
		MaxRestarts:    100,
		Tolerance:      1e-9,
		Seed:           1,
	}
}

// New builds a solver for the named method
func New(opts Options) (Solver, error) {
	switch opts.Method {
	case MethodDense:
		return &DenseSolver{}, nil
	case MethodLanczos:
		return NewLanczosSolver(opts), nil
	case MethodAuto, "":
		return &AutoSolver{
			Threshold: opts.DenseThreshold,
			Dense:     &DenseSolver{},
			Sparse:    NewLanczosSolver(opts),
		}, nil
	default:
		return nil, errors.New("eigen: unknown method " + opts.Method)
	}
}

// AutoSolver factorizes small active sets densely and falls back to Lanczos
type AutoSolver struct {
	Threshold int
	Dense     Solver
	Sparse    Solver
}

func (s *AutoSolver) Extremes(op Operator) (Eigenpair, Eigenpair, error) {
	if len(op.ActiveNodes()) <= s.Threshold {
		return s.Dense.Extremes(op)
	}
	return s.Sparse.Extremes(op)
}

// withInactiveZero accounts for the zero eigenvalue contributed by inactive
// rows. When some node is inactive and zero beats the active extreme, the
// zero eigenpair supported on the first inactive node wins.
func withInactiveZero(op Operator, active []int, largest, smallest Eigenpair) (Eigenpair, Eigenpair) {
	n := op.Dim()
	if len(active) == n {
		return largest, smallest
	}
	inactive := firstInactive(active, n)
	if len(active) == 0 || largest.Value < 0 {
		largest = unitPair(n, inactive)
	}
	if len(active) == 0 || smallest.Value > 0 {
		smallest = unitPair(n, inactive)
	}
	return largest, smallest
}

func firstInactive(active []int, n int) int {
	for k, i := range active {
		if i != k {
			return k
		}
	}
	if len(active) < n {
		return len(active)
	}
	return -1
}

// zeroPairs answers an active block with no nonzero entry. Every eigenvector
// of the block is equally valid there, so no node is singled out.
func zeroPairs(n int) (Eigenpair, Eigenpair) {
	return Eigenpair{Vector: make([]float64, n)}, Eigenpair{Vector: make([]float64, n)}
}

func unitPair(n, i int) Eigenpair {
	v := make([]float64, n)
	if i >= 0 {
		v[i] = 1
	}
	return Eigenpair{Value: 0, Vector: v}
}

// normalizeSign flips v so that its first significant entry is positive
func normalizeSign(v []float64) {
	maxAbs := 0.0
	for _, x := range v {
		maxAbs = math.Max(maxAbs, math.Abs(x))
	}
	if maxAbs == 0 {
		return
	}
	for _, x := range v {
		if math.Abs(x) > 1e-8*maxAbs {
			if x < 0 {
				for i := range v {
					v[i] = -v[i]
				}
			}
			return
		}
	}
}

// scatter expands a vector over the active index space to length n
func scatter(active []int, compact []float64, n int) []float64 {
	full := make([]float64, n)
	for k, i := range active {
		full[i] = compact[k]
	}
	return full
}
