package eigen

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LanczosSolver runs explicitly restarted Lanczos with full
// reorthogonalization over the active index space. Each restart builds a
// Krylov basis of at most Steps vectors, takes the extreme Ritz pair of the
// tridiagonal projection and restarts from that Ritz vector until the
// residual drops below Tolerance·max(1, |θ|).
type LanczosSolver struct {
	Steps       int
	MaxRestarts int
	Tolerance   float64
	Seed        int64
}

// NewLanczosSolver copies the Lanczos fields out of opts
func NewLanczosSolver(opts Options) *LanczosSolver {
	return &LanczosSolver{
		Steps:       opts.LanczosSteps,
		MaxRestarts: opts.MaxRestarts,
		Tolerance:   opts.Tolerance,
		Seed:        opts.Seed,
	}
}

func (s *LanczosSolver) Extremes(op Operator) (Eigenpair, Eigenpair, error) {
	active := op.ActiveNodes()
	m := len(active)
	// Small problems are cheaper and exact with the dense path.
	if m <= 2 || m <= s.Steps {
		return (&DenseSolver{}).Extremes(op)
	}

	rng := rand.New(rand.NewSource(s.Seed))
	start := make([]float64, m)
	for k := range start {
		start[k] = rng.NormFloat64()
	}

	k := &krylov{op: op, active: active, full: make([]float64, op.Dim()), out: make([]float64, op.Dim())}

	// A random vector is annihilated only by a zero block.
	image := make([]float64, m)
	k.apply(image, start)
	if floats.Norm(image, 2) == 0 {
		l, sm := zeroPairs(op.Dim())
		return l, sm, nil
	}

	largest, err := s.extreme(k, start, true)
	if err != nil {
		return Eigenpair{}, Eigenpair{}, fmt.Errorf("largest eigenpair: %w", err)
	}
	smallest, err := s.extreme(k, start, false)
	if err != nil {
		return Eigenpair{}, Eigenpair{}, fmt.Errorf("smallest eigenpair: %w", err)
	}
	normalizeSign(largest.Vector)
	normalizeSign(smallest.Vector)

	largest, smallest = withInactiveZero(op, active, largest, smallest)
	return largest, smallest, nil
}

func (s *LanczosSolver) extreme(k *krylov, start []float64, wantLargest bool) (Eigenpair, error) {
	v := append([]float64(nil), start...)
	var theta, residual float64
	for restart := 0; restart <= s.MaxRestarts; restart++ {
		theta, v, residual = k.ritz(v, s.Steps, wantLargest)
		if residual <= s.Tolerance*math.Max(1, math.Abs(theta)) {
			return Eigenpair{Value: theta, Vector: scatter(k.active, v, k.op.Dim())}, nil
		}
	}
	return Eigenpair{}, fmt.Errorf("%w: residual %.3g after %d restarts", ErrNotConverged, residual, s.MaxRestarts)
}

// krylov holds scratch space for products on the compact index space
type krylov struct {
	op     Operator
	active []int
	full   []float64
	out    []float64
}

func (k *krylov) apply(dst, x []float64) {
	for c, i := range k.active {
		k.full[i] = x[c]
	}
	k.op.MulVec(k.out, k.full)
	for c, i := range k.active {
		dst[c] = k.out[i]
	}
}

// ritz runs one Lanczos pass from v and returns the wanted Ritz value, its
// unit Ritz vector and the residual norm |β_last · s_last|
func (k *krylov) ritz(v []float64, steps int, wantLargest bool) (float64, []float64, float64) {
	m := len(k.active)
	if steps > m {
		steps = m
	}

	q := append([]float64(nil), v...)
	if norm := floats.Norm(q, 2); norm > 0 {
		floats.Scale(1/norm, q)
	} else {
		q[0] = 1
	}

	basis := make([][]float64, 0, steps)
	alpha := make([]float64, 0, steps)
	beta := make([]float64, 0, steps)
	lastBeta := 0.0
	w := make([]float64, m)

	for j := 0; j < steps; j++ {
		basis = append(basis, q)
		k.apply(w, q)
		a := floats.Dot(w, q)
		alpha = append(alpha, a)

		floats.AddScaled(w, -a, q)
		if j > 0 {
			floats.AddScaled(w, -beta[j-1], basis[j-1])
		}
		// Two passes of classical Gram-Schmidt keep the basis orthogonal.
		for pass := 0; pass < 2; pass++ {
			for _, b := range basis {
				floats.AddScaled(w, -floats.Dot(w, b), b)
			}
		}

		b := floats.Norm(w, 2)
		scale := math.Max(1, math.Abs(a))
		if j == steps-1 || b <= 1e-12*scale {
			lastBeta = b
			if b <= 1e-12*scale {
				lastBeta = 0
			}
			break
		}
		beta = append(beta, b)
		q = make([]float64, m)
		floats.ScaleTo(q, 1/b, w)
	}

	size := len(alpha)
	tri := mat.NewSymDense(size, nil)
	for i := 0; i < size; i++ {
		tri.SetSym(i, i, alpha[i])
		if i+1 < size {
			tri.SetSym(i, i+1, beta[i])
		}
	}

	var es mat.EigenSym
	if !es.Factorize(tri, true) {
		// Fall back to the Rayleigh quotient of the start vector.
		return alpha[0], basis[0], math.Inf(1)
	}
	values := es.Values(nil)
	var vectors mat.Dense
	es.VectorsTo(&vectors)

	idx := 0
	if wantLargest {
		idx = size - 1
	}
	coeff := mat.Col(nil, idx, &vectors)

	ritzVec := make([]float64, m)
	for j, c := range coeff {
		floats.AddScaled(ritzVec, c, basis[j])
	}
	if norm := floats.Norm(ritzVec, 2); norm > 0 {
		floats.Scale(1/norm, ritzVec)
	}

	return values[idx], ritzVec, math.Abs(lastBeta * coeff[size-1])
}
