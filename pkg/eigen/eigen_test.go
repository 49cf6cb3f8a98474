package eigen

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// denseOp is a masked dense symmetric matrix used as a test operator
type denseOp struct {
	a      *mat.SymDense
	active []bool
}

func newDenseOp(a *mat.SymDense) *denseOp {
	n := a.SymmetricDim()
	active := make([]bool, n)
	for i := range active {
		active[i] = true
	}
	return &denseOp{a: a, active: active}
}

func (d *denseOp) Dim() int { return d.a.SymmetricDim() }

func (d *denseOp) ActiveNodes() []int {
	var nodes []int
	for i, on := range d.active {
		if on {
			nodes = append(nodes, i)
		}
	}
	return nodes
}

func (d *denseOp) At(i, j int) float64 {
	if !d.active[i] || !d.active[j] {
		return 0
	}
	return d.a.At(i, j)
}

func (d *denseOp) MulVec(dst, x []float64) {
	for i := range dst {
		sum := 0.0
		for j := range x {
			sum += d.At(i, j) * x[j]
		}
		dst[i] = sum
	}
}

func residual(op Operator, p Eigenpair) float64 {
	av := make([]float64, op.Dim())
	op.MulVec(av, p.Vector)
	r := 0.0
	for i := range av {
		d := av[i] - p.Value*p.Vector[i]
		r += d * d
	}
	return math.Sqrt(r)
}

func perturbedDiagonal(n int, seed int64) *mat.SymDense {
	rng := rand.New(rand.NewSource(seed))
	a := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		a.SetSym(i, i, float64(i+1))
		if i+1 < n {
			a.SetSym(i, i+1, 0.5*rng.Float64())
		}
	}
	return a
}

func TestDenseSolver(t *testing.T) {
	// two positive triangles joined by negative edges: top eigenvalue 5
	a := mat.NewSymDense(6, nil)
	for i := 0; i < 6; i++ {
		for j := i + 1; j < 6; j++ {
			if (i < 3) == (j < 3) {
				a.SetSym(i, j, 1)
			} else {
				a.SetSym(i, j, -1)
			}
		}
	}
	op := newDenseOp(a)

	largest, smallest, err := (&DenseSolver{}).Extremes(op)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, largest.Value, 1e-10)
	assert.InDelta(t, -1.0, smallest.Value, 1e-10)
	assert.Less(t, residual(op, largest), 1e-10)

	for i := 0; i < 3; i++ {
		assert.Greater(t, largest.Vector[i], 0.0, "first clique positive after sign normalization")
		assert.Less(t, largest.Vector[i+3], 0.0)
	}
}

func TestInactiveRowsContributeZero(t *testing.T) {
	a := mat.NewSymDense(4, nil)
	a.SetSym(1, 2, -1)
	a.SetSym(2, 3, -1)
	a.SetSym(1, 3, -1)
	a.SetSym(0, 1, 5)
	op := newDenseOp(a)
	op.active[0] = false

	largest, smallest, err := (&DenseSolver{}).Extremes(op)
	require.NoError(t, err)

	// active block has spectrum {-2, 1, 1}; the inactive row adds 0 which
	// does not beat 1
	assert.InDelta(t, 1.0, largest.Value, 1e-10)
	assert.InDelta(t, -2.0, smallest.Value, 1e-10)
	assert.Zero(t, largest.Vector[0])

	t.Run("ZeroWinsOverNegativeSpectrum", func(t *testing.T) {
		b := mat.NewSymDense(3, nil)
		b.SetSym(1, 2, -1)
		b.SetSym(1, 1, -3)
		b.SetSym(2, 2, -3)
		neg := newDenseOp(b)
		neg.active[0] = false

		largest, _, err := (&DenseSolver{}).Extremes(neg)
		require.NoError(t, err)
		assert.Equal(t, 0.0, largest.Value)
		assert.Equal(t, []float64{1, 0, 0}, largest.Vector)
	})

	t.Run("NothingActive", func(t *testing.T) {
		none := newDenseOp(mat.NewSymDense(2, nil))
		none.active[0], none.active[1] = false, false
		largest, smallest, err := (&DenseSolver{}).Extremes(none)
		require.NoError(t, err)
		assert.Equal(t, 0.0, largest.Value)
		assert.Equal(t, 0.0, smallest.Value)
	})
}

func TestLanczosMatchesDense(t *testing.T) {
	op := newDenseOp(perturbedDiagonal(120, 7))
	op.active[5] = false
	op.active[60] = false

	want, wantSmall, err := (&DenseSolver{}).Extremes(op)
	require.NoError(t, err)

	solver := &LanczosSolver{Steps: 30, MaxRestarts: 300, Tolerance: 1e-9, Seed: 3}
	got, gotSmall, err := solver.Extremes(op)
	require.NoError(t, err)

	assert.InDelta(t, want.Value, got.Value, 1e-7)
	assert.InDelta(t, wantSmall.Value, gotSmall.Value, 1e-7)
	assert.Less(t, residual(op, got), 1e-6)
	assert.Zero(t, got.Vector[5], "inactive coordinates stay zero")
	assert.Zero(t, got.Vector[60])

	dot := 0.0
	for i := range got.Vector {
		dot += got.Vector[i] * want.Vector[i]
	}
	assert.InDelta(t, 1.0, math.Abs(dot), 1e-6)
}

func TestZeroActiveBlock(t *testing.T) {
	lanczos := &LanczosSolver{Steps: 10, MaxRestarts: 50, Tolerance: 1e-9, Seed: 3}
	solvers := map[string]Solver{
		"Dense":   &DenseSolver{},
		"Lanczos": lanczos,
		"Auto":    &AutoSolver{Threshold: 50, Dense: &DenseSolver{}, Sparse: lanczos},
	}

	edgeless := newDenseOp(mat.NewSymDense(100, nil))

	// a star whose hub is inactive leaves an edgeless active block
	star := mat.NewSymDense(100, nil)
	for i := 1; i < 100; i++ {
		star.SetSym(0, i, -1)
	}
	inactiveHub := newDenseOp(star)
	inactiveHub.active[0] = false

	for opName, op := range map[string]*denseOp{"Edgeless": edgeless, "InactiveHub": inactiveHub} {
		for name, solver := range solvers {
			t.Run(opName+"/"+name, func(t *testing.T) {
				largest, smallest, err := solver.Extremes(op)
				require.NoError(t, err)
				assert.Equal(t, 0.0, largest.Value)
				assert.Equal(t, 0.0, smallest.Value)
				assert.Equal(t, make([]float64, 100), largest.Vector)
				assert.Equal(t, make([]float64, 100), smallest.Vector)
			})
		}
	}
}

func TestLanczosDeterministic(t *testing.T) {
	op := newDenseOp(perturbedDiagonal(80, 11))
	solver := &LanczosSolver{Steps: 20, MaxRestarts: 300, Tolerance: 1e-9, Seed: 5}
	a, _, err := solver.Extremes(op)
	require.NoError(t, err)
	b, _, err := solver.Extremes(op)
	require.NoError(t, err)
	assert.Equal(t, a.Value, b.Value)
	assert.Equal(t, a.Vector, b.Vector)
}

func TestNew(t *testing.T) {
	opts := DefaultOptions()
	s, err := New(opts)
	require.NoError(t, err)
	auto, ok := s.(*AutoSolver)
	require.True(t, ok)
	assert.Equal(t, 1500, auto.Threshold)

	opts.Method = MethodDense
	s, err = New(opts)
	require.NoError(t, err)
	assert.IsType(t, &DenseSolver{}, s)

	opts.Method = MethodLanczos
	s, err = New(opts)
	require.NoError(t, err)
	assert.IsType(t, &LanczosSolver{}, s)

	opts.Method = "qr"
	_, err = New(opts)
	assert.Error(t, err)
}
