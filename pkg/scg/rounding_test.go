package scg

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/polarized-clustering-service/pkg/signed"
)

func allStrategies(t *testing.T) []Strategy {
	t.Helper()
	config := testConfig(2, RoundingMinAngle)
	var out []Strategy
	for _, name := range RoundingStrategies() {
		s, err := NewStrategy(name, config)
		require.NoError(t, err)
		require.Equal(t, name, s.Name())
		out = append(out, s)
	}
	return out
}

func TestNewStrategy(t *testing.T) {
	assert.Equal(t, []string{"min_angle", "randomized", "max_obj", "bansal"}, RoundingStrategies())
	assert.True(t, IsRoundingStrategy("bansal"))
	assert.False(t, IsRoundingStrategy("median"))

	_, err := NewStrategy("median", NewConfig())
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestRoundingSplitsTwoCliques(t *testing.T) {
	adj := signed.NewMaskedAdjacency(polarizedCliques(t, 2, 3, 0))
	a := 1 / math.Sqrt(6)
	v := []float64{a, a, a, -a, -a, -a}

	for _, s := range allStrategies(t) {
		t.Run(s.Name(), func(t *testing.T) {
			d, err := s.Round(RoundingInput{Vector: v, Z: 1, NeutralLabel: Neutral, Adjacency: adj})
			require.NoError(t, err)
			assert.Equal(t, Decision{1, 1, 1, -1, -1, -1}, d)
		})
	}
}

func TestRoundingZeroVector(t *testing.T) {
	adj := signed.NewMaskedAdjacency(polarizedCliques(t, 2, 3, 0))
	zero := make([]float64, 6)

	for _, s := range allStrategies(t) {
		if s.Name() == RoundingBansal {
			continue
		}
		t.Run(s.Name(), func(t *testing.T) {
			d, err := s.Round(RoundingInput{Vector: zero, Z: 2, NeutralLabel: Neutral, Adjacency: adj})
			require.NoError(t, err)
			assert.Equal(t, make(Decision, 6), d)
		})
	}

	t.Run("BansalWithoutPositiveEdges", func(t *testing.T) {
		g := signed.NewGraph(3)
		require.NoError(t, g.AddEdge(0, 1, -1))
		d, err := (&BansalRounding{}).Round(RoundingInput{Vector: zero[:3], Z: 1, Adjacency: signed.NewMaskedAdjacency(g)})
		require.NoError(t, err)
		assert.Equal(t, make(Decision, 3), d)
	})
}

func TestRoundingIgnoresInactiveNodes(t *testing.T) {
	adj := signed.NewMaskedAdjacency(polarizedCliques(t, 2, 3, 0))
	require.NoError(t, adj.Deactivate(0))
	require.NoError(t, adj.Deactivate(4))
	v := []float64{10, 0.4, 0.5, -0.4, -9, -0.5}

	for _, s := range allStrategies(t) {
		t.Run(s.Name(), func(t *testing.T) {
			d, err := s.Round(RoundingInput{Vector: v, Z: 1, NeutralLabel: Neutral, Adjacency: adj})
			require.NoError(t, err)
			assert.Zero(t, d[0])
			assert.Zero(t, d[4])
			p, _ := d.Counts()
			assert.Positive(t, p)
		})
	}
}

func TestRoundingInputChecks(t *testing.T) {
	adj := signed.NewMaskedAdjacency(signed.NewGraph(3))
	s := &MinAngleRounding{}
	_, err := s.Round(RoundingInput{Vector: []float64{1}, Z: 1, Adjacency: adj})
	assert.Error(t, err)
	_, err = s.Round(RoundingInput{Vector: []float64{1, 0, 0}, Z: 0, Adjacency: adj})
	assert.Error(t, err)
	_, err = s.Round(RoundingInput{Vector: []float64{1, 0, 0}, Z: 1})
	assert.Error(t, err)
}

// bruteForceAngle returns max |⟨x, v⟩| / ‖x‖ over nonzero x ∈ {-1, 0, 1}ⁿ
func bruteForceAngle(v []float64) float64 {
	n := len(v)
	total := 1
	for i := 0; i < n; i++ {
		total *= 3
	}
	best := 0.0
	for code := 1; code < total; code++ {
		dot, norm := 0.0, 0.0
		c := code
		for i := 0; i < n; i++ {
			x := float64(c%3 - 1)
			c /= 3
			dot += x * v[i]
			norm += x * x
		}
		if norm > 0 {
			best = math.Max(best, math.Abs(dot)/math.Sqrt(norm))
		}
	}
	return best
}

func TestMinAngleExactForUnitZ(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	adj := signed.NewMaskedAdjacency(signed.NewGraph(8))
	s := &MinAngleRounding{ZeroTolerance: 1e-9}

	for trial := 0; trial < 25; trial++ {
		v := make([]float64, 8)
		for i := range v {
			v[i] = rng.NormFloat64()
		}
		d, err := s.Round(RoundingInput{Vector: v, Z: 1, Adjacency: adj})
		require.NoError(t, err)

		x := ternaryValues(d, 1)
		dot, norm := 0.0, 0.0
		for i := range x {
			dot += x[i] * v[i]
			norm += x[i] * x[i]
		}
		require.Positive(t, norm)
		assert.InDelta(t, bruteForceAngle(v), math.Abs(dot)/math.Sqrt(norm), 1e-12, "trial %d", trial)
	}
}

func TestMinAngleWeightsPositiveSide(t *testing.T) {
	adj := signed.NewMaskedAdjacency(signed.NewGraph(4))
	// with z = 3 a positive entry costs 9 units of norm, so the small
	// positive entry stays out while the negatives join
	v := []float64{0.9, 0.1, -0.3, -0.3}
	d, err := (&MinAngleRounding{}).Round(RoundingInput{Vector: v, Z: 3, Adjacency: adj})
	require.NoError(t, err)
	assert.Equal(t, Decision{1, 0, -1, -1}, d)
}

func TestMaxObjPrefersDenseCluster(t *testing.T) {
	// clique {0,1,2} and a weakly attached node 3
	g := signed.NewGraph(4)
	require.NoError(t, g.AddEdge(0, 1, 1))
	require.NoError(t, g.AddEdge(0, 2, 1))
	require.NoError(t, g.AddEdge(1, 2, 1))
	require.NoError(t, g.AddEdge(2, 3, -1))
	adj := signed.NewMaskedAdjacency(g)

	v := []float64{0.6, 0.6, 0.5, 0.1}
	d, err := (&MaxObjRounding{}).Round(RoundingInput{Vector: v, Z: 2, Adjacency: adj})
	require.NoError(t, err)
	assert.Equal(t, Decision{1, 1, 1, 0}, d)
}

func TestRandomizedIsReproducible(t *testing.T) {
	adj := signed.NewMaskedAdjacency(polarizedCliques(t, 3, 4, 0))
	rng := rand.New(rand.NewSource(1))
	v := make([]float64, adj.Dim())
	for i := range v {
		v[i] = rng.NormFloat64()
	}

	a, err := NewRandomizedRounding(50, 7, 1e-9).Round(RoundingInput{Vector: v, Z: 2, Adjacency: adj})
	require.NoError(t, err)
	b, err := NewRandomizedRounding(50, 7, 1e-9).Round(RoundingInput{Vector: v, Z: 2, Adjacency: adj})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	p, _ := a.Counts()
	assert.Positive(t, p)
}

func TestBansalPivot(t *testing.T) {
	g := signed.NewGraph(6)
	require.NoError(t, g.AddEdge(1, 2, 1))
	require.NoError(t, g.AddEdge(1, 3, 1))
	require.NoError(t, g.AddEdge(4, 1, -1))
	require.NoError(t, g.AddEdge(4, 2, -1))
	require.NoError(t, g.AddEdge(5, 3, 1))
	require.NoError(t, g.AddEdge(5, 2, -2))
	adj := signed.NewMaskedAdjacency(g)

	d, err := (&BansalRounding{}).Round(RoundingInput{Vector: make([]float64, 6), Z: 1, Adjacency: adj})
	require.NoError(t, err)
	// pivot 1 has positive degree 2; node 5 nets -1 against {1,2,3}
	assert.Equal(t, Decision{0, 1, 1, 1, -1, -1}, d)
}
