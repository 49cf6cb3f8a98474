package scg

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/polarized-clustering-service/pkg/eigen"
	"github.com/gilchrisn/polarized-clustering-service/pkg/signed"
)

// polarizedCliques builds k positive cliques of the given size with negative
// edges between every pair of cliques, plus extra isolated nodes at the end
func polarizedCliques(t *testing.T, k, size, isolated int) *signed.Graph {
	t.Helper()
	n := k*size + isolated
	g := signed.NewGraph(n)
	for i := 0; i < k*size; i++ {
		for j := i + 1; j < k*size; j++ {
			w := -1.0
			if i/size == j/size {
				w = 1.0
			}
			require.NoError(t, g.AddEdge(i, j, w))
		}
	}
	return g
}

func testConfig(k int, rounding string) *Config {
	config := NewConfig()
	config.Set("algorithm.k", k)
	config.Set("algorithm.rounding", rounding)
	config.Set("algorithm.random_seed", 42)
	config.Set("eigen.method", eigen.MethodDense)
	config.Set("logging.enable_progress", false)
	return config
}

func newTestEngine(t *testing.T, config *Config, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	engine, err := NewEngine(config, opts...)
	require.NoError(t, err)
	return engine
}

// countingSolver records how many eigensolves a run performs
type countingSolver struct {
	inner eigen.Solver
	calls int
}

func (c *countingSolver) Extremes(op eigen.Operator) (eigen.Eigenpair, eigen.Eigenpair, error) {
	c.calls++
	return c.inner.Extremes(op)
}

// fixedStrategy returns the same decision every round
type fixedStrategy struct {
	decision Decision
}

func (f *fixedStrategy) Name() string { return "fixed" }

func (f *fixedStrategy) Round(in RoundingInput) (Decision, error) {
	out := make(Decision, len(in.Vector))
	copy(out, f.decision)
	return out, nil
}

// sequenceStrategy replays one prepared decision per round
type sequenceStrategy struct {
	rounds []Decision
	next   int
}

func (s *sequenceStrategy) Name() string { return "sequence" }

func (s *sequenceStrategy) Round(in RoundingInput) (Decision, error) {
	d := s.rounds[s.next]
	s.next++
	return d, nil
}
