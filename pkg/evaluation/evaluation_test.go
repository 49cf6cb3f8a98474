package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/polarized-clustering-service/pkg/scg"
	"github.com/gilchrisn/polarized-clustering-service/pkg/signed"
)

func TestAccuracy(t *testing.T) {
	t.Run("PerfectUpToRelabel", func(t *testing.T) {
		truth := []int{1, 1, 2, 2, -1}
		pred := []int{2, 2, 1, 1, -1}
		r, err := Accuracy(pred, truth, 2)
		require.NoError(t, err)
		assert.Equal(t, 1.0, r.Precision)
		assert.Equal(t, 1.0, r.Recall)
		assert.Equal(t, 1.0, r.F1)
		assert.Equal(t, []int{2, 1}, r.Matching)
	})

	t.Run("Partial", func(t *testing.T) {
		truth := []int{1, 1, 1, 1, 2, 2, 2, 2}
		pred := []int{1, 1, 1, 2, 2, 2, -1, -1}
		r, err := Accuracy(pred, truth, 2)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, r.Matching)
		assert.InDelta(t, 1.0, r.Precisions[0], 1e-12)
		assert.InDelta(t, 0.75, r.Recalls[0], 1e-12)
		assert.InDelta(t, 2.0/3.0, r.Precisions[1], 1e-12)
		assert.InDelta(t, 0.5, r.Recalls[1], 1e-12)
		assert.InDelta(t, 5.0/6.0, r.Precision, 1e-12)
		assert.InDelta(t, 0.625, r.Recall, 1e-12)
		p, rc := 5.0/6.0, 0.625
		assert.InDelta(t, 2*p*rc/(p+rc), r.F1, 1e-12)
	})

	t.Run("AllNeutral", func(t *testing.T) {
		r, err := Accuracy([]int{-1, -1}, []int{1, 2}, 2)
		require.NoError(t, err)
		assert.Zero(t, r.F1)
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := Accuracy([]int{1}, []int{1, 2}, 2)
		assert.Error(t, err)
		_, err = Accuracy([]int{1}, []int{1}, 0)
		assert.Error(t, err)
	})
}

func TestNormalizedMutualInfo(t *testing.T) {
	nmi, err := NormalizedMutualInfo([]int{1, 1, 2, 2}, []int{5, 5, 7, 7})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, nmi, 1e-12)

	nmi, err = NormalizedMutualInfo([]int{1, 1, 2, 2}, []int{1, 2, 1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, nmi, 1e-12)

	nmi, err = NormalizedMutualInfo([]int{3, 3, 3}, []int{4, 4, 4})
	require.NoError(t, err)
	assert.Equal(t, 1.0, nmi)

	_, err = NormalizedMutualInfo([]int{1}, []int{1, 2})
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	g := signed.NewGraph(5)
	require.NoError(t, g.AddEdge(0, 1, 1))
	require.NoError(t, g.AddEdge(2, 3, 2))
	require.NoError(t, g.AddEdge(0, 2, -1))
	require.NoError(t, g.AddEdge(1, 3, 1))  // positive edge across clusters
	require.NoError(t, g.AddEdge(3, 4, -5)) // touches the isolated neutral node

	config := scg.NewConfig()
	config.Set("algorithm.k", 2)
	config.Set("eigen.method", "dense")
	config.Set("logging.enable_progress", false)
	engine, err := scg.NewEngine(config, scg.WithLogger(zerolog.Nop()), scg.WithStrategy(&fixed{}))
	require.NoError(t, err)
	result, err := engine.Run(context.Background(), g)
	require.NoError(t, err)
	require.Equal(t, []int{1, 1, 2, 2, scg.Neutral}, result.Assignment)

	s := Summarize(result, 1500*time.Millisecond)
	assert.Equal(t, []int{2, 2}, s.ClusterSizes)
	assert.Equal(t, 1, s.Neutral)
	assert.Equal(t, 3, s.AgreeingEdges)
	assert.Equal(t, 1, s.DisagreeingEdges)
	assert.InDelta(t, 4.0, s.AgreeingWeight, 1e-12)
	assert.InDelta(t, 1.0, s.DisagreeingWeight, 1e-12)
	assert.InDelta(t, 0.75, s.Polarity, 1e-12)
	assert.Equal(t, int64(1500), s.RuntimeMS)

	s.Log(zerolog.Nop())
}

// fixed splits the first four nodes into two pairs
type fixed struct{}

func (f *fixed) Name() string { return "fixed" }

func (f *fixed) Round(in scg.RoundingInput) (scg.Decision, error) {
	d := make(scg.Decision, len(in.Vector))
	d[0], d[1], d[2], d[3] = 1, 1, -1, -1
	return d, nil
}
