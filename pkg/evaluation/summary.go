package evaluation

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/polarized-clustering-service/pkg/scg"
)

// Summary describes a finished run
type Summary struct {
	Nodes        int     `json:"nodes"`
	K            int     `json:"k"`
	Rounding     string  `json:"rounding"`
	Objective    float64 `json:"objective"`
	ClusterSizes []int   `json:"cluster_sizes"` // sizes of clusters 1..K
	Neutral      int     `json:"neutral"`

	// Edges between committed nodes: positive inside a cluster and negative
	// across clusters agree with the partition, everything else disagrees.
	AgreeingEdges     int     `json:"agreeing_edges"`
	DisagreeingEdges  int     `json:"disagreeing_edges"`
	AgreeingWeight    float64 `json:"agreeing_weight"`
	DisagreeingWeight float64 `json:"disagreeing_weight"`
	Polarity          float64 `json:"polarity"` // (agreeing - disagreeing weight) / committed nodes

	RuntimeMS int64 `json:"runtime_ms"`
}

// Summarize computes the report printed after every run
func Summarize(result *scg.Result, runtime time.Duration) Summary {
	sizes := result.ClusterSizes()
	s := Summary{
		Nodes:        result.NumNodes,
		K:            result.K,
		Rounding:     result.Rounding,
		Objective:    result.Objective,
		ClusterSizes: sizes[1:],
		Neutral:      sizes[0],
		RuntimeMS:    runtime.Milliseconds(),
	}

	g := result.Graph
	if g == nil {
		return s
	}
	for i := 0; i < g.NumNodes; i++ {
		ci := result.Assignment[i]
		if ci == scg.Neutral {
			continue
		}
		neighbors, weights := g.Neighbors(i)
		for k, j := range neighbors {
			cj := result.Assignment[j]
			if j <= i || cj == scg.Neutral {
				continue
			}
			w := weights[k]
			if (ci == cj) == (w > 0) {
				s.AgreeingEdges++
				s.AgreeingWeight += abs(w)
			} else {
				s.DisagreeingEdges++
				s.DisagreeingWeight += abs(w)
			}
		}
	}
	if committed := s.Nodes - s.Neutral; committed > 0 {
		s.Polarity = (s.AgreeingWeight - s.DisagreeingWeight) / float64(committed)
	}
	return s
}

// Log renders the summary as one structured line
func (s Summary) Log(logger zerolog.Logger) {
	logger.Info().
		Int("nodes", s.Nodes).
		Int("k", s.K).
		Str("rounding", s.Rounding).
		Float64("objective", s.Objective).
		Ints("cluster_sizes", s.ClusterSizes).
		Int("neutral", s.Neutral).
		Int("agreeing_edges", s.AgreeingEdges).
		Int("disagreeing_edges", s.DisagreeingEdges).
		Float64("polarity", s.Polarity).
		Int64("runtime_ms", s.RuntimeMS).
		Msg("Run summary")
}

// Log renders an accuracy report
func (r *AccuracyReport) Log(logger zerolog.Logger) {
	logger.Info().
		Float64("precision", r.Precision).
		Float64("recall", r.Recall).
		Float64("f1", r.F1).
		Floats64("precisions", r.Precisions).
		Floats64("recalls", r.Recalls).
		Msg("Accuracy")
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
