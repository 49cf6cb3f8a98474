package scg

import (
	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/polarized-clustering-service/pkg/signed"
)

// Neutral is the label of a node that was never committed
const Neutral = -1

// Result represents the algorithm output
type Result struct {
	Assignment []int         `json:"assignment"`
	Embedding  *mat.Dense    `json:"-"`
	Graph      *signed.Graph `json:"-"`
	NumNodes   int           `json:"num_nodes"`
	K          int           `json:"k"`
	Rounding   string        `json:"rounding"`
	Objective  float64       `json:"objective"`
	Rounds     []RoundInfo   `json:"rounds"`
	Statistics Statistics    `json:"statistics"`
}

// RoundInfo contains the diagnostics of one peeling round
type RoundInfo struct {
	Round             int     `json:"round"` // zi = K - z
	Z                 int     `json:"z"`
	LargestEigen      float64 `json:"largest_eigenvalue"`
	SmallestEigen     float64 `json:"smallest_eigenvalue"`
	Rayleigh          float64 `json:"rayleigh_quotient"`
	Objective         float64 `json:"objective"`
	Positive          int     `json:"positive"`
	Negative          int     `json:"negative"`
	Committed         int     `json:"committed"`
	ActiveBefore      int     `json:"active_before"`
	ActiveAfter       int     `json:"active_after"`
	EigensolveMS      int64   `json:"eigensolve_ms"`
	EigensolveSeconds float64 `json:"eigensolve_seconds"`
	RuntimeMS         int64   `json:"runtime_ms"`
	RayleighInBounds  bool    `json:"rayleigh_in_bounds"`
}

// Statistics contains algorithm performance metrics
type Statistics struct {
	Eigensolves int   `json:"eigensolves"`
	Committed   int   `json:"committed"`
	Neutral     int   `json:"neutral"`
	RuntimeMS   int64 `json:"runtime_ms"`
}

// ClusterSizes counts nodes per label 1..K; index 0 holds the neutral count
func (r *Result) ClusterSizes() []int {
	sizes := make([]int, r.K+1)
	for _, c := range r.Assignment {
		if c == Neutral {
			sizes[0]++
		} else if c >= 1 && c <= r.K {
			sizes[c]++
		}
	}
	return sizes
}

// RoundState is a read-only view of the run handed to round hooks. The
// slices and matrices are live; hooks must copy what they keep.
type RoundState struct {
	Assignment []int
	Embedding  mat.Matrix
	Adjacency  *signed.MaskedAdjacency
	Decision   Decision
}

// RoundHook observes a round after its commits and decommissions
type RoundHook func(info RoundInfo, state RoundState)
