package scg

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/polarized-clustering-service/pkg/signed"
)

// Objective returns Tr(Y'ᵀ A Y') / Tr(Y'ᵀ Y') where Y' drops the first
// (constant) column of the embedding. It is 0 while nothing is committed.
func Objective(y *mat.Dense, g *signed.Graph, k int) float64 {
	if k < 2 || g == nil {
		return 0.0
	}
	rows, cols := y.Dims()
	if rows != g.NumNodes || cols < k {
		return 0.0
	}

	numerator, denominator := 0.0, 0.0
	for i := 0; i < rows; i++ {
		yi := y.RawRowView(i)[1:k]
		sq := floats.Dot(yi, yi)
		if sq == 0 {
			continue
		}
		denominator += sq
		neighbors, weights := g.Neighbors(i)
		for idx, j := range neighbors {
			numerator += weights[idx] * floats.Dot(yi, y.RawRowView(j)[1:k])
		}
	}
	if denominator == 0 {
		return 0.0
	}
	return numerator / denominator
}

// RayleighQuotient returns xᵀMx / xᵀx, or 0 for the zero vector
func RayleighQuotient(x []float64, m *signed.MaskedAdjacency) float64 {
	xx := floats.Dot(x, x)
	if xx == 0 {
		return 0.0
	}
	return m.Quadratic(x) / xx
}
