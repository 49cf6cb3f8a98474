package scg

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// BasisFunc returns the K eigenvalues (ascending) and the K×K eigenvector
// matrix used to stamp committed rows of the embedding.
type BasisFunc func(k int) ([]float64, *mat.Dense, error)

// CoreBasis eigendecomposes the core matrix K·I − 𝟙𝟙ᵀ. Its spectrum is 0
// once (the constant vector) and K with multiplicity K-1. The result depends
// only on K and is bit-identical across calls.
func CoreBasis(k int) ([]float64, *mat.Dense, error) {
	if k < 1 {
		return nil, nil, fmt.Errorf("%w: core basis needs K >= 1, got %d", ErrConfiguration, k)
	}

	core := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			value := -1.0
			if i == j {
				value += float64(k)
			}
			core.SetSym(i, j, value)
		}
	}

	var es mat.EigenSym
	if !es.Factorize(core, true) {
		return nil, nil, fmt.Errorf("core basis: factorization failed for K=%d", k)
	}
	values := es.Values(nil)
	var vectors mat.Dense
	es.VectorsTo(&vectors)

	order := argsort(values)
	d := make([]float64, k)
	u := mat.NewDense(k, k, nil)
	for c, src := range order {
		d[c] = values[src]
		col := mat.Col(nil, src, &vectors)
		flipToPositive(col)
		u.SetCol(c, col)
	}
	return d, u, nil
}

// argsort returns indices that stably sort values ascending
func argsort(values []float64) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })
	return idx
}

func flipToPositive(v []float64) {
	for _, x := range v {
		if math.Abs(x) > 1e-12 {
			if x < 0 {
				for i := range v {
					v[i] = -v[i]
				}
			}
			return
		}
	}
}
