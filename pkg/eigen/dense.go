package eigen

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DenseSolver factorizes the active submatrix with gonum's symmetric
// eigendecomposition. Cost is cubic in the number of active nodes.
type DenseSolver struct{}

func (s *DenseSolver) Extremes(op Operator) (Eigenpair, Eigenpair, error) {
	n := op.Dim()
	active := op.ActiveNodes()
	m := len(active)
	if m == 0 {
		l, sm := withInactiveZero(op, active, Eigenpair{}, Eigenpair{})
		return l, sm, nil
	}

	sub := mat.NewSymDense(m, nil)
	nonzero := false
	for a := 0; a < m; a++ {
		for b := a; b < m; b++ {
			v := op.At(active[a], active[b])
			sub.SetSym(a, b, v)
			nonzero = nonzero || v != 0
		}
	}
	if !nonzero {
		l, sm := zeroPairs(n)
		return l, sm, nil
	}

	var es mat.EigenSym
	if ok := es.Factorize(sub, true); !ok {
		return Eigenpair{}, Eigenpair{}, fmt.Errorf("%w: active submatrix %dx%d", ErrFactorize, m, m)
	}
	values := es.Values(nil)
	var vectors mat.Dense
	es.VectorsTo(&vectors)

	// values are ascending
	largest := Eigenpair{Value: values[m-1], Vector: scatter(active, mat.Col(nil, m-1, &vectors), n)}
	smallest := Eigenpair{Value: values[0], Vector: scatter(active, mat.Col(nil, 0, &vectors), n)}
	normalizeSign(largest.Vector)
	normalizeSign(smallest.Vector)

	largest, smallest = withInactiveZero(op, active, largest, smallest)
	return largest, smallest, nil
}
