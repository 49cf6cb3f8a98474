package signed

import "fmt"

// MaskedAdjacency is a view of a Graph restricted to an active node set.
// Every read treats a pair touching an inactive node as weight zero, which
// is equivalent to zeroing that node's row and column without rebuilding the
// underlying sparse structure. The graph itself is never mutated.
type MaskedAdjacency struct {
	graph     *Graph
	active    []bool
	numActive int
}

// NewMaskedAdjacency starts with every node active
func NewMaskedAdjacency(g *Graph) *MaskedAdjacency {
	active := make([]bool, g.NumNodes)
	for i := range active {
		active[i] = true
	}
	return &MaskedAdjacency{graph: g, active: active, numActive: g.NumNodes}
}

// Graph returns the unmasked graph
func (m *MaskedAdjacency) Graph() *Graph { return m.graph }

// Dim is the full matrix dimension N, including inactive nodes
func (m *MaskedAdjacency) Dim() int { return m.graph.NumNodes }

func (m *MaskedAdjacency) IsActive(i int) bool {
	return i >= 0 && i < len(m.active) && m.active[i]
}

func (m *MaskedAdjacency) NumActive() int { return m.numActive }

// ActiveNodes lists active indices in ascending order
func (m *MaskedAdjacency) ActiveNodes() []int {
	nodes := make([]int, 0, m.numActive)
	for i, on := range m.active {
		if on {
			nodes = append(nodes, i)
		}
	}
	return nodes
}

// Deactivate removes node i from every subsequent read. It fails when the
// node is out of range or was already removed.
func (m *MaskedAdjacency) Deactivate(i int) error {
	if i < 0 || i >= len(m.active) {
		return fmt.Errorf("%w: %d", ErrNodeOutOfRange, i)
	}
	if !m.active[i] {
		return fmt.Errorf("%w: %d", ErrNodeInactive, i)
	}
	m.active[i] = false
	m.numActive--
	return nil
}

// At returns the masked entry (i, j)
func (m *MaskedAdjacency) At(i, j int) float64 {
	if !m.IsActive(i) || !m.IsActive(j) {
		return 0.0
	}
	return m.graph.Weight(i, j)
}

// ForEachNeighbor visits active neighbors of an active node
func (m *MaskedAdjacency) ForEachNeighbor(i int, fn func(j int, w float64)) {
	if !m.IsActive(i) {
		return
	}
	for k, j := range m.graph.Adjacency[i] {
		if m.active[j] {
			fn(j, m.graph.Weights[i][k])
		}
	}
}

// Degree returns the masked weighted degree split by sign
func (m *MaskedAdjacency) Degree(i int) (positive, negative float64) {
	m.ForEachNeighbor(i, func(_ int, w float64) {
		if w > 0 {
			positive += w
		} else {
			negative -= w
		}
	})
	return positive, negative
}

// MulVec computes dst = maskA * x over the full dimension N
func (m *MaskedAdjacency) MulVec(dst, x []float64) {
	if len(dst) != m.Dim() || len(x) != m.Dim() {
		panic(fmt.Sprintf("signed: MulVec length mismatch: dst=%d x=%d dim=%d", len(dst), len(x), m.Dim()))
	}
	for i := range dst {
		if !m.active[i] {
			dst[i] = 0
			continue
		}
		sum := 0.0
		for k, j := range m.graph.Adjacency[i] {
			if m.active[j] {
				sum += m.graph.Weights[i][k] * x[j]
			}
		}
		dst[i] = sum
	}
}

// Quadratic returns xᵀ·maskA·x
func (m *MaskedAdjacency) Quadratic(x []float64) float64 {
	total := 0.0
	for i, on := range m.active {
		if !on || x[i] == 0 {
			continue
		}
		row := 0.0
		for k, j := range m.graph.Adjacency[i] {
			if m.active[j] {
				row += m.graph.Weights[i][k] * x[j]
			}
		}
		total += x[i] * row
	}
	return total
}
