package signed

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNodeOutOfRange  = errors.New("signed: node index out of range")
	ErrNonFiniteWeight = errors.New("signed: edge weight is NaN or Inf")
	ErrAsymmetric      = errors.New("signed: adjacency is not symmetric")
	ErrEmptyGraph      = errors.New("signed: graph must have positive number of nodes")
	ErrNodeInactive    = errors.New("signed: node is already inactive")
)

// Graph represents an undirected signed weighted graph using adjacency arrays.
// Both directions of every edge are stored so neighbor scans are O(degree).
type Graph struct {
	NumNodes  int         `json:"num_nodes"`
	Adjacency [][]int     `json:"-"` // adjacency[i] = neighbors of node i
	Weights   [][]float64 `json:"-"` // weights[i][k] = weight of edge i -> adjacency[i][k]
	NodeIDs   []string    `json:"node_ids,omitempty"`
}

// NewGraph creates a graph with n isolated nodes
func NewGraph(numNodes int) *Graph {
	return &Graph{
		NumNodes:  numNodes,
		Adjacency: make([][]int, numNodes),
		Weights:   make([][]float64, numNodes),
	}
}

// AddEdge sets the weight of the undirected edge u-v. A later call for the
// same pair overwrites the previous weight; a zero weight removes the edge.
func (g *Graph) AddEdge(u, v int, weight float64) error {
	if u < 0 || u >= g.NumNodes || v < 0 || v >= g.NumNodes {
		return fmt.Errorf("%w: u=%d, v=%d, numNodes=%d", ErrNodeOutOfRange, u, v, g.NumNodes)
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return fmt.Errorf("%w: edge %d-%d", ErrNonFiniteWeight, u, v)
	}

	g.setHalf(u, v, weight)
	if u != v {
		g.setHalf(v, u, weight)
	}
	return nil
}

func (g *Graph) setHalf(u, v int, weight float64) {
	for k, neighbor := range g.Adjacency[u] {
		if neighbor != v {
			continue
		}
		if weight == 0 {
			last := len(g.Adjacency[u]) - 1
			g.Adjacency[u][k], g.Weights[u][k] = g.Adjacency[u][last], g.Weights[u][last]
			g.Adjacency[u] = g.Adjacency[u][:last]
			g.Weights[u] = g.Weights[u][:last]
		} else {
			g.Weights[u][k] = weight
		}
		return
	}
	if weight != 0 {
		g.Adjacency[u] = append(g.Adjacency[u], v)
		g.Weights[u] = append(g.Weights[u], weight)
	}
}

// Weight returns A[u][v], zero when there is no edge
func (g *Graph) Weight(u, v int) float64 {
	if u < 0 || u >= g.NumNodes || v < 0 || v >= g.NumNodes {
		return 0.0
	}
	for k, neighbor := range g.Adjacency[u] {
		if neighbor == v {
			return g.Weights[u][k]
		}
	}
	return 0.0
}

// Neighbors returns neighbors and their edge weights for a node
func (g *Graph) Neighbors(node int) ([]int, []float64) {
	if node < 0 || node >= g.NumNodes {
		return nil, nil
	}
	return g.Adjacency[node], g.Weights[node]
}

// NumEdges counts undirected edges, self-loops included once
func (g *Graph) NumEdges() int {
	count := 0
	for u := 0; u < g.NumNodes; u++ {
		for _, v := range g.Adjacency[u] {
			if u <= v {
				count++
			}
		}
	}
	return count
}

// SignCounts returns the number of positive and negative undirected edges
func (g *Graph) SignCounts() (positive, negative int) {
	for u := 0; u < g.NumNodes; u++ {
		for k, v := range g.Adjacency[u] {
			if u > v {
				continue
			}
			if g.Weights[u][k] > 0 {
				positive++
			} else {
				negative++
			}
		}
	}
	return positive, negative
}

// NodeID returns the original identifier of a node, or its index
func (g *Graph) NodeID(node int) string {
	if node >= 0 && node < len(g.NodeIDs) {
		return g.NodeIDs[node]
	}
	return fmt.Sprintf("%d", node)
}

// Clone creates a deep copy of the graph
func (g *Graph) Clone() *Graph {
	clone := NewGraph(g.NumNodes)
	for i := 0; i < g.NumNodes; i++ {
		clone.Adjacency[i] = append([]int(nil), g.Adjacency[i]...)
		clone.Weights[i] = append([]float64(nil), g.Weights[i]...)
	}
	if g.NodeIDs != nil {
		clone.NodeIDs = append([]string(nil), g.NodeIDs...)
	}
	return clone
}

// Validate checks ranges, finiteness and symmetry of the stored adjacency
func (g *Graph) Validate() error {
	if g.NumNodes <= 0 {
		return ErrEmptyGraph
	}
	if len(g.Adjacency) != g.NumNodes || len(g.Weights) != g.NumNodes {
		return fmt.Errorf("adjacency arrays sized %d/%d for %d nodes", len(g.Adjacency), len(g.Weights), g.NumNodes)
	}
	if g.NodeIDs != nil && len(g.NodeIDs) != g.NumNodes {
		return fmt.Errorf("node id table has %d entries for %d nodes", len(g.NodeIDs), g.NumNodes)
	}

	for i := 0; i < g.NumNodes; i++ {
		if len(g.Adjacency[i]) != len(g.Weights[i]) {
			return fmt.Errorf("adjacency and weights arrays inconsistent for node %d", i)
		}
		for k, neighbor := range g.Adjacency[i] {
			if neighbor < 0 || neighbor >= g.NumNodes {
				return fmt.Errorf("%w: neighbor %d of node %d", ErrNodeOutOfRange, neighbor, i)
			}
			w := g.Weights[i][k]
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return fmt.Errorf("%w: edge %d-%d", ErrNonFiniteWeight, i, neighbor)
			}
			if back := g.Weight(neighbor, i); back != w {
				return fmt.Errorf("%w: A[%d][%d]=%g but A[%d][%d]=%g", ErrAsymmetric, i, neighbor, w, neighbor, i, back)
			}
		}
	}
	return nil
}

// SortNeighbors orders every adjacency list by neighbor index
func (g *Graph) SortNeighbors() {
	for i := 0; i < g.NumNodes; i++ {
		adj, w := g.Adjacency[i], g.Weights[i]
		idx := make([]int, len(adj))
		for k := range idx {
			idx[k] = k
		}
		sort.Slice(idx, func(a, b int) bool { return adj[idx[a]] < adj[idx[b]] })
		sortedAdj := make([]int, len(adj))
		sortedW := make([]float64, len(w))
		for k, j := range idx {
			sortedAdj[k], sortedW[k] = adj[j], w[j]
		}
		g.Adjacency[i], g.Weights[i] = sortedAdj, sortedW
	}
}

// ToDense materializes the adjacency as a gonum symmetric matrix
func (g *Graph) ToDense() *mat.SymDense {
	sym := mat.NewSymDense(g.NumNodes, nil)
	for i := 0; i < g.NumNodes; i++ {
		for k, j := range g.Adjacency[i] {
			if i <= j {
				sym.SetSym(i, j, g.Weights[i][k])
			}
		}
	}
	return sym
}
