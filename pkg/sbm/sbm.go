// Package sbm generates signed graphs from a modified stochastic block model
// with K planted polarized communities and a neutral remainder.
package sbm

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gilchrisn/polarized-clustering-service/pkg/signed"
)

// NeutralLabel marks nodes outside every planted community
const NeutralLabel = -1

var ErrInvalidParams = errors.New("sbm: invalid parameters")

// Params describe one synthetic graph
type Params struct {
	P             float64 `json:"p"`              // noise level in [0, 1]
	K             int     `json:"k"`              // planted communities
	N             int     `json:"n"`              // total nodes
	CommunitySize int     `json:"community_size"` // nodes per community
	Seed          uint64  `json:"seed"`
}

func (p Params) Validate() error {
	if p.K < 1 {
		return fmt.Errorf("%w: K must be positive, got %d", ErrInvalidParams, p.K)
	}
	if p.CommunitySize < 1 {
		return fmt.Errorf("%w: community size must be positive, got %d", ErrInvalidParams, p.CommunitySize)
	}
	if p.K*p.CommunitySize > p.N {
		return fmt.Errorf("%w: %d communities of %d nodes do not fit in %d nodes", ErrInvalidParams, p.K, p.CommunitySize, p.N)
	}
	if p.P < 0 || p.P > 1 {
		return fmt.Errorf("%w: p must be in [0, 1], got %g", ErrInvalidParams, p.P)
	}
	return nil
}

// Labels returns the planted label of every node: nodes
// [c·nC, (c+1)·nC) belong to community c+1, the rest are neutral
func (p Params) Labels() []int {
	labels := make([]int, p.N)
	for i := range labels {
		if i < p.K*p.CommunitySize {
			labels[i] = i/p.CommunitySize + 1
		} else {
			labels[i] = NeutralLabel
		}
	}
	return labels
}

// Generate samples a graph. Inside a community each pair is joined by a +1
// edge with probability 1-p; across communities by a -1 edge with
// probability 1-p. A pair touching a neutral node is joined with probability
// p by an edge whose sign is a fair coin.
func Generate(params Params) (*signed.Graph, []int, error) {
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}

	src := rand.NewPCG(params.Seed, params.Seed^0x9e3779b97f4a7c15)
	planted := distuv.Bernoulli{P: 1 - params.P, Src: src}
	noise := distuv.Bernoulli{P: params.P, Src: src}
	coin := distuv.Bernoulli{P: 0.5, Src: src}

	labels := params.Labels()
	g := signed.NewGraph(params.N)
	for i := 0; i < params.N; i++ {
		for j := i + 1; j < params.N; j++ {
			var w float64
			switch {
			case labels[i] == NeutralLabel || labels[j] == NeutralLabel:
				if noise.Rand() == 1 {
					w = 2*coin.Rand() - 1
				}
			case labels[i] == labels[j]:
				w = planted.Rand()
			default:
				w = -planted.Rand()
			}
			if w == 0 {
				continue
			}
			if err := g.AddEdge(i, j, w); err != nil {
				return nil, nil, err
			}
		}
	}
	return g, labels, nil
}
