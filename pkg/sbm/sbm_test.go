package sbm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNoiseless(t *testing.T) {
	params := Params{P: 0, K: 3, N: 14, CommunitySize: 4, Seed: 1}
	g, labels, err := Generate(params)
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	assert.Equal(t, []int{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, -1, -1}, labels)
	for i := 0; i < 14; i++ {
		for j := i + 1; j < 14; j++ {
			w := g.Weight(i, j)
			switch {
			case labels[i] == NeutralLabel || labels[j] == NeutralLabel:
				assert.Zero(t, w, "no neutral edges at p=0")
			case labels[i] == labels[j]:
				assert.Equal(t, 1.0, w)
			default:
				assert.Equal(t, -1.0, w)
			}
		}
	}
}

func TestGenerateFullNoise(t *testing.T) {
	params := Params{P: 1, K: 2, N: 10, CommunitySize: 3, Seed: 5}
	g, labels, err := Generate(params)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		for j := i + 1; j < 10; j++ {
			w := g.Weight(i, j)
			if labels[i] == NeutralLabel || labels[j] == NeutralLabel {
				assert.Contains(t, []float64{-1, 1}, w, "every neutral pair is joined at p=1")
			} else {
				assert.Zero(t, w, "planted edges vanish at p=1")
			}
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	params := Params{P: 0.3, K: 2, N: 40, CommunitySize: 10, Seed: 11}
	a, _, err := Generate(params)
	require.NoError(t, err)
	b, _, err := Generate(params)
	require.NoError(t, err)
	assert.Equal(t, a.Adjacency, b.Adjacency)
	assert.Equal(t, a.Weights, b.Weights)

	params.Seed = 12
	c, _, err := Generate(params)
	require.NoError(t, err)
	assert.NotEqual(t, a.Weights, c.Weights)
}

func TestParamsValidate(t *testing.T) {
	cases := map[string]Params{
		"NoCommunities":  {P: 0.1, K: 0, N: 10, CommunitySize: 2},
		"EmptyCommunity": {P: 0.1, K: 2, N: 10, CommunitySize: 0},
		"TooLarge":       {P: 0.1, K: 3, N: 10, CommunitySize: 4},
		"NegativeP":      {P: -0.1, K: 2, N: 10, CommunitySize: 2},
		"PAboveOne":      {P: 1.1, K: 2, N: 10, CommunitySize: 2},
	}
	for name, params := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Generate(params)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}
