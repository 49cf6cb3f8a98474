package scg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	c := NewConfig()
	assert.Equal(t, 0, c.K())
	assert.Equal(t, RoundingMinAngle, c.Rounding())
	assert.Equal(t, 100, c.RandomizedTrials())
	assert.Equal(t, 1e-9, c.ZeroTolerance())
	assert.Equal(t, "auto", c.EigenMethod())
	assert.Equal(t, 1500, c.DenseThreshold())
	assert.False(t, c.EnableRoundTracking())
	assert.Equal(t, 20, c.SBMTrials())

	assert.ErrorIs(t, c.Validate(), ErrConfiguration, "K is mandatory")
	c.Set("algorithm.k", 3)
	assert.NoError(t, c.Validate())
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"Rounding": func(c *Config) { c.Set("algorithm.rounding", "median") },
		"Trials": func(c *Config) {
			c.Set("algorithm.rounding", RoundingRandomized)
			c.Set("rounding.randomized_trials", 0)
		},
		"ZeroTolerance": func(c *Config) { c.Set("rounding.zero_tolerance", 1.5) },
		"EigenMethod":   func(c *Config) { c.Set("eigen.method", "arpack") },
		"LanczosSteps":  func(c *Config) { c.Set("eigen.lanczos_steps", 1) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := testConfig(2, RoundingMinAngle)
			mutate(c)
			assert.ErrorIs(t, c.Validate(), ErrConfiguration)
		})
	}
}

func TestConfigLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scg.yaml")
	content := "algorithm:\n  k: 4\n  rounding: bansal\neigen:\n  method: dense\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c := NewConfig()
	require.NoError(t, c.LoadFromFile(path))
	assert.Equal(t, 4, c.K())
	assert.Equal(t, RoundingBansal, c.Rounding())
	assert.Equal(t, "dense", c.EigenOptions().Method)
	assert.Equal(t, 64, c.EigenOptions().LanczosSteps, "unset keys keep defaults")

	assert.Error(t, NewConfig().LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestConfigClone(t *testing.T) {
	c := testConfig(3, RoundingMaxObj)
	clone := c.Clone()
	clone.Set("algorithm.k", 7)
	assert.Equal(t, 3, c.K())
	assert.Equal(t, 7, clone.K())
	assert.Equal(t, RoundingMaxObj, clone.Rounding())
	assert.Equal(t, c.RandomSeed(), clone.RandomSeed())
}
