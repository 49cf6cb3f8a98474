// Package experiment drives SCG over the benchmark datasets and over sweeps of
// synthetic block-model graphs.
package experiment

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/gilchrisn/polarized-clustering-service/pkg/scg"
)

// AllDatasets selects every entry of Datasets
const AllDatasets = "all"

// Datasets lists the benchmark graphs in their reporting order
func Datasets() []string {
	return []string{"wow8", "bitcoin", "wikivot", "referendum", "slashdot", "wikicon", "epinions", "wikipol"}
}

func IsDataset(name string) bool {
	for _, d := range Datasets() {
		if d == name {
			return true
		}
	}
	return false
}

// DatasetPath is <dir>/<name>.txt
func DatasetPath(dir, name string) string {
	return filepath.Join(dir, name+".txt")
}

// ParseK parses the community count given on the command line or in a request
func ParseK(s string) (int, error) {
	k, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: K must be an integer, got %q", scg.ErrConfiguration, s)
	}
	return k, nil
}

// ParseSize parses a graph or community size
func ParseSize(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: size must be an integer, got %q", scg.ErrConfiguration, s)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: size must be positive, got %d", scg.ErrConfiguration, n)
	}
	return n, nil
}
