package evaluation

import (
	"fmt"
	"math"
)

// NormalizedMutualInfo calculates Normalized Mutual Information (NMI) between two clusterings
// Returns NMI score between 0 and 1
func NormalizedMutualInfo(clustering1, clustering2 []int) (float64, error) {
	if len(clustering1) != len(clustering2) {
		return 0, fmt.Errorf("clusterings must have the same length")
	}

	n := len(clustering1)
	if n == 0 {
		return 0, nil
	}

	contingencyTable := buildContingencyTable(clustering1, clustering2)
	mi := calculateMutualInformation(contingencyTable, n)

	// Normalize MI by average entropy
	avgEntropy := (calculateEntropy(clustering1) + calculateEntropy(clustering2)) / 2

	// Both clusterings have a single cluster
	if avgEntropy == 0 {
		return 1.0, nil
	}

	return mi / avgEntropy, nil
}

// buildContingencyTable counts nodes per (label1, label2) pair
func buildContingencyTable(clustering1, clustering2 []int) map[[2]int]int {
	table := make(map[[2]int]int)
	for i := range clustering1 {
		table[[2]int{clustering1[i], clustering2[i]}]++
	}
	return table
}

func calculateMutualInformation(contingencyTable map[[2]int]int, n int) float64 {
	counts1 := make(map[int]int)
	counts2 := make(map[int]int)
	for key, count := range contingencyTable {
		counts1[key[0]] += count
		counts2[key[1]] += count
	}

	mi := 0.0
	for key, nij := range contingencyTable {
		ni := counts1[key[0]]
		nj := counts2[key[1]]
		if nij > 0 {
			mi += float64(nij) / float64(n) * math.Log2(float64(nij)*float64(n)/(float64(ni)*float64(nj)))
		}
	}
	return mi
}

func calculateEntropy(clustering []int) float64 {
	counts := make(map[int]int)
	for _, cluster := range clustering {
		counts[cluster]++
	}

	n := float64(len(clustering))
	entropy := 0.0
	for _, count := range counts {
		p := float64(count) / n
		if p > 0 {
			entropy -= p * math.Log2(p)
		}
	}
	return entropy
}
