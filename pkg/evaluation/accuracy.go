// Package evaluation scores peeling results against planted communities and
// summarizes them for reports.
package evaluation

import (
	"fmt"
)

// AccuracyReport holds macro and per-community scores of a predicted
// clustering against ground truth
type AccuracyReport struct {
	Precision  float64   `json:"precision"`
	Recall     float64   `json:"recall"`
	F1         float64   `json:"f1"`
	Precisions []float64 `json:"precisions"` // indexed by community-1
	Recalls    []float64 `json:"recalls"`
	Matching   []int     `json:"matching"` // matching[c-1] = predicted label, 0 if unmatched
}

// Accuracy matches predicted labels 1..K to planted communities 1..K one to
// one, greedily by largest overlap (ties go to the lower community, then the
// lower label). Nodes labelled outside 1..K count as neutral on either side.
func Accuracy(pred, truth []int, k int) (*AccuracyReport, error) {
	if len(pred) != len(truth) {
		return nil, fmt.Errorf("clusterings must have the same length: %d vs %d", len(pred), len(truth))
	}
	if k < 1 {
		return nil, fmt.Errorf("number of communities must be positive, got %d", k)
	}

	overlap := make([][]int, k)
	for c := range overlap {
		overlap[c] = make([]int, k)
	}
	predSize := make([]int, k)
	truthSize := make([]int, k)
	for i := range pred {
		p, c := pred[i], truth[i]
		pIn, cIn := p >= 1 && p <= k, c >= 1 && c <= k
		if pIn {
			predSize[p-1]++
		}
		if cIn {
			truthSize[c-1]++
		}
		if pIn && cIn {
			overlap[c-1][p-1]++
		}
	}

	matching := make([]int, k)
	usedPred := make([]bool, k)
	for step := 0; step < k; step++ {
		bestC, bestP, best := -1, -1, -1
		for c := 0; c < k; c++ {
			if matching[c] != 0 {
				continue
			}
			for p := 0; p < k; p++ {
				if !usedPred[p] && overlap[c][p] > best {
					bestC, bestP, best = c, p, overlap[c][p]
				}
			}
		}
		if bestC < 0 {
			break
		}
		matching[bestC] = bestP + 1
		usedPred[bestP] = true
	}

	report := &AccuracyReport{
		Precisions: make([]float64, k),
		Recalls:    make([]float64, k),
		Matching:   matching,
	}
	for c := 0; c < k; c++ {
		p := matching[c] - 1
		hit := float64(overlap[c][p])
		if predSize[p] > 0 {
			report.Precisions[c] = hit / float64(predSize[p])
		}
		if truthSize[c] > 0 {
			report.Recalls[c] = hit / float64(truthSize[c])
		}
		report.Precision += report.Precisions[c] / float64(k)
		report.Recall += report.Recalls[c] / float64(k)
	}
	if report.Precision+report.Recall > 0 {
		report.F1 = 2 * report.Precision * report.Recall / (report.Precision + report.Recall)
	}
	return report, nil
}
