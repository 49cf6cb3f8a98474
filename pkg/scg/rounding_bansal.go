package scg

// BansalRounding is one pivot step of correlation clustering on the masked
// graph. The pivot is the active node with the largest positive degree
// (lowest index on ties). The positive side is the pivot with its positive
// neighbors; the negative side is every other active node whose total weight
// to the positive side is negative. It ignores the eigenvector.
type BansalRounding struct{}

func (r *BansalRounding) Name() string { return RoundingBansal }

func (r *BansalRounding) Round(in RoundingInput) (Decision, error) {
	if in.Adjacency == nil {
		return nil, checkInput(in)
	}
	adj := in.Adjacency
	decision := make(Decision, adj.Dim())

	pivot, pivotDegree := -1, 0.0
	for _, i := range adj.ActiveNodes() {
		if pos, _ := adj.Degree(i); pos > pivotDegree {
			pivot, pivotDegree = i, pos
		}
	}
	if pivot < 0 {
		return decision, nil
	}

	decision[pivot] = 1
	adj.ForEachNeighbor(pivot, func(j int, w float64) {
		if w > 0 {
			decision[j] = 1
		}
	})

	for _, i := range adj.ActiveNodes() {
		if decision[i] > 0 {
			continue
		}
		net := 0.0
		adj.ForEachNeighbor(i, func(j int, w float64) {
			if decision[j] > 0 {
				net += w
			}
		})
		if net < 0 {
			decision[i] = -1
		}
	}
	return decision, nil
}
