package signed

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Edge is one parsed line of an edge list
type Edge struct {
	From   string
	To     string
	Weight float64
}

// GraphParser handles parsing and normalizing signed edge list files
type GraphParser struct {
	// Mapping from original node ID to normalized index
	OriginalToNormalized map[string]int
	// Mapping from normalized index to original node ID
	NormalizedToOriginal []string
	NumNodes             int
	// Number of input lines that restated an already seen pair
	Duplicates int
	// Number of self-loop lines skipped
	SelfLoops int
}

// NewGraphParser creates a new graph parser
func NewGraphParser() *GraphParser {
	return &GraphParser{
		OriginalToNormalized: make(map[string]int),
	}
}

// ParseEdgeList parses a signed edge list file.
// Expected format: "from to weight" or "from to" (weight defaults to +1).
// A first data line holding a single integer declares the node count, in
// which case node ids must be integers in [0, count).
func (p *GraphParser) ParseEdgeList(filename string) (*Graph, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return p.ParseReader(file)
}

// ParseReader is ParseEdgeList over an arbitrary reader
func (p *GraphParser) ParseReader(r io.Reader) (*Graph, error) {
	declared := -1
	var edges []Edge

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "%") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) == 1 && declared < 0 && len(edges) == 0 {
			n, err := strconv.Atoi(parts[0])
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("line %d: invalid node count header %q", lineNo, parts[0])
			}
			declared = n
			continue
		}
		if len(parts) < 2 {
			return nil, fmt.Errorf("line %d: expected \"from to [weight]\", got %q", lineNo, line)
		}

		weight := 1.0
		if len(parts) >= 3 {
			w, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid weight %q: %w", lineNo, parts[2], err)
			}
			weight = w
		}

		if parts[0] == parts[1] {
			p.SelfLoops++
			continue
		}
		edges = append(edges, Edge{From: parts[0], To: parts[1], Weight: weight})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading edge list: %w", err)
	}

	if declared > 0 {
		if err := p.createIndexMapping(declared, edges); err != nil {
			return nil, err
		}
	} else {
		p.createNormalizedMapping(edges)
	}
	if p.NumNodes == 0 {
		return nil, ErrEmptyGraph
	}

	return p.buildGraph(edges)
}

// createIndexMapping maps integer ids 0..n-1 onto themselves
func (p *GraphParser) createIndexMapping(n int, edges []Edge) error {
	for _, e := range edges {
		for _, id := range [2]string{e.From, e.To} {
			v, err := strconv.Atoi(id)
			if err != nil || v < 0 || v >= n {
				return fmt.Errorf("%w: node %q with declared node count %d", ErrNodeOutOfRange, id, n)
			}
		}
	}
	p.NormalizedToOriginal = make([]string, n)
	for i := 0; i < n; i++ {
		id := strconv.Itoa(i)
		p.OriginalToNormalized[id] = i
		p.NormalizedToOriginal[i] = id
	}
	p.NumNodes = n
	return nil
}

// createNormalizedMapping assigns indices to ids in sorted order, numerically
// when every id is an integer
func (p *GraphParser) createNormalizedMapping(edges []Edge) {
	nodeSet := make(map[string]bool)
	for _, e := range edges {
		nodeSet[e.From] = true
		nodeSet[e.To] = true
	}

	ids := make([]string, 0, len(nodeSet))
	allInts := true
	for id := range nodeSet {
		ids = append(ids, id)
		if _, err := strconv.Atoi(id); err != nil {
			allInts = false
		}
	}
	if allInts {
		sort.Slice(ids, func(i, j int) bool {
			a, _ := strconv.Atoi(ids[i])
			b, _ := strconv.Atoi(ids[j])
			return a < b
		})
	} else {
		sort.Strings(ids)
	}

	p.NormalizedToOriginal = ids
	for i, id := range ids {
		p.OriginalToNormalized[id] = i
	}
	p.NumNodes = len(ids)
}

func (p *GraphParser) buildGraph(edges []Edge) (*Graph, error) {
	g := NewGraph(p.NumNodes)
	g.NodeIDs = append([]string(nil), p.NormalizedToOriginal...)

	seen := make(map[[2]int]bool, len(edges))
	for _, e := range edges {
		u := p.OriginalToNormalized[e.From]
		v := p.OriginalToNormalized[e.To]
		key := [2]int{u, v}
		if u > v {
			key = [2]int{v, u}
		}
		if seen[key] {
			p.Duplicates++
		}
		seen[key] = true

		if err := g.AddEdge(u, v, e.Weight); err != nil {
			return nil, err
		}
	}
	g.SortNeighbors()
	return g, nil
}

// LoadGraph is a convenience wrapper around a fresh parser
func LoadGraph(filename string) (*Graph, *GraphParser, error) {
	parser := NewGraphParser()
	g, err := parser.ParseEdgeList(filename)
	if err != nil {
		return nil, nil, err
	}
	return g, parser, nil
}
