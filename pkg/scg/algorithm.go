package scg

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/polarized-clustering-service/pkg/eigen"
	"github.com/gilchrisn/polarized-clustering-service/pkg/signed"
)

// Engine runs the spectral peeling loop. One engine may serve many runs;
// all per-run state is created inside Run.
type Engine struct {
	config   *Config
	solver   eigen.Solver
	basis    BasisFunc
	strategy Strategy
	logger   zerolog.Logger
	hooks    []RoundHook
}

// Option customizes an Engine
type Option func(*Engine)

// WithSolver replaces the eigensolver built from the eigen.* keys
func WithSolver(s eigen.Solver) Option {
	return func(e *Engine) { e.solver = s }
}

// WithBasis replaces CoreBasis
func WithBasis(b BasisFunc) Option {
	return func(e *Engine) { e.basis = b }
}

// WithStrategy fixes the rounding strategy instead of building the one named
// by algorithm.rounding for every run
func WithStrategy(s Strategy) Option {
	return func(e *Engine) { e.strategy = s }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithRoundHook registers an observer called at the end of every round
func WithRoundHook(h RoundHook) Option {
	return func(e *Engine) { e.hooks = append(e.hooks, h) }
}

// NewEngine validates config and assembles the collaborators of a run
func NewEngine(config *Config, opts ...Option) (*Engine, error) {
	if config == nil {
		config = NewConfig()
	}
	e := &Engine{config: config, basis: CoreBasis, logger: config.CreateLogger()}
	for _, opt := range opts {
		opt(e)
	}

	if k := config.K(); k < 2 {
		return nil, fmt.Errorf("%w: K must be at least 2, got %d", ErrConfiguration, k)
	}
	if e.strategy == nil {
		if err := config.Validate(); err != nil {
			return nil, err
		}
	}
	if e.solver == nil {
		solver, err := eigen.New(config.EigenOptions())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		e.solver = solver
	}
	return e, nil
}

// Run executes the complete SCG algorithm
func Run(graph *signed.Graph, config *Config, ctx context.Context) (*Result, error) {
	engine, err := NewEngine(config)
	if err != nil {
		return nil, err
	}
	return engine.Run(ctx, graph)
}

// SCG finds k polarized communities with the named rounding strategy using
// default settings otherwise
func SCG(graph *signed.Graph, k int, rounding string) (*Result, error) {
	config := NewConfig()
	config.Set("algorithm.k", k)
	config.Set("algorithm.rounding", rounding)
	return Run(graph, config, context.Background())
}

// Run peels K-1 clusters off graph. Cancellation is checked between rounds;
// a round in progress always completes.
func (e *Engine) Run(ctx context.Context, graph *signed.Graph) (*Result, error) {
	startTime := time.Now()
	logger := e.logger

	if graph == nil {
		return nil, fmt.Errorf("invalid graph: %w", signed.ErrEmptyGraph)
	}
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}

	k := e.config.K()
	strategy := e.strategy
	if strategy == nil {
		var err error
		if strategy, err = NewStrategy(e.config.Rounding(), e.config); err != nil {
			return nil, err
		}
	}

	d, u, err := e.basis(k)
	if err != nil {
		return nil, fmt.Errorf("core basis: %w", err)
	}
	if r, c := u.Dims(); r != k || c != k || len(d) != k {
		return nil, fmt.Errorf("core basis: got %dx%d with %d values, want K=%d", r, c, len(d), k)
	}

	n := graph.NumNodes
	assignment := make([]int, n)
	for i := range assignment {
		assignment[i] = Neutral
	}
	y := mat.NewDense(n, k, nil)
	maskA := signed.NewMaskedAdjacency(graph)

	var tracker *RoundTracker
	if e.config.EnableRoundTracking() {
		tracker, err = NewRoundTracker(e.config.TrackingOutputFile(), strategy.Name())
		if err != nil {
			logger.Warn().Err(err).Msg("Round tracking disabled")
		}
		defer tracker.Close()
	}

	pos, neg := graph.SignCounts()
	logger.Info().
		Int("nodes", n).
		Int("positive_edges", pos).
		Int("negative_edges", neg).
		Int("k", k).
		Str("rounding", strategy.Name()).
		Msg("Starting SCG")

	result := &Result{
		Assignment: assignment,
		Embedding:  y,
		Graph:      graph,
		NumNodes:   n,
		K:          k,
		Rounding:   strategy.Name(),
		Rounds:     make([]RoundInfo, 0, k-1),
	}

	for z := k - 1; z >= 1; z-- {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("cancelled before round %d: %w", k-z, ctx.Err())
		default:
		}

		zi := k - z
		roundStart := time.Now()
		activeBefore := maskA.NumActive()

		largest, smallest, err := e.solver.Extremes(maskA)
		result.Statistics.Eigensolves++
		if err != nil {
			return nil, fmt.Errorf("eigensolve failed at round %d: %w", zi, err)
		}
		eigenTime := time.Since(roundStart)
		logger.Debug().
			Int("round", zi).
			Int("active", activeBefore).
			Dur("elapsed", eigenTime).
			Msg("Eigensolve completed")

		decision, err := strategy.Round(RoundingInput{
			Vector:       largest.Vector,
			Z:            z,
			NeutralLabel: Neutral,
			Adjacency:    maskA,
		})
		if err != nil {
			return nil, fmt.Errorf("rounding failed at round %d: %w", zi, err)
		}
		if len(decision) != n {
			return nil, fmt.Errorf("rounding failed at round %d: decision has %d entries, want %d", zi, len(decision), n)
		}

		committed, err := commit(decision, z, zi, assignment, y, u, maskA)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", zi, err)
		}

		objective := Objective(y, graph, k)
		rayleigh := RayleighQuotient(ternaryValues(decision, z), maskA)
		inBounds := rayleighInBounds(rayleigh, smallest.Value, largest.Value)

		for _, i := range committed {
			if err := maskA.Deactivate(i); err != nil {
				return nil, fmt.Errorf("%w: round %d: %v", ErrBookkeeping, zi, err)
			}
		}

		p, q := decision.Counts()
		info := RoundInfo{
			Round:             zi,
			Z:                 z,
			LargestEigen:      largest.Value,
			SmallestEigen:     smallest.Value,
			Rayleigh:          rayleigh,
			Objective:         objective,
			Positive:          p,
			Negative:          q,
			Committed:         len(committed),
			ActiveBefore:      activeBefore,
			ActiveAfter:       maskA.NumActive(),
			EigensolveMS:      eigenTime.Milliseconds(),
			EigensolveSeconds: eigenTime.Seconds(),
			RuntimeMS:         time.Since(roundStart).Milliseconds(),
			RayleighInBounds:  inBounds,
		}
		result.Rounds = append(result.Rounds, info)
		result.Statistics.Committed += len(committed)

		if e.config.EnableProgress() {
			logger.Info().
				Int("round", zi).
				Float64("objective", objective).
				Float64("rayleigh", rayleigh).
				Float64("lambda_min", smallest.Value).
				Float64("lambda_max", largest.Value).
				Int("positive", p).
				Int("negative", q).
				Int("active", info.ActiveAfter).
				Msg("Round completed")
		}
		if !inBounds {
			logger.Warn().
				Int("round", zi).
				Float64("rayleigh", rayleigh).
				Float64("lambda_min", smallest.Value).
				Float64("lambda_max", largest.Value).
				Msg("Rayleigh quotient outside eigenvalue bounds")
		}
		if err := tracker.LogRound(info); err != nil {
			logger.Warn().Err(err).Msg("Failed to record round")
		}

		state := RoundState{Assignment: assignment, Embedding: y, Adjacency: maskA, Decision: decision}
		for _, hook := range e.hooks {
			hook(info, state)
		}
	}

	result.Objective = Objective(y, graph, k)
	result.Statistics.Neutral = n - result.Statistics.Committed
	result.Statistics.RuntimeMS = time.Since(startTime).Milliseconds()

	logger.Info().
		Float64("objective", result.Objective).
		Int("committed", result.Statistics.Committed).
		Int("neutral", result.Statistics.Neutral).
		Int64("runtime_ms", result.Statistics.RuntimeMS).
		Msg("SCG completed")

	return result, nil
}

// commit writes labels and embedding rows for the nonzero entries of
// decision. In rounds with z > 1 only the positive side is committed; the
// last round (z == 1) also assigns the negative side to label zi+1.
func commit(decision Decision, z, zi int, assignment []int, y *mat.Dense, u *mat.Dense, maskA *signed.MaskedAdjacency) ([]int, error) {
	var committed []int
	for i, s := range decision {
		if s == 0 {
			continue
		}
		label := zi
		if s < 0 {
			if z > 1 {
				continue
			}
			label = zi + 1
		}
		if !maskA.IsActive(i) || assignment[i] != Neutral {
			return nil, fmt.Errorf("%w: node %d already committed to cluster %d", ErrBookkeeping, i, assignment[i])
		}
		assignment[i] = label
		y.SetRow(i, u.RawRowView(label-1))
		committed = append(committed, i)
	}
	return committed, nil
}

// rayleighInBounds allows a small relative slack for solver tolerance
func rayleighInBounds(rq, lo, hi float64) bool {
	if math.IsNaN(rq) || math.IsInf(rq, 0) {
		return false
	}
	slack := 1e-6 * math.Max(1, math.Max(math.Abs(lo), math.Abs(hi)))
	return rq >= lo-slack && rq <= hi+slack
}
