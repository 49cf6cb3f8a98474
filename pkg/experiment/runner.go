package experiment

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gilchrisn/polarized-clustering-service/pkg/evaluation"
	"github.com/gilchrisn/polarized-clustering-service/pkg/sbm"
	"github.com/gilchrisn/polarized-clustering-service/pkg/scg"
	"github.com/gilchrisn/polarized-clustering-service/pkg/signed"
)

// Report is the outcome of one run
type Report struct {
	Dataset  string                     `json:"dataset"`
	P        float64                    `json:"p,omitempty"`
	Trial    int                        `json:"trial,omitempty"`
	Summary  evaluation.Summary         `json:"summary"`
	Accuracy *evaluation.AccuracyReport `json:"accuracy,omitempty"`
	NMI      float64                    `json:"nmi,omitempty"`
	Result   *scg.Result                `json:"-"`
}

// SBMSweep describes the synthetic experiment: Trials repetitions of every
// noise level
type SBMSweep struct {
	K             int
	N             int
	CommunitySize int
	Trials        int
	Noise         []float64
	Seed          uint64
}

// DefaultNoise is p = 0.0, 0.1, ..., 0.6
func DefaultNoise() []float64 {
	noise := make([]float64, 7)
	for i := range noise {
		noise[i] = 0.1 * float64(i)
	}
	return noise
}

// Runner executes independent runs, in parallel up to
// performance.num_workers
type Runner struct {
	config    *scg.Config
	logger    zerolog.Logger
	writer    scg.OutputWriter
	outputDir string
	options   []scg.Option
}

type RunnerOption func(*Runner)

// WithOutput writes every result under dir with the FileWriter
func WithOutput(dir string) RunnerOption {
	return func(r *Runner) {
		r.outputDir = dir
		r.writer = scg.NewFileWriter()
	}
}

func WithRunnerLogger(logger zerolog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithEngineOptions passes options to every engine the runner builds
func WithEngineOptions(opts ...scg.Option) RunnerOption {
	return func(r *Runner) { r.options = append(r.options, opts...) }
}

func NewRunner(config *scg.Config, opts ...RunnerOption) *Runner {
	r := &Runner{config: config, logger: config.CreateLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunDataset loads <dataset_dir>/<name>.txt and runs SCG on it
func (r *Runner) RunDataset(ctx context.Context, name string) (*Report, error) {
	if !IsDataset(name) {
		return nil, fmt.Errorf("%w: unknown dataset %q (want one of %v or %q)", scg.ErrConfiguration, name, Datasets(), AllDatasets)
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	path := DatasetPath(r.config.DatasetDir(), name)
	r.logger.Info().Str("dataset", name).Str("path", path).Msg("Loading dataset")
	graph, _, err := signed.LoadGraph(path)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}

	report, err := r.run(ctx, name, graph, r.config)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}
	return report, nil
}

// RunAll runs every dataset. Reports keep the order of Datasets.
func (r *Runner) RunAll(ctx context.Context) ([]Report, error) {
	names := Datasets()
	reports := make([]Report, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			report, err := r.RunDataset(gctx, name)
			if err != nil {
				return err
			}
			reports[i] = *report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// RunSBM generates one graph per (trial, p) pair, runs SCG on it and scores
// the assignment against the planted communities
func (r *Runner) RunSBM(ctx context.Context, sweep SBMSweep) ([]Report, error) {
	if sweep.Trials < 1 {
		sweep.Trials = r.config.SBMTrials()
	}
	if len(sweep.Noise) == 0 {
		sweep.Noise = DefaultNoise()
	}
	base := r.config.Clone()
	base.Set("algorithm.k", sweep.K)
	if err := base.Validate(); err != nil {
		return nil, err
	}
	shape := sbm.Params{K: sweep.K, N: sweep.N, CommunitySize: sweep.CommunitySize}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", scg.ErrConfiguration, err)
	}

	reports := make([]Report, sweep.Trials*len(sweep.Noise))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for trial := 0; trial < sweep.Trials; trial++ {
		for j, p := range sweep.Noise {
			idx := trial*len(sweep.Noise) + j
			trial, p := trial, p
			g.Go(func() error {
				params := sbm.Params{
					P:             p,
					K:             sweep.K,
					N:             sweep.N,
					CommunitySize: sweep.CommunitySize,
					Seed:          sweep.Seed + uint64(idx),
				}
				graph, truth, err := sbm.Generate(params)
				if err != nil {
					return err
				}

				config := base.Clone()
				config.Set("algorithm.random_seed", int64(sweep.Seed)+int64(idx))
				name := fmt.Sprintf("sbm_p%.1f_t%d", p, trial)
				report, err := r.run(gctx, name, graph, config)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}

				report.P, report.Trial = p, trial
				if report.Accuracy, err = evaluation.Accuracy(report.Result.Assignment, truth, sweep.K); err != nil {
					return err
				}
				if report.NMI, err = evaluation.NormalizedMutualInfo(report.Result.Assignment, truth); err != nil {
					return err
				}
				report.Accuracy.Log(r.logger.With().Str("dataset", name).Logger())
				reports[idx] = *report
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *Runner) run(ctx context.Context, name string, graph *signed.Graph, config *scg.Config) (*Report, error) {
	logger := r.logger.With().Str("dataset", name).Logger()
	if config.EnableRoundTracking() {
		config = config.Clone()
		config.Set("analysis.output_file", trackingPath(config.TrackingOutputFile(), name))
	}
	opts := append([]scg.Option{scg.WithLogger(logger)}, r.options...)
	engine, err := scg.NewEngine(config, opts...)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := engine.Run(ctx, graph)
	if err != nil {
		return nil, err
	}
	summary := evaluation.Summarize(result, time.Since(start))
	summary.Log(logger)

	if r.writer != nil {
		if err := r.writer.WriteAll(result, r.outputDir, name); err != nil {
			return nil, fmt.Errorf("writing results: %w", err)
		}
	}
	return &Report{Dataset: name, Summary: summary, Result: result}, nil
}

// trackingPath gives every run its own round event file next to the
// configured one: dir/rounds.jsonl becomes dir/<name>.rounds.jsonl
func trackingPath(path, name string) string {
	return filepath.Join(filepath.Dir(path), name+"."+filepath.Base(path))
}

func (r *Runner) workers() int {
	if n := r.config.NumWorkers(); n > 0 {
		return n
	}
	return 1
}

// IsConfigurationError reports whether err should be shown as a usage error
func IsConfigurationError(err error) bool {
	return errors.Is(err, scg.ErrConfiguration)
}
