package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/polarized-clustering-service/pkg/api"
	"github.com/gilchrisn/polarized-clustering-service/pkg/experiment"
	"github.com/gilchrisn/polarized-clustering-service/pkg/scg"
)

var (
	configFile  string
	outputDir   string
	logLevel    string
	eigenMethod string
	seed        int64
	trials      int
	noise       []float64
	printJSON   bool
	address     string

	config *scg.Config

	rootCmd = &cobra.Command{
		Use:   "scg",
		Short: "Find K polarized communities in signed graphs",
		Long: `scg peels K polarized communities off a signed graph one at a time
using the extremal eigenvectors of the remaining adjacency matrix.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}

	runCmd = &cobra.Command{
		Use:   "run <dataset|all> <k> [rounding]",
		Short: "Run SCG on a named dataset, or on every dataset",
		Args:  cobra.RangeArgs(2, 3),
		RunE:  runDatasets,
	}

	sbmCmd = &cobra.Command{
		Use:   "sbm <k> <n> <community-size>",
		Short: "Score SCG on planted signed stochastic block models over a noise sweep",
		Args:  cobra.ExactArgs(3),
		RunE:  runSBM,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the clustering job API",
		Args:  cobra.NoArgs,
		RunE:  runServer,
	}

	datasetsCmd = &cobra.Command{
		Use:   "datasets",
		Short: "List known datasets and rounding strategies",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "datasets: %s\n", strings.Join(experiment.Datasets(), ", "))
			fmt.Fprintf(cmd.OutOrStdout(), "rounding: %s\n", strings.Join(scg.RoundingStrategies(), ", "))
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "configuration file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "directory for assignment, embedding and round files")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")
	rootCmd.PersistentFlags().StringVar(&eigenMethod, "eigen", "", "override eigen.method (auto, dense, lanczos)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "override algorithm.random_seed")
	rootCmd.PersistentFlags().BoolVar(&printJSON, "json", false, "print reports as JSON on stdout")

	sbmCmd.Flags().IntVar(&trials, "trials", 0, "repetitions per noise level (default experiment.sbm_trials)")
	sbmCmd.Flags().Float64SliceVar(&noise, "noise", nil, "noise levels p (default 0.0,0.1,...,0.6)")

	serveCmd.Flags().StringVar(&address, "address", "", "override server.address")

	rootCmd.AddCommand(runCmd, sbmCmd, serveCmd, datasetsCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	config = scg.NewConfig()
	if configFile != "" {
		if err := config.LoadFromFile(configFile); err != nil {
			return fmt.Errorf("%w: reading %s: %v", scg.ErrConfiguration, configFile, err)
		}
	}
	if logLevel != "" {
		config.Set("logging.level", logLevel)
	}
	if eigenMethod != "" {
		config.Set("eigen.method", eigenMethod)
	}
	if cmd.Flags().Changed("seed") {
		config.Set("algorithm.random_seed", seed)
	}
	return nil
}

func runnerOptions() []experiment.RunnerOption {
	var opts []experiment.RunnerOption
	if outputDir != "" {
		opts = append(opts, experiment.WithOutput(outputDir))
	}
	return opts
}

func runDatasets(cmd *cobra.Command, args []string) error {
	k, err := experiment.ParseK(args[1])
	if err != nil {
		return err
	}
	config.Set("algorithm.k", k)
	if len(args) == 3 {
		config.Set("algorithm.rounding", args[2])
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := experiment.NewRunner(config, runnerOptions()...)
	var reports []experiment.Report
	if args[0] == experiment.AllDatasets {
		reports, err = runner.RunAll(ctx)
	} else {
		var report *experiment.Report
		report, err = runner.RunDataset(ctx, args[0])
		if report != nil {
			reports = []experiment.Report{*report}
		}
	}
	if err != nil {
		return err
	}
	return printReports(cmd, reports)
}

func runSBM(cmd *cobra.Command, args []string) error {
	k, err := experiment.ParseK(args[0])
	if err != nil {
		return err
	}
	n, err := experiment.ParseSize(args[1])
	if err != nil {
		return err
	}
	communitySize, err := experiment.ParseSize(args[2])
	if err != nil {
		return err
	}

	sweep := experiment.SBMSweep{
		K:             k,
		N:             n,
		CommunitySize: communitySize,
		Trials:        trials,
		Noise:         noise,
		Seed:          uint64(config.RandomSeed()),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reports, err := experiment.NewRunner(config, runnerOptions()...).RunSBM(ctx, sweep)
	if err != nil {
		return err
	}
	logSweep(reports)
	return printReports(cmd, reports)
}

// logSweep logs mean F1 and NMI per noise level
func logSweep(reports []experiment.Report) {
	type acc struct {
		f1, nmi float64
		n       int
	}
	byNoise := make(map[float64]*acc)
	for _, r := range reports {
		a, ok := byNoise[r.P]
		if !ok {
			a = &acc{}
			byNoise[r.P] = a
		}
		a.f1 += r.Accuracy.F1
		a.nmi += r.NMI
		a.n++
	}

	levels := make([]float64, 0, len(byNoise))
	for p := range byNoise {
		levels = append(levels, p)
	}
	sort.Float64s(levels)
	for _, p := range levels {
		a := byNoise[p]
		log.Info().
			Float64("p", p).
			Int("trials", a.n).
			Float64("mean_f1", a.f1/float64(a.n)).
			Float64("mean_nmi", a.nmi/float64(a.n)).
			Msg("SBM noise level")
	}
}

func printReports(cmd *cobra.Command, reports []experiment.Report) error {
	if !printJSON {
		return nil
	}
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(reports)
}

func runServer(cmd *cobra.Command, args []string) error {
	if address != "" {
		config.Set("server.address", address)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return api.NewServer(config).Run(ctx)
}
