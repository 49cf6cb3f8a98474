package scg

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/gilchrisn/polarized-clustering-service/pkg/eigen"
)

// Config manages algorithm configuration using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Algorithm parameters
	v.SetDefault("algorithm.k", 0)
	v.SetDefault("algorithm.rounding", RoundingMinAngle)
	v.SetDefault("algorithm.random_seed", time.Now().UnixNano())

	v.SetDefault("rounding.randomized_trials", 100)
	v.SetDefault("rounding.zero_tolerance", 1e-9)

	// Eigensolver parameters
	v.SetDefault("eigen.method", eigen.MethodAuto)
	v.SetDefault("eigen.dense_threshold", 1500)
	v.SetDefault("eigen.lanczos_steps", 64)
	v.SetDefault("eigen.max_restarts", 100)
	v.SetDefault("eigen.tolerance", 1e-9)

	// Performance parameters
	v.SetDefault("performance.num_workers", runtime.NumCPU())

	// Logging parameters
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.enable_progress", true)

	v.SetDefault("analysis.track_rounds", false)
	v.SetDefault("analysis.output_file", "rounds.jsonl")

	// Experiment driver
	v.SetDefault("experiment.dataset_dir", "datasets")
	v.SetDefault("experiment.sbm_trials", 20)

	// HTTP service
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("jobs.max_workers", 4)
	v.SetDefault("jobs.result_ttl", time.Hour)

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// Getters for algorithm parameters
func (c *Config) K() int { return c.v.GetInt("algorithm.k") }
func (c *Config) Rounding() string { return c.v.GetString("algorithm.rounding") }
func (c *Config) RandomSeed() int64 { return c.v.GetInt64("algorithm.random_seed") }
func (c *Config) RandomizedTrials() int { return c.v.GetInt("rounding.randomized_trials") }
func (c *Config) ZeroTolerance() float64 { return c.v.GetFloat64("rounding.zero_tolerance") }

func (c *Config) EigenMethod() string { return c.v.GetString("eigen.method") }
func (c *Config) DenseThreshold() int { return c.v.GetInt("eigen.dense_threshold") }
func (c *Config) LanczosSteps() int { return c.v.GetInt("eigen.lanczos_steps") }
func (c *Config) MaxRestarts() int { return c.v.GetInt("eigen.max_restarts") }
func (c *Config) EigenTolerance() float64 { return c.v.GetFloat64("eigen.tolerance") }

func (c *Config) NumWorkers() int { return c.v.GetInt("performance.num_workers") }

func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }
func (c *Config) EnableProgress() bool { return c.v.GetBool("logging.enable_progress") }

func (c *Config) EnableRoundTracking() bool { return c.v.GetBool("analysis.track_rounds") }
func (c *Config) TrackingOutputFile() string { return c.v.GetString("analysis.output_file") }

func (c *Config) DatasetDir() string { return c.v.GetString("experiment.dataset_dir") }
func (c *Config) SBMTrials() int { return c.v.GetInt("experiment.sbm_trials") }

func (c *Config) ServerAddress() string { return c.v.GetString("server.address") }
func (c *Config) ReadTimeout() time.Duration { return c.v.GetDuration("server.read_timeout") }
func (c *Config) WriteTimeout() time.Duration { return c.v.GetDuration("server.write_timeout") }
func (c *Config) JobWorkers() int { return c.v.GetInt("jobs.max_workers") }
func (c *Config) ResultTTL() time.Duration { return c.v.GetDuration("jobs.result_ttl") }

// EigenOptions builds solver options from the eigen.* keys
func (c *Config) EigenOptions() eigen.Options {
	return eigen.Options{
		Method:         c.EigenMethod(),
		DenseThreshold: c.DenseThreshold(),
		LanczosSteps:   c.LanczosSteps(),
		MaxRestarts:    c.MaxRestarts(),
		Tolerance:      c.EigenTolerance(),
		Seed:           c.RandomSeed(),
	}
}

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// Clone returns an independent copy holding the same effective settings
func (c *Config) Clone() *Config {
	clone := NewConfig()
	for _, key := range c.v.AllKeys() {
		clone.v.Set(key, c.v.Get(key))
	}
	return clone
}

// Validate checks the parameters a run depends on
func (c *Config) Validate() error {
	if k := c.K(); k < 2 {
		return fmt.Errorf("%w: K must be at least 2, got %d", ErrConfiguration, k)
	}
	if !IsRoundingStrategy(c.Rounding()) {
		return fmt.Errorf("%w: unknown rounding strategy %q (want one of %v)", ErrConfiguration, c.Rounding(), RoundingStrategies())
	}
	if c.Rounding() == RoundingRandomized && c.RandomizedTrials() < 1 {
		return fmt.Errorf("%w: rounding.randomized_trials must be positive", ErrConfiguration)
	}
	if tol := c.ZeroTolerance(); tol < 0 || tol >= 1 {
		return fmt.Errorf("%w: rounding.zero_tolerance must be in [0, 1), got %g", ErrConfiguration, tol)
	}
	switch c.EigenMethod() {
	case eigen.MethodAuto, eigen.MethodDense, eigen.MethodLanczos:
	default:
		return fmt.Errorf("%w: unknown eigen.method %q", ErrConfiguration, c.EigenMethod())
	}
	if c.LanczosSteps() < 2 {
		return fmt.Errorf("%w: eigen.lanczos_steps must be at least 2", ErrConfiguration)
	}
	return nil
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "scg").Logger()
}
