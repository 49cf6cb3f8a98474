package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gilchrisn/polarized-clustering-service/pkg/scg"
)

// Metrics holds the Prometheus collectors of the job service
type Metrics struct {
	jobsTotal          *prometheus.CounterVec
	jobsRunning        prometheus.Gauge
	runDuration        *prometheus.HistogramVec
	roundsTotal        *prometheus.CounterVec
	committedNodes     *prometheus.CounterVec
	eigensolveDuration prometheus.Histogram
}

// NewMetrics registers the collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		jobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scg_jobs_total",
			Help: "Jobs by final status",
		}, []string{"status"}),
		jobsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "scg_jobs_running",
			Help: "Jobs currently holding a worker slot",
		}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scg_run_duration_seconds",
			Help:    "Wall time of a clustering run",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
		}, []string{"rounding"}),
		roundsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scg_rounds_total",
			Help: "Peeling rounds completed",
		}, []string{"rounding"}),
		committedNodes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scg_committed_nodes_total",
			Help: "Nodes committed to a cluster",
		}, []string{"rounding"}),
		eigensolveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "scg_eigensolve_duration_seconds",
			Help:    "Duration of one extremal eigensolve",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
}

// RoundHook feeds per-round metrics from a running engine
func (m *Metrics) RoundHook(rounding string) scg.RoundHook {
	return func(info scg.RoundInfo, _ scg.RoundState) {
		m.roundsTotal.WithLabelValues(rounding).Inc()
		m.committedNodes.WithLabelValues(rounding).Add(float64(info.Committed))
		m.eigensolveDuration.Observe(info.EigensolveSeconds)
	}
}

func (m *Metrics) jobStarted() { m.jobsRunning.Inc() }
func (m *Metrics) jobStopped() { m.jobsRunning.Dec() }

func (m *Metrics) jobFinished(status JobStatus, rounding string, elapsed time.Duration) {
	m.jobsTotal.WithLabelValues(string(status)).Inc()
	if status == JobStatusCompleted {
		m.runDuration.WithLabelValues(rounding).Observe(elapsed.Seconds())
	}
}
