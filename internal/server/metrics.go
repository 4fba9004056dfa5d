package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization"
)

var (
	metricJobsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cargoopt_jobs_submitted_total",
		Help: "Optimization jobs accepted over the API.",
	})

	metricActiveRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cargoopt_active_runs",
		Help: "Optimization runs currently executing.",
	})

	metricRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cargoopt_runs_total",
		Help: "Finished optimization runs by algorithm and outcome.",
	}, []string{"algorithm", "status"})

	metricRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cargoopt_run_duration_seconds",
		Help:    "Wall-clock time per optimization run.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"algorithm"})

	metricRunIterations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cargoopt_run_iterations",
		Help:    "Generations (genetic) or search nodes (constraint) per run.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{"algorithm"})
)

// observeRun records one finished job. The status label follows the job
// state except for successful runs, where the engine's own status
// (completed or truncated) is the more useful outcome.
func observeRun(algorithm string, view jobView, result *optimization.Result, err error) {
	if algorithm == "" {
		algorithm = string(optimization.AlgorithmAuto)
	}
	status := string(view.Status)
	if err == nil && result != nil {
		algorithm = string(result.Algorithm)
		if view.Status == JobCompleted {
			status = string(result.Status)
		}
	}
	metricRuns.WithLabelValues(algorithm, status).Inc()

	if result != nil {
		metricRunDuration.WithLabelValues(algorithm).Observe(result.ComputationSeconds)
		metricRunIterations.WithLabelValues(algorithm).Observe(float64(result.Iterations))
	}
}
