package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	submissionsTotal      *prometheus.CounterVec
	gradingLatencySeconds prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors for the grading engine.
func RegisterMetrics() {
	registerOnce.Do(func() {
		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_submissions_total",
			Help: "Total number of exam submission attempts by outcome.",
		}, []string{"outcome"})

		gradingLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "exam_grading_latency_seconds",
			Help:    "Latency distribution for grading passes.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		})

		prometheus.MustRegister(submissionsTotal, gradingLatencySeconds)
	})
}

// Submissions exposes the counter for submission attempts.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// GradingLatency exposes the histogram for grading passes.
func GradingLatency() prometheus.Histogram {
	RegisterMetrics()
	return gradingLatencySeconds
}
