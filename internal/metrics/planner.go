package metrics

import "github.com/prometheus/client_golang/prometheus"

// Planner and retrieval Prometheus metrics.
var (
	RetrievalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tripdex",
			Name:      "retrieval_requests_total",
			Help:      "Total number of knowledge-source retrievals",
		},
		[]string{"source", "status"},
	)

	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tripdex",
			Name:      "retrieval_duration_seconds",
			Help:      "Knowledge-source retrieval duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"source"},
	)

	RetrievalDocuments = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tripdex",
			Name:      "retrieval_documents",
			Help:      "Number of documents returned per retrieval, after filtering",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
		[]string{"source"},
	)

	PlanRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tripdex",
			Name:      "plan_requests_total",
			Help:      "Total number of planning workflow runs",
		},
		[]string{"status"},
	)

	PlanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tripdex",
			Name:      "plan_duration_seconds",
			Help:      "End-to-end planning workflow duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	PlanReplansTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tripdex",
			Name:      "plan_replans_total",
			Help:      "Total number of replanning cycles executed",
		},
	)
)

var plannerMetricsRegistered bool

// RegisterPlannerMetrics registers planner metrics. Must be called once from main.
func RegisterPlannerMetrics() {
	if plannerMetricsRegistered {
		return
	}
	prometheus.MustRegister(RetrievalRequestsTotal)
	prometheus.MustRegister(RetrievalDuration)
	prometheus.MustRegister(RetrievalDocuments)
	prometheus.MustRegister(PlanRequestsTotal)
	prometheus.MustRegister(PlanDuration)
	prometheus.MustRegister(PlanReplansTotal)
	plannerMetricsRegistered = true
}
