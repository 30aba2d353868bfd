package ticket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tickets_operation_total",
		Help: "Service operations by name and outcome",
	}, []string{"op", "outcome"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tickets_operation_duration_seconds",
		Help:    "Service operation latency",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
	}, []string{"op"})

	treeNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tickets_tree_nodes",
		Help:    "Number of nodes in each built tree",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	treeRounds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tickets_tree_rounds",
		Help:    "Breadth-first enrichment rounds per built tree",
		Buckets: prometheus.LinearBuckets(0, 1, 12),
	})

	cascadeMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tickets_cascade_mutations_total",
		Help: "Per-ticket writes issued by cascades",
	}, []string{"op", "outcome"})
)

// outcome labels an operation result for metrics.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return KindOf(err).String()
}
