package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RoundTotal counts rounds by the phase they reached.
	RoundTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fedpeer_round_total",
			Help: "Total number of federated training rounds by phase",
		},
		[]string{"phase"},
	)

	RoundDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fedpeer_round_duration_seconds",
			Help:    "Federated training round duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms to ~7m
		},
		[]string{"status"},
	)

	RoundActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fedpeer_round_active",
			Help: "Whether a training round is in progress",
		},
	)

	AggregationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fedpeer_aggregation_total",
			Help: "Total number of weight aggregations",
		},
		[]string{"trigger"},
	)

	AggregationCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fedpeer_aggregation_candidates",
			Help:    "Number of snapshots considered per aggregation",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
	)

	ShapeMismatchTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fedpeer_shape_mismatch_total",
			Help: "Total number of candidate layers skipped for a shape mismatch",
		},
	)
)
