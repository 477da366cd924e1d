package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectedPeers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fedpeer",
		Subsystem: "transport",
		Name:      "connected_peers",
		Help:      "Number of peers currently considered connected",
	})

	WeightsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fedpeer",
		Subsystem: "transport",
		Name:      "weights_published_total",
		Help:      "Local snapshots published to peers",
	})

	WeightsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fedpeer",
		Subsystem: "transport",
		Name:      "weights_received_total",
		Help:      "Peer snapshots received, by outcome",
	}, []string{"outcome"})

	EventsRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fedpeer",
		Subsystem: "transport",
		Name:      "events_relayed_total",
		Help:      "Coordinator events relayed to the broker",
	})
)
