package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Relay metrics
var (
	ConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parley",
			Subsystem: "relay",
			Name:      "connections_total",
			Help:      "Relay connections by handshake outcome",
		},
		[]string{"result"},
	)

	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "parley",
			Subsystem: "relay",
			Name:      "rooms_active",
			Help:      "Rooms with at least one member",
		},
	)

	FramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parley",
			Subsystem: "relay",
			Name:      "frames_total",
			Help:      "Inbound frames by kind",
		},
		[]string{"kind"},
	)

	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parley",
			Subsystem: "relay",
			Name:      "deliveries_total",
			Help:      "Outbound envelopes by delivery result",
		},
		[]string{"kind", "result"},
	)

	TranslationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parley",
			Subsystem: "translator",
			Name:      "translations_total",
			Help:      "Translation calls by result",
		},
		[]string{"target", "result"},
	)

	TranslationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "parley",
			Subsystem: "translator",
			Name:      "translation_duration_seconds",
			Help:      "Translation latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"target"},
	)
)
