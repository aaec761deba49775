// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PacketsEnqueued counts packets admitted to a tier queue.
	PacketsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shaper_packets_enqueued_total",
			Help: "Total number of packets admitted to tier queues",
		},
		[]string{"tier"},
	)

	// PacketsDropped counts packets dropped at admission by policy.
	PacketsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shaper_packets_dropped_total",
			Help: "Total number of packets dropped by the admission path",
		},
		[]string{"tier", "policy"},
	)

	// PacketsShaped counts packets released by the scheduler.
	PacketsShaped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shaper_packets_shaped_total",
			Help: "Total number of packets released by the scheduler",
		},
		[]string{"tier"},
	)

	// BytesShaped counts bytes released by the scheduler.
	BytesShaped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shaper_bytes_shaped_total",
			Help: "Total number of bytes released by the scheduler",
		},
		[]string{"tier"},
	)

	// PacketsRateLimited counts packets rejected by the admission gate.
	PacketsRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shaper_packets_rate_limited_total",
			Help: "Total number of packets rejected by the token-bucket gate",
		},
	)

	// QueueDepth tracks current per-tier queue occupancy in packets.
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shaper_queue_depth",
			Help: "Current number of packets held per tier queue",
		},
		[]string{"tier"},
	)

	// ResidenceSeconds measures queue residence time of released packets.
	ResidenceSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shaper_residence_seconds",
			Help:    "Time packets spend queued before release",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 12), // 1µs to ~16s
		},
	)
)
