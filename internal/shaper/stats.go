package shaper

import (
	"time"

	"firestige.xyz/shaper/internal/core"
)

// Default per-tier bandwidth shares. They sum to 1.0 and are used for
// allocation bookkeeping only; the scheduler's weights do the shaping.
var defaultShares = [core.NumTiers]float64{0.10, 0.30, 0.25, 0.20, 0.10, 0.05}

// DefaultBandwidthKbps is the assumed link capacity when unconfigured.
const DefaultBandwidthKbps = 10000

// TierStats describes one tier's queue state in a statistics snapshot.
type TierStats struct {
	Packets       int     `json:"packets" yaml:"packets"`
	Bytes         int64   `json:"bytes" yaml:"bytes"`
	Dropped       uint64  `json:"dropped" yaml:"dropped"`
	Share         float64 `json:"share" yaml:"share"`
	BandwidthKbps float64 `json:"bandwidth_kbps" yaml:"bandwidth_kbps"`
}

// Stats is a point-in-time snapshot of engine counters and queue state.
type Stats struct {
	Enabled        bool                      `json:"enabled" yaml:"enabled"`
	QueuedPackets  uint64                    `json:"queued_packets" yaml:"queued_packets"`
	DroppedPackets uint64                    `json:"dropped_packets" yaml:"dropped_packets"`
	ShapedPackets  uint64                    `json:"shaped_packets" yaml:"shaped_packets"`
	ShapedBytes    uint64                    `json:"shaped_bytes" yaml:"shaped_bytes"`
	RateLimited    uint64                    `json:"rate_limited" yaml:"rate_limited"`
	AvgResidence   time.Duration             `json:"avg_residence_ns" yaml:"avg_residence_ns"`
	BandwidthKbps  float64                   `json:"bandwidth_kbps" yaml:"bandwidth_kbps"`
	ActiveFlows    int                       `json:"active_flows" yaml:"active_flows"`
	Tiers          [core.NumTiers]TierStats `json:"tiers" yaml:"tiers"`
}
