package shaper

import (
	"time"

	"firestige.xyz/shaper/internal/core"
)

// DefaultFlowTimeout is the idle timeout after which Evict removes a flow.
const DefaultFlowTimeout = 5 * time.Minute

// highFlowPacketLimit is the anti-starvation threshold: once a flow has
// sent more than this many packets while assigned TierHigh, it is
// downgraded to TierMedium. A long-lived stream on a traditionally
// real-time port must not monopolize the high tier.
const highFlowPacketLimit = 100

// FlowRecord holds per-flow counters and the sticky tier assignment.
type FlowRecord struct {
	Tier      core.Tier
	Packets   uint64
	Bytes     uint64
	CreatedAt time.Time
	LastSeen  time.Time
}

// FlowTracker maintains flow records keyed by the 5-tuple-derived flow
// key. It is not safe for concurrent use; the engine serializes access.
type FlowTracker struct {
	flows map[core.FlowKey]*FlowRecord
}

func NewFlowTracker() *FlowTracker {
	return &FlowTracker{flows: make(map[core.FlowKey]*FlowRecord)}
}

// Track records one packet for its flow, creating the record on first
// sight with the given tier. The tier argument never overwrites an
// existing record; sticky assignments only change through the
// anti-starvation downgrade, which is one-directional.
func (t *FlowTracker) Track(p *core.Packet, tier core.Tier, now time.Time) *FlowRecord {
	key := core.FlowKeyOf(p)
	rec, ok := t.flows[key]
	if !ok {
		rec = &FlowRecord{Tier: tier, CreatedAt: now}
		t.flows[key] = rec
	}
	rec.Packets++
	rec.Bytes += uint64(p.Size)
	rec.LastSeen = now
	if rec.Packets > highFlowPacketLimit && rec.Tier == core.TierHigh {
		rec.Tier = core.TierMedium
	}
	return rec
}

// Lookup returns the record for a flow key, if tracked.
func (t *FlowTracker) Lookup(key core.FlowKey) (*FlowRecord, bool) {
	rec, ok := t.flows[key]
	return rec, ok
}

// Evict removes flows idle longer than timeout and returns how many were
// removed. It is intended to be driven by an external timer loop.
func (t *FlowTracker) Evict(timeout time.Duration, now time.Time) int {
	removed := 0
	for key, rec := range t.flows {
		if now.Sub(rec.LastSeen) > timeout {
			delete(t.flows, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked flows.
func (t *FlowTracker) Len() int {
	return len(t.flows)
}

func (t *FlowTracker) reset() {
	t.flows = make(map[core.FlowKey]*FlowRecord)
}
