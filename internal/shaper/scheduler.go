package shaper

import (
	"time"

	"firestige.xyz/shaper/internal/core"
	"firestige.xyz/shaper/internal/metrics"
)

// residenceSmoothing is the EWMA factor for the average queue residence
// time: avg = avg*0.9 + sample*0.1.
const residenceSmoothing = 0.1

// Dequeue releases the next packet under the weighted discipline, or nil
// when every queue is empty. TierCritical is always served first when
// non-empty. The remaining tiers are offered one independent draw each in
// priority order, with probability weight/63; when every draw fails a
// deterministic scan returns the head of the first non-empty queue. The
// result approximates bandwidth shares stochastically rather than
// exactly, but the critical-first guarantee is absolute.
func (e *Engine) Dequeue() *core.Packet {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock()

	if e.queues[core.TierCritical].len() > 0 {
		return e.popLocked(core.TierCritical, now)
	}

	for tier := core.TierHigh; tier <= core.TierBulk; tier++ {
		if e.queues[tier].len() == 0 {
			continue
		}
		p := float64(tier.Weight()) / core.TotalTierWeight
		if e.rng.Float64() < p {
			return e.popLocked(tier, now)
		}
	}

	// All draws failed: fall back to strict priority order.
	for tier := core.TierHigh; tier <= core.TierBulk; tier++ {
		if e.queues[tier].len() > 0 {
			return e.popLocked(tier, now)
		}
	}
	return nil
}

// popLocked removes the head of one tier queue and updates the shaped
// counters and residence-time average. Caller holds e.mu and guarantees
// the queue is non-empty.
func (e *Engine) popLocked(tier core.Tier, now time.Time) *core.Packet {
	head, ok := e.queues[tier].pop()
	if !ok {
		return nil
	}

	e.shaped++
	e.shapedBytes += uint64(head.pkt.Size)

	sample := float64(now.Sub(head.enqueuedAt))
	if e.hasResidence {
		e.avgResidenceNs = e.avgResidenceNs*(1-residenceSmoothing) + sample*residenceSmoothing
	} else {
		e.avgResidenceNs = sample
		e.hasResidence = true
	}

	name := tier.String()
	metrics.PacketsShaped.WithLabelValues(name).Inc()
	metrics.BytesShaped.WithLabelValues(name).Add(float64(head.pkt.Size))
	metrics.QueueDepth.WithLabelValues(name).Set(float64(e.queues[tier].len()))
	metrics.ResidenceSeconds.Observe(now.Sub(head.enqueuedAt).Seconds())

	return head.pkt
}
