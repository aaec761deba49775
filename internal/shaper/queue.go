package shaper

import (
	"fmt"
	"time"

	"firestige.xyz/shaper/internal/core"
)

// DefaultMaxQueueSize bounds each tier queue in packets.
const DefaultMaxQueueSize = 100

// DropPolicy selects the behavior when a tier queue is at capacity.
type DropPolicy string

const (
	// DropTail rejects the incoming packet.
	DropTail DropPolicy = "tail"
	// DropHead evicts the oldest queued packet to admit the new one.
	DropHead DropPolicy = "head"
	// DropRandom rejects the incoming packet with probability 0.5,
	// otherwise behaves like DropHead. A placeholder for RED: it keeps
	// the probabilistic-drop-near-capacity intent without tracking an
	// occupancy EWMA against min/max thresholds.
	DropRandom DropPolicy = "random"
)

// ParseDropPolicy converts a config-level policy name.
func ParseDropPolicy(s string) (DropPolicy, error) {
	switch DropPolicy(s) {
	case DropTail, DropHead, DropRandom:
		return DropPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown drop policy: %q (must be tail/head/random)", s)
	}
}

type queuedPacket struct {
	pkt        *core.Packet
	enqueuedAt time.Time
}

// tierQueue is a bounded FIFO for one priority tier, tracking occupancy
// in bytes and a drop counter. Bounds are enforced by the engine's
// admission path, not by push itself.
type tierQueue struct {
	items   []queuedPacket
	bytes   int64
	dropped uint64
}

func (q *tierQueue) push(p *core.Packet, now time.Time) {
	q.items = append(q.items, queuedPacket{pkt: p, enqueuedAt: now})
	q.bytes += int64(p.Size)
}

func (q *tierQueue) pop() (queuedPacket, bool) {
	if len(q.items) == 0 {
		return queuedPacket{}, false
	}
	head := q.items[0]
	q.items = q.items[1:]
	q.bytes -= int64(head.pkt.Size)
	return head, true
}

// dropOldest evicts the head to make room at the tail.
func (q *tierQueue) dropOldest() {
	if _, ok := q.pop(); ok {
		q.dropped++
	}
}

func (q *tierQueue) len() int {
	return len(q.items)
}

func (q *tierQueue) reset() {
	q.items = nil
	q.bytes = 0
	q.dropped = 0
}
