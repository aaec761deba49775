// Package shaper implements the traffic-shaping and QoS engine: tier
// classification, per-flow tracking, token-bucket admission, bounded
// per-tier queueing and weighted probabilistic dequeueing.
package shaper

import (
	"net/netip"

	"firestige.xyz/shaper/internal/core"
)

// Rule matches packets to a priority tier. Every populated field must
// match for the rule to apply; zero-value fields are wildcards. Rules are
// evaluated in registration order and the first full match wins.
type Rule struct {
	Name        string
	Protocol    core.Protocol // ProtoUnspecified = any
	DstPort     uint16        // exact destination port, 0 = unused
	DstPortLow  uint16        // inclusive destination port range, both 0 = unused
	DstPortHigh uint16
	SrcAddr     netip.Addr // zero Addr = any
	DstAddr     netip.Addr
	Tier        core.Tier
}

func (r *Rule) matches(p *core.Packet) bool {
	if r.Protocol != core.ProtoUnspecified && r.Protocol != p.Protocol {
		return false
	}
	if r.DstPort != 0 && r.DstPort != p.DstPort {
		return false
	}
	if r.DstPortLow != 0 || r.DstPortHigh != 0 {
		if p.DstPort < r.DstPortLow || p.DstPort > r.DstPortHigh {
			return false
		}
	}
	if r.SrcAddr.IsValid() && r.SrcAddr != p.SrcAddr {
		return false
	}
	if r.DstAddr.IsValid() && r.DstAddr != p.DstAddr {
		return false
	}
	return true
}

// Heuristic thresholds for unmarked, unmatched, unknown-flow packets.
// Small UDP is presumed real-time media, large TCP a bulk transfer.
const (
	smallUDPSize = 100
	largeTCPSize = 1400
)

// Classifier maps packet descriptors to priority tiers. It consults, in
// order: the explicit marking, the registered rules, the flow tracker's
// sticky assignment, and size/protocol heuristics, defaulting to
// TierNormal. There is no failure mode; every packet gets a tier.
type Classifier struct {
	rules []Rule
	flows *FlowTracker
}

func newClassifier(flows *FlowTracker) *Classifier {
	return &Classifier{flows: flows}
}

// AddRule appends a rule to the evaluation list. No de-duplication or
// conflict detection is performed; a rule shadowed by an earlier one with
// identical match criteria is simply never reached.
func (c *Classifier) AddRule(r Rule) {
	c.rules = append(c.rules, r)
}

// Rules returns the registered rules in evaluation order.
func (c *Classifier) Rules() []Rule {
	return c.rules
}

// Classify resolves the tier for a packet descriptor.
func (c *Classifier) Classify(p *core.Packet) core.Tier {
	// 1. Explicit marking bypasses rules entirely.
	if p.Marked() {
		return tierForMarking(p.Marking)
	}

	// 2. First fully-matching rule wins.
	for i := range c.rules {
		if c.rules[i].matches(p) {
			return c.rules[i].Tier
		}
	}

	// 3. Sticky classification for known flows.
	if rec, ok := c.flows.Lookup(core.FlowKeyOf(p)); ok {
		return rec.Tier
	}

	// 4. Size/protocol heuristics.
	switch {
	case p.Protocol == core.ProtoUDP && p.Size < smallUDPSize:
		return core.TierHigh
	case p.Protocol == core.ProtoTCP && p.Size > largeTCPSize:
		return core.TierLow
	}

	// 5. Safe fallback.
	return core.TierNormal
}

// tierForMarking maps DSCP-style marking values to tiers. The thresholds
// follow the standard code points: CS6/CS7 network control, EF expedited
// forwarding, the AF3x/AF2x assured-forwarding bands.
func tierForMarking(m int16) core.Tier {
	switch {
	case m >= 48:
		return core.TierCritical
	case m >= 46:
		return core.TierHigh
	case m >= 26:
		return core.TierMedium
	case m >= 18:
		return core.TierNormal
	default:
		return core.TierLow
	}
}
