package shaper

import (
	"math/rand"
	"sync"
	"time"

	"firestige.xyz/shaper/internal/core"
	"firestige.xyz/shaper/internal/log"
	"firestige.xyz/shaper/internal/metrics"
)

// RateLimitConfig controls the optional per-source admission gate. The
// limiter exists as a standalone primitive either way; Enabled decides
// whether Enqueue consults it before classification.
type RateLimitConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Capacity   float64 `mapstructure:"capacity" yaml:"capacity"`
	RefillRate float64 `mapstructure:"refill_rate" yaml:"refill_rate"`
}

// Config controls engine behavior. Zero values fall back to defaults in
// New; an all-zero Config yields a disabled engine with stock settings.
type Config struct {
	Enabled       bool            `mapstructure:"enabled" yaml:"enabled"`
	MaxQueueSize  int             `mapstructure:"max_queue_size" yaml:"max_queue_size"`
	DropPolicy    DropPolicy      `mapstructure:"drop_policy" yaml:"drop_policy"`
	BandwidthKbps float64         `mapstructure:"bandwidth_kbps" yaml:"bandwidth_kbps"`
	RateLimit     RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// Engine owns all shaping state: the classifier, flow tracker, rate
// limiter, the six tier queues and every counter. A single mutex covers
// enqueue, dequeue, flow mutation and the bucket map so queue-occupancy
// invariants and drop counters stay accurate under concurrent ingress
// and egress callers. No method blocks and the engine runs no internal
// goroutines; flow eviction is driven by the caller.
type Engine struct {
	mu sync.Mutex

	enabled      bool
	maxQueueSize int
	dropPolicy   DropPolicy

	queues     [core.NumTiers]tierQueue
	classifier *Classifier
	flows      *FlowTracker
	limiter    *RateLimiter
	gated      bool // rate limiter wired into the enqueue path

	bandwidthKbps float64
	shares        [core.NumTiers]float64

	queued      uint64
	dropped     uint64
	shaped      uint64
	shapedBytes uint64
	rateLimited uint64

	avgResidenceNs float64
	hasResidence   bool

	rng   *rand.Rand
	clock func() time.Time
}

// New creates an engine with the given configuration. The rule list
// starts empty; callers seed it via AddRule (see DefaultRules).
func New(cfg Config) *Engine {
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = DefaultMaxQueueSize
	}
	if cfg.DropPolicy == "" {
		cfg.DropPolicy = DropTail
	}
	if cfg.BandwidthKbps <= 0 {
		cfg.BandwidthKbps = DefaultBandwidthKbps
	}

	flows := NewFlowTracker()
	e := &Engine{
		enabled:       cfg.Enabled,
		maxQueueSize:  cfg.MaxQueueSize,
		dropPolicy:    cfg.DropPolicy,
		classifier:    newClassifier(flows),
		flows:         flows,
		limiter:       NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate),
		gated:         cfg.RateLimit.Enabled,
		bandwidthKbps: cfg.BandwidthKbps,
		shares:        defaultShares,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		clock:         time.Now,
	}
	return e
}

// AddRule registers a classification rule. Later rules with identical
// match criteria are shadowed by earlier ones; that is not an error.
func (e *Engine) AddRule(r Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.classifier.AddRule(r)
}

// Classify resolves the tier for a packet without enqueueing it.
func (e *Engine) Classify(p *core.Packet) core.Tier {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.classifier.Classify(p)
}

// Enqueue admits a packet into the tier queues. A nil return means the
// packet was queued (drain via Dequeue) or dropped; drops are visible
// only through counters. When the engine is disabled the packet is
// returned unchanged and the caller should forward it immediately.
func (e *Engine) Enqueue(p *core.Packet) *core.Packet {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.enabled {
		return p
	}
	now := e.clock()

	if e.gated && !e.limiter.Allow(p.SrcAddr, now) {
		e.rateLimited++
		metrics.PacketsRateLimited.Inc()
		return nil
	}

	tier := e.classifier.Classify(p)
	e.flows.Track(p, tier, now)

	q := &e.queues[tier]
	if q.len() >= e.maxQueueSize {
		if !e.admitFull(q, tier) {
			return nil
		}
	}
	q.push(p, now)
	e.queued++
	metrics.PacketsEnqueued.WithLabelValues(tier.String()).Inc()
	metrics.QueueDepth.WithLabelValues(tier.String()).Set(float64(q.len()))
	return nil
}

// admitFull applies the drop policy to a full queue. It returns true when
// the new packet may still be pushed (after evicting the oldest entry).
func (e *Engine) admitFull(q *tierQueue, tier core.Tier) bool {
	switch e.dropPolicy {
	case DropHead:
		// Evict the oldest entry to admit the new one.
	case DropRandom:
		if e.rng.Float64() < 0.5 {
			e.rejectTail(q, tier)
			return false
		}
	default: // DropTail
		e.rejectTail(q, tier)
		return false
	}
	q.dropOldest()
	e.dropped++
	metrics.PacketsDropped.WithLabelValues(tier.String(), "head").Inc()
	if log.GetLogger().IsDebugEnabled() {
		log.GetLogger().WithField("tier", tier.String()).Debug("queue full, evicted oldest packet")
	}
	return true
}

func (e *Engine) rejectTail(q *tierQueue, tier core.Tier) {
	q.dropped++
	e.dropped++
	metrics.PacketsDropped.WithLabelValues(tier.String(), "tail").Inc()
	if log.GetLogger().IsDebugEnabled() {
		log.GetLogger().WithField("tier", tier.String()).Debug("queue full, packet rejected")
	}
}

// EvictFlows removes flows idle longer than timeout, returning how many
// were removed. Intended to be called from an external timer loop.
func (e *Engine) EvictFlows(timeout time.Duration) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flows.Evict(timeout, e.clock())
}

// SetEnabled toggles the engine. While disabled Enqueue bypasses all
// queues; already-queued packets stay drainable via Dequeue.
func (e *Engine) SetEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
}

// SetBandwidth updates the reported link capacity in kbps. Used only for
// per-tier allocation bookkeeping, not for active bit-rate shaping.
func (e *Engine) SetBandwidth(kbps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if kbps > 0 {
		e.bandwidthKbps = kbps
	}
}

// SetTierShare updates one tier's bandwidth share fraction. Invalid tiers
// are silently ignored.
func (e *Engine) SetTierShare(tier core.Tier, share float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !tier.Valid() || share < 0 {
		return
	}
	e.shares[tier] = share
}

// Reset clears all queues, counters, flow records and rate-limiter
// buckets. Configuration (enabled flag, policy, bandwidth, shares,
// rules) survives.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.queues {
		e.queues[i].reset()
		metrics.QueueDepth.WithLabelValues(core.Tier(i).String()).Set(0)
	}
	e.flows.reset()
	e.limiter.reset()
	e.queued = 0
	e.dropped = 0
	e.shaped = 0
	e.shapedBytes = 0
	e.rateLimited = 0
	e.avgResidenceNs = 0
	e.hasResidence = false
}

// Statistics returns a snapshot of counters and per-tier queue state.
func (e *Engine) Statistics() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Stats{
		Enabled:        e.enabled,
		QueuedPackets:  e.queued,
		DroppedPackets: e.dropped,
		ShapedPackets:  e.shaped,
		ShapedBytes:    e.shapedBytes,
		RateLimited:    e.rateLimited,
		AvgResidence:   time.Duration(e.avgResidenceNs),
		BandwidthKbps:  e.bandwidthKbps,
		ActiveFlows:    e.flows.Len(),
	}
	for i := range e.queues {
		s.Tiers[i] = TierStats{
			Packets:       e.queues[i].len(),
			Bytes:         e.queues[i].bytes,
			Dropped:       e.queues[i].dropped,
			Share:         e.shares[i],
			BandwidthKbps: e.shares[i] * e.bandwidthKbps,
		}
	}
	return s
}
