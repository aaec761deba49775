package shaper

import (
	"net/netip"
	"time"
)

// Rate limiter defaults: a burst of 100 packets, refilling at 10/s.
const (
	DefaultBucketCapacity = 100
	DefaultRefillRate     = 10
)

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// RateLimiter is a per-source-address token bucket used as an optional
// admission gate ahead of classification. Buckets are created lazily on
// first sight of a source and live until Reset. Not safe for concurrent
// use; the engine serializes access.
type RateLimiter struct {
	buckets  map[netip.Addr]*bucket
	capacity float64
	rate     float64 // tokens per second
}

// NewRateLimiter creates a limiter. Non-positive capacity or rate falls
// back to the defaults.
func NewRateLimiter(capacity, rate float64) *RateLimiter {
	if capacity <= 0 {
		capacity = DefaultBucketCapacity
	}
	if rate <= 0 {
		rate = DefaultRefillRate
	}
	return &RateLimiter{
		buckets:  make(map[netip.Addr]*bucket),
		capacity: capacity,
		rate:     rate,
	}
}

// Allow refills the source's bucket for the elapsed wall-clock time and
// consumes one token. Returns false without consuming when less than one
// token is available.
func (l *RateLimiter) Allow(src netip.Addr, now time.Time) bool {
	b, ok := l.buckets[src]
	if !ok {
		b = &bucket{tokens: l.capacity, lastRefill: now}
		l.buckets[src] = b
	}

	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * l.rate
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.lastRefill = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Len returns the number of tracked source buckets.
func (l *RateLimiter) Len() int {
	return len(l.buckets)
}

func (l *RateLimiter) reset() {
	l.buckets = make(map[netip.Addr]*bucket)
}
