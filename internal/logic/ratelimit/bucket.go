// Package ratelimit implements per-(IP, event-type) token bucket rate
// limiting for view/click billing (spec.md §5/§4.7).
//
// The bucket is a thin wrapper around golang.org/x/time/rate that keeps
// the teacher's Allow()/Stats() shape, with buckets managed per-key
// behind a mutex-protected map so each (ip, event type) pair gets its own
// independent budget.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Bucket wraps a single x/time/rate.Limiter with hit/total counters for
// observability, in the teacher's Stats() shape.
type Bucket struct {
	limiter *rate.Limiter

	mu         sync.Mutex
	hitCount   int64
	totalCount int64
}

// NewBucket creates a bucket with the given burst capacity and refill
// rate in tokens/second. The bucket starts full.
func NewBucket(capacity int, refillPerSecond float64) *Bucket {
	return &Bucket{limiter: rate.NewLimiter(rate.Limit(refillPerSecond), capacity)}
}

// Allow attempts to consume one token. Returns true if the request is
// allowed, false if it should be rate limited.
func (b *Bucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.totalCount++
	if b.limiter.Allow() {
		return true
	}
	b.hitCount++
	return false
}

// Stats returns the current rate limiting statistics.
func (b *Bucket) Stats() (hits, total int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hitCount, b.totalCount
}

// KeyedLimiter manages one Bucket per key (e.g. "ip:view", "ip:click"),
// creating buckets lazily on first use.
type KeyedLimiter struct {
	capacity int
	rate     float64

	mu      sync.Mutex
	buckets map[string]*Bucket
}

// NewKeyedLimiter creates a limiter that lazily allocates a Bucket per
// key, all sharing the same capacity/refill configuration.
func NewKeyedLimiter(capacity int, refillPerSecond float64) *KeyedLimiter {
	return &KeyedLimiter{capacity: capacity, rate: refillPerSecond, buckets: make(map[string]*Bucket)}
}

// Allow consumes one token from the bucket for key, allocating it if
// this is the first request seen for that key.
func (k *KeyedLimiter) Allow(key string) bool {
	return k.bucketFor(key).Allow()
}

func (k *KeyedLimiter) bucketFor(key string) *Bucket {
	k.mu.Lock()
	defer k.mu.Unlock()
	b, ok := k.buckets[key]
	if !ok {
		b = NewBucket(k.capacity, k.rate)
		k.buckets[key] = b
	}
	return b
}

// EventKey builds the per-(ip, event type) rate-limit key.
func EventKey(ip, eventType string) string {
	return ip + ":" + eventType
}

// Window is a config convenience type naming a rate-limit bucket's
// burst/refill pair, matching how config.Config exposes tunables.
type Window struct {
	Capacity int
	Refill   time.Duration // time to refill one token
}

// PerSecond converts a Window's refill duration into a tokens/second
// rate for NewBucket/NewKeyedLimiter.
func (w Window) PerSecond() float64 {
	if w.Refill <= 0 {
		return 1
	}
	return 1.0 / w.Refill.Seconds()
}
