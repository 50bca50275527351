package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBucket_AllowsUpToCapacityThenBlocks(t *testing.T) {
	b := NewBucket(3, 0) // zero refill: exactly the burst, no replenishment.
	assert.True(t, b.Allow())
	assert.True(t, b.Allow())
	assert.True(t, b.Allow())
	assert.False(t, b.Allow())

	hits, total := b.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(4), total)
}

func TestKeyedLimiter_IndependentBucketsPerKey(t *testing.T) {
	k := NewKeyedLimiter(1, 0)
	assert.True(t, k.Allow("1.2.3.4:view"))
	assert.False(t, k.Allow("1.2.3.4:view"))
	// a different key gets its own fresh bucket.
	assert.True(t, k.Allow("5.6.7.8:view"))
}

func TestEventKey(t *testing.T) {
	assert.Equal(t, "1.2.3.4:click", EventKey("1.2.3.4", "click"))
}

func TestWindow_PerSecond(t *testing.T) {
	w := Window{Capacity: 10, Refill: 2 * time.Second}
	assert.InDelta(t, 0.5, w.PerSecond(), 0.0001)

	zero := Window{}
	assert.Equal(t, 1.0, zero.PerSecond())
}
