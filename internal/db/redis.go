// Package db wraps the durable storage and cache backends: Redis for
// nonce/pacing/sticky-decision state, Postgres for the Offer/View/Click/
// AdImpression ledger.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore wraps a redis client and context for operations.
type RedisStore struct {
	Client *redis.Client
	Ctx    context.Context
}

// InitRedis initializes a Redis client and returns a RedisStore.
func InitRedis(addr string) (*RedisStore, error) {
	rs := &RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: addr}),
		Ctx:    context.Background(),
	}

	if err := redisotel.InstrumentTracing(rs.Client); err != nil {
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	if err := rs.Client.Ping(rs.Ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	zap.L().Info("Connected to Redis", zap.String("addr", addr))
	return rs, nil
}

// nonceTTL is the lifetime of an offer's view/click/publisher cache
// entries, per spec.md §4.6.
const nonceTTL = 4 * time.Hour

func nonceKey(advertisementID int, nonce, kind string) string {
	return fmt.Sprintf("nonce:%d:%s:%s", advertisementID, nonce, kind)
}

// PutNonceState writes the initial (use-counter=0, publisher-slug) cache
// entries for a freshly-minted offer, each with a 4h TTL.
func (r *RedisStore) PutNonceState(advertisementID int, nonce, publisherSlug string) error {
	pipe := r.Client.TxPipeline()
	pipe.Set(r.Ctx, nonceKey(advertisementID, nonce, "view"), 0, nonceTTL)
	pipe.Set(r.Ctx, nonceKey(advertisementID, nonce, "click"), 0, nonceTTL)
	pipe.Set(r.Ctx, nonceKey(advertisementID, nonce, "publisher"), publisherSlug, nonceTTL)
	_, err := pipe.Exec(r.Ctx)
	return err
}

// ClaimNonce atomically marks the (advertisementID, nonce, kind) use
// counter used, returning true if this call was the first to claim it
// (i.e. billing should proceed) and false if it was already claimed or
// the key is missing/expired (Unknown or Old/Invalid nonce).
func (r *RedisStore) ClaimNonce(advertisementID int, nonce, kind string) (bool, error) {
	key := nonceKey(advertisementID, nonce, kind)
	// GetDel-then-check would race; a single SET ... XX GET KEEPTTL is
	// atomic: it writes 1 only over an existing key (keeping its TTL) and
	// returns the previous value. A missing/expired key yields redis.Nil
	// and stays absent; a previous "0" means this call is the first use.
	prev, err := r.Client.SetArgs(r.Ctx, key, 1, redis.SetArgs{Mode: "XX", Get: true, KeepTTL: true}).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return prev == "0", nil
}

// NonceExists reports whether the offer's nonce state is still live
// (hasn't expired past its 4h TTL), used to distinguish "unknown offer"
// from a too-late billing attempt.
func (r *RedisStore) NonceExists(advertisementID int, nonce, kind string) (bool, error) {
	n, err := r.Client.Exists(r.Ctx, nonceKey(advertisementID, nonce, kind)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// NoncePublisherSlug returns the publisher slug recorded for an offer's
// nonce, or "" if the cache entry has expired.
func (r *RedisStore) NoncePublisherSlug(advertisementID int, nonce string) string {
	v, _ := r.Client.Get(r.Ctx, nonceKey(advertisementID, nonce, "publisher")).Result()
	return v
}

// IncrementFrequencyCap increments a per-(clientID, advertisementID)
// frequency counter with the given TTL window, returning the new count.
func (r *RedisStore) IncrementFrequencyCap(clientID string, advertisementID int, window time.Duration) (int64, error) {
	key := fmt.Sprintf("freqcap:%s:%d", clientID, advertisementID)
	val, err := r.Client.Incr(r.Ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if val == 1 {
		r.Client.Expire(r.Ctx, key, window)
	}
	return val, nil
}

// StickyDecisionKey builds the cache key for a (publisher, placement
// signature, client id) sticky decision (C5).
func StickyDecisionKey(publisherSlug, placementSignature, clientID string) string {
	return fmt.Sprintf("sticky:%s:%s:%s", publisherSlug, placementSignature, clientID)
}

// GetStickyOfferID returns a previously cached offer id for the sticky
// key, or "" if none is cached.
func (r *RedisStore) GetStickyOfferID(key string) string {
	v, _ := r.Client.Get(r.Ctx, key).Result()
	return v
}

// PutStickyOfferID caches an offer id for the sticky key with ttl.
func (r *RedisStore) PutStickyOfferID(key, offerID string, ttl time.Duration) error {
	return r.Client.Set(r.Ctx, key, offerID, ttl).Err()
}

// WriteHeartbeat records the rollup worker's last-run time (C8).
func (r *RedisStore) WriteHeartbeat(key string) error {
	return r.Client.Set(r.Ctx, key, time.Now().Unix(), 0).Err()
}

// HeartbeatAge returns how long ago the named heartbeat key was last
// written, or an error if it was never written.
func (r *RedisStore) HeartbeatAge(key string) (time.Duration, error) {
	ts, err := r.Client.Get(r.Ctx, key).Int64()
	if err != nil {
		return 0, err
	}
	return time.Since(time.Unix(ts, 0)), nil
}

// Close shuts down the Redis client.
func (r *RedisStore) Close() {
	if r != nil && r.Client != nil {
		if err := r.Client.Close(); err != nil {
			zap.L().Error("redis close", zap.Error(err))
		}
	}
}
