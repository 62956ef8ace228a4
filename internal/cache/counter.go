// Package cache holds the Redis-backed accelerators: denormalized counters
// and externalized resource snapshots. Neither is a source of truth; the
// trace ledger always wins on a miss.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/action-trace/internal/model"
)

// StatKey is the counter hash for one resource, e.g. stat:post:<id> with
// fields like_count / follow_count / sub_count / view_count / invite_count.
func StatKey(t model.ResourceType, id string) string {
	return fmt.Sprintf("stat:%s:%s", t, id)
}

// incrIfPresent applies the delta only when the field already exists.
// A missing field means "not yet computed": the next read recounts from the
// ledger, so a blind HINCRBY here could undercut ground truth.
var incrIfPresent = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 1 then
  return redis.call("HINCRBY", KEYS[1], ARGV[1], ARGV[2])
end
return false
`)

// CounterCache keeps per-resource counters in Redis hashes with lazy
// population and increment-if-present semantics.
type CounterCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCounterCache(rdb *redis.Client, ttl time.Duration) *CounterCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &CounterCache{rdb: rdb, ttl: ttl}
}

// Increment bumps field by delta iff the field is already populated.
// Absent field is a silent no-op.
func (c *CounterCache) Increment(ctx context.Context, key, field string, delta int64) error {
	err := incrIfPresent.Run(ctx, c.rdb, []string{key}, field, delta).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// Read returns the cached value, or computes it via fallback on a miss and
// stores it with HSETNX so a concurrently populated value is never clobbered.
func (c *CounterCache) Read(ctx context.Context, key, field string, fallback func(context.Context) (int64, error)) (int64, error) {
	v, err := c.rdb.HGet(ctx, key, field).Int64()
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, redis.Nil) {
		return 0, err
	}
	n, err := fallback(ctx)
	if err != nil {
		return 0, err
	}
	set, sErr := c.rdb.HSetNX(ctx, key, field, n).Result()
	if sErr != nil {
		// cache write failed; the computed value is still correct
		return n, nil
	}
	if !set {
		// someone else populated first; re-read to pick up their increments
		if v, gErr := c.rdb.HGet(ctx, key, field).Int64(); gErr == nil {
			return v, nil
		}
		return n, nil
	}
	c.rdb.Expire(ctx, key, c.ttl)
	return n, nil
}

// IncrView bumps the view counter unconditionally. View counts include
// repeat views, so they cannot be rebuilt from the ledger; an evicted view
// counter loses the repeat portion for good.
func (c *CounterCache) IncrView(ctx context.Context, key string) error {
	pipe := c.rdb.Pipeline()
	pipe.HIncrBy(ctx, key, "view_count", 1)
	pipe.Expire(ctx, key, c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// ReadView reads the view counter, seeding it from the distinct-viewer
// ledger count on a miss (the floor the ledger can still vouch for).
func (c *CounterCache) ReadView(ctx context.Context, key string, fallback func(context.Context) (int64, error)) (int64, error) {
	return c.Read(ctx, key, "view_count", fallback)
}

// Invalidate drops counter hashes, e.g. when a resource is soft-deleted.
func (c *CounterCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}
