package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/action-trace/internal/model"
)

func snapKey(t model.ResourceType, id string) string {
	return fmt.Sprintf("snap:%s:%s", t, id)
}

// SnapshotCache stores externalized resource views as JSON blobs with TTL.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSnapshotCache(rdb *redis.Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SnapshotCache{rdb: rdb, ttl: ttl}
}

// Get unmarshals the cached snapshot into out; returns false on a miss.
func (s *SnapshotCache) Get(ctx context.Context, t model.ResourceType, id string, out any) (bool, error) {
	data, err := s.rdb.Get(ctx, snapKey(t, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		// stale or corrupt entry; treat as miss
		return false, nil
	}
	return true, nil
}

func (s *SnapshotCache) Set(ctx context.Context, t model.ResourceType, id string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, snapKey(t, id), payload, s.ttl).Err()
}

func (s *SnapshotCache) Del(ctx context.Context, t model.ResourceType, id string) error {
	return s.rdb.Del(ctx, snapKey(t, id)).Err()
}
