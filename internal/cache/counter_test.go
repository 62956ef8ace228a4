package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/action-trace/internal/model"
)

func setupCache(t *testing.T) (*CounterCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCounterCache(rdb, time.Minute), mr
}

func TestIncrementIsNoopWhenAbsent(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()
	key := StatKey(model.ResourcePost, "p1")

	require.NoError(t, c.Increment(ctx, key, "like_count", 1))
	require.False(t, mr.Exists(key))
}

func TestReadPopulatesLazily(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()
	key := StatKey(model.ResourcePost, "p1")

	calls := 0
	fallback := func(context.Context) (int64, error) {
		calls++
		return 7, nil
	}

	n, err := c.Read(ctx, key, "like_count", fallback)
	require.NoError(t, err)
	require.EqualValues(t, 7, n)
	require.Equal(t, 1, calls)

	// 第二次读走缓存，不再回源
	n, err = c.Read(ctx, key, "like_count", fallback)
	require.NoError(t, err)
	require.EqualValues(t, 7, n)
	require.Equal(t, 1, calls)
}

func TestIncrementAfterPopulate(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()
	key := StatKey(model.ResourcePost, "p1")

	_, err := c.Read(ctx, key, "like_count", func(context.Context) (int64, error) { return 3, nil })
	require.NoError(t, err)

	require.NoError(t, c.Increment(ctx, key, "like_count", 1))
	require.NoError(t, c.Increment(ctx, key, "like_count", -1))
	require.NoError(t, c.Increment(ctx, key, "like_count", 1))

	n, err := c.Read(ctx, key, "like_count", func(context.Context) (int64, error) {
		t.Fatal("unexpected fallback")
		return 0, nil
	})
	require.NoError(t, err)
	require.EqualValues(t, 4, n)
}

func TestFieldsAreIndependent(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()
	key := StatKey(model.ResourceQuestion, "q1")

	_, err := c.Read(ctx, key, "like_count", func(context.Context) (int64, error) { return 1, nil })
	require.NoError(t, err)

	// follow_count 未填充，增量应被丢弃
	require.NoError(t, c.Increment(ctx, key, "follow_count", 1))
	n, err := c.Read(ctx, key, "follow_count", func(context.Context) (int64, error) { return 5, nil })
	require.NoError(t, err)
	require.EqualValues(t, 5, n)
}

func TestViewCounterUnconditional(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()
	key := StatKey(model.ResourcePost, "p1")

	// 字段不存在也自增（浏览数没有账本可回落）
	require.NoError(t, c.IncrView(ctx, key))
	require.NoError(t, c.IncrView(ctx, key))

	n, err := c.ReadView(ctx, key, func(context.Context) (int64, error) {
		t.Fatal("unexpected fallback")
		return 0, nil
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func TestInvalidate(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()
	key := StatKey(model.ResourcePost, "p1")

	_, err := c.Read(ctx, key, "like_count", func(context.Context) (int64, error) { return 2, nil })
	require.NoError(t, err)
	require.True(t, mr.Exists(key))

	require.NoError(t, c.Invalidate(ctx, key))
	require.False(t, mr.Exists(key))
}

func TestCounterExpiry(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()
	key := StatKey(model.ResourcePost, "p1")

	_, err := c.Read(ctx, key, "like_count", func(context.Context) (int64, error) { return 2, nil })
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	// 过期后按 miss 处理，重新回源
	n, err := c.Read(ctx, key, "like_count", func(context.Context) (int64, error) { return 9, nil })
	require.NoError(t, err)
	require.EqualValues(t, 9, n)
}
