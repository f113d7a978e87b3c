package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/picfeed/internal/cache"
	"github.com/oggyb/picfeed/internal/config"
)

func newCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.StatsTTL = time.Minute
	c := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestPostCountsRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	_, ok, err := c.GetPostCounts(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok, "empty cache is a miss")

	require.NoError(t, c.SetPostCounts(ctx, "p1", cache.PostCounts{Likes: 6, Comments: 2}))
	assert.Equal(t, time.Minute, mr.TTL(cache.KeyForPost("p1")))

	got, ok, err := c.GetPostCounts(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cache.PostCounts{Likes: 6, Comments: 2}, got)

	require.NoError(t, c.InvalidatePosts(ctx, "p1"))
	_, ok, err = c.GetPostCounts(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserCountsExpire(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	require.NoError(t, c.SetUserCounts(ctx, "u1", cache.UserCounts{Posts: 3, Followers: 10, Following: 1}))
	got, ok, err := c.GetUserCounts(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(10), got.Followers)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.GetUserCounts(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPartialHashIsMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	mr.HSet(cache.KeyForUser("u2"), "posts", "1")
	_, ok, err := c.GetUserCounts(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, c.InvalidateUsers(ctx))
}

func TestFillSkippedAfterInvalidation(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	// A reader misses and notes the generation before reading the view.
	version, err := c.PostVersion(ctx, "p1")
	require.NoError(t, err)

	// A like lands and invalidates while the reader is querying.
	require.NoError(t, c.InvalidatePosts(ctx, "p1"))

	stored, err := c.FillPostCounts(ctx, "p1", version, cache.PostCounts{Likes: 5})
	require.NoError(t, err)
	assert.False(t, stored)

	_, ok, err := c.GetPostCounts(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok, "stale counts must not be cached")

	// The next reader sees the new generation and fills normally.
	version, err = c.PostVersion(ctx, "p1")
	require.NoError(t, err)
	stored, err = c.FillPostCounts(ctx, "p1", version, cache.PostCounts{Likes: 6})
	require.NoError(t, err)
	assert.True(t, stored)

	got, ok, err := c.GetPostCounts(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(6), got.Likes)
}

func TestFillUserCountsVersioned(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	version, err := c.UserVersion(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, version)

	stored, err := c.FillUserCounts(ctx, "u1", version, cache.UserCounts{Followers: 2})
	require.NoError(t, err)
	assert.True(t, stored)

	require.NoError(t, c.InvalidateUsers(ctx, "u1"))
	next, err := c.UserVersion(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, version+1, next)

	stored, err = c.FillUserCounts(ctx, "u1", version, cache.UserCounts{Followers: 2})
	require.NoError(t, err)
	assert.False(t, stored)
}

func TestReadsDoNotExtendTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	require.NoError(t, c.SetPostCounts(ctx, "p1", cache.PostCounts{Likes: 1}))
	for i := 0; i < 3; i++ {
		mr.FastForward(25 * time.Second)
		_, _, err := c.GetPostCounts(ctx, "p1")
		require.NoError(t, err)
	}

	_, ok, err := c.GetPostCounts(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok, "entry expires one TTL after it was written")
}
