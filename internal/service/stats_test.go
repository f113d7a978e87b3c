package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/picfeed/internal/cache"
	"github.com/oggyb/picfeed/internal/db"
	"github.com/oggyb/picfeed/internal/db/dbtest"
	"github.com/oggyb/picfeed/internal/service"
	"github.com/oggyb/picfeed/internal/service/servicetest"
)

func TestPostCountsNotPoisonedByRacingWriter(t *testing.T) {
	ctx := context.Background()
	env := servicetest.Setup(t)
	stats := service.NewStats(env.App)
	rc := env.App.RedisCache

	alice := dbtest.User(t, env.DB, "Alice")
	bob := dbtest.User(t, env.DB, "Bob")
	p := dbtest.Post(t, env.DB, alice.ID, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))

	// Reader misses and reads the view: zero likes.
	version, err := rc.PostVersion(ctx, p.ID)
	require.NoError(t, err)
	stale, err := stats.PostCounts(ctx, p.ID)
	require.NoError(t, err)
	// Drop the entry PostCounts filled so the late write-back below is the
	// only candidate.
	require.NoError(t, rc.InvalidatePosts(ctx, p.ID))

	// Writer commits a like and invalidates before the reader writes back.
	require.NoError(t, env.DB.Create(&db.Like{PostID: p.ID, UserID: bob.ID}).Error)
	stats.InvalidatePosts(ctx, p.ID)

	stored, err := rc.FillPostCounts(ctx, p.ID, version, stale)
	require.NoError(t, err)
	assert.False(t, stored)

	got, err := stats.PostCounts(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, cache.PostCounts{Likes: 1}, got)

	cached, ok, err := rc.GetPostCounts(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, got, cached)
}

func TestUserCountsReadThrough(t *testing.T) {
	ctx := context.Background()
	env := servicetest.Setup(t)
	stats := service.NewStats(env.App)

	alice := dbtest.User(t, env.DB, "Alice")
	bob := dbtest.User(t, env.DB, "Bob")
	require.NoError(t, env.DB.Create(&db.Follow{FollowerID: bob.ID, FollowingID: alice.ID}).Error)

	got, err := stats.UserCounts(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Followers)
	assert.True(t, env.Redis.Exists(cache.KeyForUser(alice.ID)))

	require.NoError(t, env.DB.Delete(&db.Follow{}, "follower_id = ? AND following_id = ?", bob.ID, alice.ID).Error)
	stats.InvalidateUsers(ctx, alice.ID)

	got, err = stats.UserCounts(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Followers)
}
