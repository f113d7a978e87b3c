package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/picfeed/internal/db"
	"github.com/oggyb/picfeed/internal/db/dbtest"
)

func TestViewsReflectEdges(t *testing.T) {
	database := dbtest.Open(t)

	alice := db.User{ExternalID: "ext_alice", Name: "Alice"}
	bob := db.User{ExternalID: "ext_bob", Name: "Bob"}
	require.NoError(t, database.Create(&alice).Error)
	require.NoError(t, database.Create(&bob).Error)
	assert.NotEmpty(t, alice.ID)

	post := db.Post{UserID: alice.ID, ImageURL: "http://img/1.jpg"}
	require.NoError(t, database.Create(&post).Error)

	require.NoError(t, database.Create(&db.Like{PostID: post.ID, UserID: bob.ID}).Error)
	require.NoError(t, database.Create(&db.Comment{PostID: post.ID, UserID: bob.ID, Content: "hi"}).Error)
	require.NoError(t, database.Create(&db.Follow{FollowerID: bob.ID, FollowingID: alice.ID}).Error)

	var ps db.PostStat
	require.NoError(t, database.Where("post_id = ?", post.ID).First(&ps).Error)
	assert.Equal(t, int64(1), ps.LikesCount)
	assert.Equal(t, int64(1), ps.CommentsCount)
	assert.Equal(t, alice.ID, ps.UserID)

	var us db.UserStat
	require.NoError(t, database.Where("user_id = ?", alice.ID).First(&us).Error)
	assert.Equal(t, int64(1), us.PostsCount)
	assert.Equal(t, int64(1), us.FollowersCount)
	assert.Equal(t, int64(0), us.FollowingCount)

	// removing the edge is reflected immediately
	require.NoError(t, database.Where("post_id = ? AND user_id = ?", post.ID, bob.ID).Delete(&db.Like{}).Error)
	require.NoError(t, database.Where("post_id = ?", post.ID).First(&ps).Error)
	assert.Equal(t, int64(0), ps.LikesCount)
}

func TestSeedTestData(t *testing.T) {
	database := dbtest.Open(t)

	users, err := db.SeedTestData(database)
	require.NoError(t, err)
	assert.Len(t, users, 8)

	var posts int64
	require.NoError(t, database.Model(&db.Post{}).Count(&posts).Error)
	assert.GreaterOrEqual(t, posts, int64(8*3))

	// running twice starts from a clean slate
	_, err = db.SeedTestData(database)
	require.NoError(t, err)
	var count int64
	require.NoError(t, database.Model(&db.User{}).Count(&count).Error)
	assert.Equal(t, int64(8), count)
}
