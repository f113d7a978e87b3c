package service

import (
	"context"

	"github.com/oggyb/picfeed/internal/app"
	"github.com/oggyb/picfeed/internal/cache"
	"github.com/oggyb/picfeed/internal/repository"
)

// Stats reads counters through the Redis cache and drops cache entries
// after mutations. Cache failures degrade to the store and are logged.
type Stats struct {
	appCtx *app.AppContext
	posts  *repository.PostRepository
	users  *repository.UserRepository
}

func NewStats(appCtx *app.AppContext) *Stats {
	return &Stats{
		appCtx: appCtx,
		posts:  repository.NewPostRepository(appCtx.DB),
		users:  repository.NewUserRepository(appCtx.DB),
	}
}

// PostCounts returns likes/comments for a post.
//
// Cache-first strategy:
//  1. Attempts to read the stats:post:<id> hash.
//  2. On miss notes the entry's generation and reads the post_stats view.
//  3. Writes the view's answer back unless the post was invalidated in
//     between.
func (s *Stats) PostCounts(ctx context.Context, postID string) (cache.PostCounts, error) {
	rc := s.appCtx.RedisCache
	fill := false
	var version int64
	if rc != nil {
		pc, ok, err := rc.GetPostCounts(ctx, postID)
		if err == nil && ok {
			return pc, nil
		}
		if err == nil {
			version, err = rc.PostVersion(ctx, postID)
		}
		if err != nil {
			s.appCtx.Logger.Warn("stats cache read failed", "post_id", postID, "err", err)
		}
		fill = err == nil
	}

	st, err := s.posts.StatByID(ctx, postID)
	if err != nil {
		return cache.PostCounts{}, err
	}
	pc := cache.PostCounts{Likes: st.LikesCount, Comments: st.CommentsCount}
	if fill {
		if _, err := rc.FillPostCounts(ctx, postID, version, pc); err != nil {
			s.appCtx.Logger.Warn("stats cache write failed", "post_id", postID, "err", err)
		}
	}
	return pc, nil
}

// UserCounts returns posts/followers/following for a user, cache first.
func (s *Stats) UserCounts(ctx context.Context, userID string) (cache.UserCounts, error) {
	rc := s.appCtx.RedisCache
	fill := false
	var version int64
	if rc != nil {
		uc, ok, err := rc.GetUserCounts(ctx, userID)
		if err == nil && ok {
			return uc, nil
		}
		if err == nil {
			version, err = rc.UserVersion(ctx, userID)
		}
		if err != nil {
			s.appCtx.Logger.Warn("stats cache read failed", "user_id", userID, "err", err)
		}
		fill = err == nil
	}

	st, err := s.users.StatByRef(ctx, userID)
	if err != nil {
		return cache.UserCounts{}, err
	}
	uc := cache.UserCounts{Posts: st.PostsCount, Followers: st.FollowersCount, Following: st.FollowingCount}
	if fill {
		if _, err := rc.FillUserCounts(ctx, userID, version, uc); err != nil {
			s.appCtx.Logger.Warn("stats cache write failed", "user_id", userID, "err", err)
		}
	}
	return uc, nil
}

func (s *Stats) InvalidatePosts(ctx context.Context, postIDs ...string) {
	if s.appCtx.RedisCache == nil {
		return
	}
	if err := s.appCtx.RedisCache.InvalidatePosts(ctx, postIDs...); err != nil {
		s.appCtx.Logger.Warn("stats cache invalidation failed", "post_ids", postIDs, "err", err)
	}
}

func (s *Stats) InvalidateUsers(ctx context.Context, userIDs ...string) {
	if s.appCtx.RedisCache == nil {
		return
	}
	if err := s.appCtx.RedisCache.InvalidateUsers(ctx, userIDs...); err != nil {
		s.appCtx.Logger.Warn("stats cache invalidation failed", "user_ids", userIDs, "err", err)
	}
}
