package likes

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/picfeed/internal/app"
	svcErr "github.com/oggyb/picfeed/internal/errors"
	"github.com/oggyb/picfeed/internal/events"
	"github.com/oggyb/picfeed/internal/repository"
	"github.com/oggyb/picfeed/internal/service"
)

// Service creates and removes (post, user) like edges.
type Service struct {
	appCtx *app.AppContext
	likes  *repository.LikeRepository
	posts  *repository.PostRepository
	users  *repository.UserRepository
	stats  *service.Stats
}

func NewLikesService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		likes:  repository.NewLikeRepository(appCtx.DB),
		posts:  repository.NewPostRepository(appCtx.DB),
		users:  repository.NewUserRepository(appCtx.DB),
		stats:  service.NewStats(appCtx),
	}
}

// Like records the caller's like on postID.
//
// Behavior:
//   - A second like on the same post is a Conflict ("Already liked"),
//     unlike follows where a repeat is a success.
//   - The post's cached counters are dropped on success.
func (s *Service) Like(ctx context.Context, postID string) error {
	actor, err := service.Actor(ctx, s.users)
	if err != nil {
		return err
	}
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return svcErr.InvalidArgument("post_id is required")
	}

	if _, err := s.posts.ByID(ctx, postID); errors.Is(err, gorm.ErrRecordNotFound) {
		return svcErr.NotFound("Post not found")
	} else if err != nil {
		return svcErr.Map(err)
	}

	err = s.likes.Create(ctx, postID, actor.ID)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return svcErr.AlreadyExists("Already liked")
	}
	if err != nil {
		s.appCtx.Logger.Error("Like failed", "post_id", postID, "err", err)
		return svcErr.Map(err)
	}

	s.stats.InvalidatePosts(ctx, postID)
	events.Emit(ctx, s.appCtx.Events, events.LikeCreated, events.Edge{ActorID: actor.ID, TargetID: postID, At: time.Now().UTC()})
	return nil
}

// Unlike removes the caller's like. Removing a like that does not exist
// succeeds.
func (s *Service) Unlike(ctx context.Context, postID string) error {
	actor, err := service.Actor(ctx, s.users)
	if err != nil {
		return err
	}
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return svcErr.InvalidArgument("post_id is required")
	}

	removed, err := s.likes.Delete(ctx, postID, actor.ID)
	if err != nil {
		s.appCtx.Logger.Error("Unlike failed", "post_id", postID, "err", err)
		return svcErr.Map(err)
	}
	if removed {
		s.stats.InvalidatePosts(ctx, postID)
		events.Emit(ctx, s.appCtx.Events, events.LikeDeleted, events.Edge{ActorID: actor.ID, TargetID: postID, At: time.Now().UTC()})
	}
	return nil
}
