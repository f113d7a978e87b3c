package follows

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

// Service creates and removes directed follow edges.
type Service struct {
	appCtx  *app.AppContext
	follows *repository.FollowRepository
	users   *repository.UserRepository
	stats   *service.Stats
}

func NewFollowsService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		follows: repository.NewFollowRepository(appCtx.DB),
		users:   repository.NewUserRepository(appCtx.DB),
		stats:   service.NewStats(appCtx),
	}
}

// Follow makes the caller follow followingID.
//
// Behavior:
//   - Following yourself is a validation error.
//   - Following someone already followed succeeds with created=false.
//   - On a new edge both users' cached counters are dropped.
func (s *Service) Follow(ctx context.Context, followingID string) (created bool, err error) {
	actor, err := service.Actor(ctx, s.users)
	if err != nil {
		return false, err
	}
	followingID = strings.TrimSpace(followingID)
	if followingID == "" {
		return false, svcErr.InvalidArgument("following_id is required and must be a string")
	}
	if followingID == actor.ID {
		return false, svcErr.InvalidArgument("Cannot follow yourself")
	}

	if _, err := s.users.ByID(ctx, followingID); errors.Is(err, gorm.ErrRecordNotFound) {
		return false, svcErr.NotFound("User to follow not found")
	} else if err != nil {
		return false, svcErr.Map(err)
	}

	err = s.follows.Create(ctx, actor.ID, followingID)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		s.appCtx.Logger.Debug("Follow already exists", "follower", actor.ID, "following", followingID)
		return false, nil
	}
	if err != nil {
		s.appCtx.Logger.Error("Follow failed", "following", followingID, "err", err)
		return false, svcErr.Map(err)
	}

	s.stats.InvalidateUsers(ctx, actor.ID, followingID)
	events.Emit(ctx, s.appCtx.Events, events.FollowCreated, events.Edge{ActorID: actor.ID, TargetID: followingID, At: time.Now().UTC()})
	return true, nil
}

// Unfollow removes the edge if present.
func (s *Service) Unfollow(ctx context.Context, followingID string) error {
	actor, err := service.Actor(ctx, s.users)
	if err != nil {
		return err
	}
	followingID = strings.TrimSpace(followingID)
	if followingID == "" {
		return svcErr.InvalidArgument("following_id is required and must be a string")
	}

	removed, err := s.follows.Delete(ctx, actor.ID, followingID)
	if err != nil {
		s.appCtx.Logger.Error("Unfollow failed", "following", followingID, "err", err)
		return svcErr.Map(err)
	}
	if removed {
		s.stats.InvalidateUsers(ctx, actor.ID, followingID)
		events.Emit(ctx, s.appCtx.Events, events.FollowDeleted, events.Edge{ActorID: actor.ID, TargetID: followingID, At: time.Now().UTC()})
	}
	return nil
}
