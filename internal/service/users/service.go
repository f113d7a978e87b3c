package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/picfeed/internal/api"
	"github.com/oggyb/picfeed/internal/app"
	"github.com/oggyb/picfeed/internal/auth"
	"github.com/oggyb/picfeed/internal/db"
	svcErr "github.com/oggyb/picfeed/internal/errors"
	"github.com/oggyb/picfeed/internal/repository"
	"github.com/oggyb/picfeed/internal/service"
)

// SearchLimit caps user search results.
const SearchLimit = 20

type Service struct {
	appCtx  *app.AppContext
	users   *repository.UserRepository
	follows *repository.FollowRepository
	stats   *service.Stats
}

func NewUsersService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		users:   repository.NewUserRepository(appCtx.DB),
		follows: repository.NewFollowRepository(appCtx.DB),
		stats:   service.NewStats(appCtx),
	}
}

// Profile looks a user up by our uuid or by the identity provider's
// subject id. is_following is set for a signed-in caller viewing someone
// else.
func (s *Service) Profile(ctx context.Context, ref string) (api.Profile, error) {
	ref = strings.TrimSpace(ref)
	var (
		u   *db.User
		err error
	)
	if _, perr := uuid.Parse(ref); perr == nil {
		u, err = s.users.ByID(ctx, ref)
	} else {
		u, err = s.users.ByExternalID(ctx, ref)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return api.Profile{}, svcErr.NotFound("User not found")
	}
	if err != nil {
		return api.Profile{}, svcErr.Map(err)
	}

	counts, err := s.stats.UserCounts(ctx, u.ID)
	if err != nil {
		return api.Profile{}, svcErr.Map(err)
	}
	out := api.Profile{
		ID:             u.ID,
		ExternalID:     u.ExternalID,
		Name:           u.Name,
		PostsCount:     counts.Posts,
		FollowersCount: counts.Followers,
		FollowingCount: counts.Following,
	}

	if actor := service.OptionalActor(ctx, s.users); actor != nil && actor.ID != u.ID {
		out.IsFollowing, err = s.follows.Exists(ctx, actor.ID, u.ID)
		if err != nil {
			s.appCtx.Logger.Warn("follow status lookup failed", "user_id", u.ID, "err", err)
		}
	}
	return out, nil
}

// Search matches display names. An empty query returns no users.
func (s *Service) Search(ctx context.Context, q string) ([]api.Profile, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []api.Profile{}, nil
	}
	stats, err := s.users.Search(ctx, q, SearchLimit)
	if err != nil {
		s.appCtx.Logger.Error("Search failed", "err", err)
		return nil, svcErr.Map(err)
	}

	ids := make([]string, 0, len(stats))
	for _, st := range stats {
		ids = append(ids, st.UserID)
	}
	following := map[string]bool{}
	if actor := service.OptionalActor(ctx, s.users); actor != nil {
		if following, err = s.follows.FollowingSet(ctx, actor.ID, ids); err != nil {
			s.appCtx.Logger.Warn("follow status lookup failed", "err", err)
			following = map[string]bool{}
		}
	}

	out := make([]api.Profile, 0, len(stats))
	for _, st := range stats {
		out = append(out, api.Profile{
			ID:             st.UserID,
			ExternalID:     st.ExternalID,
			Name:           st.Name,
			PostsCount:     st.PostsCount,
			FollowersCount: st.FollowersCount,
			FollowingCount: st.FollowingCount,
			IsFollowing:    following[st.UserID],
		})
	}
	return out, nil
}

// Sync creates or refreshes the caller's user row from the token claims.
// The subject id stands in for a missing display name.
func (s *Service) Sync(ctx context.Context) (api.UserRef, error) {
	id, err := auth.RequireActor(ctx)
	if err != nil {
		return api.UserRef{}, err
	}
	name := strings.TrimSpace(id.Name)
	if name == "" {
		name = id.Subject
	}
	u, err := s.users.Upsert(ctx, id.Subject, name)
	if err != nil {
		s.appCtx.Logger.Error("Sync failed", "subject", id.Subject, "err", err)
		return api.UserRef{}, svcErr.Map(err)
	}
	return api.UserRef{ID: u.ID, ExternalID: u.ExternalID, Name: u.Name}, nil
}
