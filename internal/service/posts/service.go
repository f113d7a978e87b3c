package posts

import (
	"context"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/oggyb/picfeed/internal/api"
	"github.com/oggyb/picfeed/internal/app"
	"github.com/oggyb/picfeed/internal/db"
	svcErr "github.com/oggyb/picfeed/internal/errors"
	"github.com/oggyb/picfeed/internal/events"
	"github.com/oggyb/picfeed/internal/repository"
	"github.com/oggyb/picfeed/internal/service"
	"github.com/oggyb/picfeed/internal/storage"
	"github.com/oggyb/picfeed/internal/utils/pagination"
)

// DefaultLimit is the feed page size when the client sends none.
const DefaultLimit = 10

// Service implements the feed and post endpoints on top of the
// repository and cache layers.
type Service struct {
	appCtx *app.AppContext
	posts  *repository.PostRepository
	likes  *repository.LikeRepository
	users  *repository.UserRepository
	stats  *service.Stats
}

func NewPostsService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		posts:  repository.NewPostRepository(appCtx.DB),
		likes:  repository.NewLikeRepository(appCtx.DB),
		users:  repository.NewUserRepository(appCtx.DB),
		stats:  service.NewStats(appCtx),
	}
}

// ListPosts returns one page of the feed, or of one user's grid when
// userID is set.
//
// Behavior:
//   - Newest first; hasMore/nextPage derived from the total for the same filter.
//   - Authors that cannot be resolved are rendered as "Unknown".
//   - is_liked is filled for a signed-in caller and false otherwise.
func (s *Service) ListPosts(ctx context.Context, req pagination.Request, userID string) (pagination.Page[api.Post], error) {
	if err := req.Validate(); err != nil {
		return pagination.Page[api.Post]{}, svcErr.InvalidArgument(err.Error())
	}
	filter := repository.PostFilter{UserID: userID}

	var (
		stats []db.PostStat
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = s.posts.ListStats(gctx, filter, req.Offset(), req.Limit)
		return err
	})
	g.Go(func() (err error) {
		total, err = s.posts.CountStats(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		s.appCtx.Logger.Error("ListPosts failed", "err", err)
		return pagination.Page[api.Post]{}, svcErr.Map(err)
	}

	items := s.enrich(ctx, stats)
	s.appCtx.Logger.Debug("ListPosts result", "page", req.Page, "count", len(items), "total", total)
	return pagination.NewPage(items, pagination.Derive(req, total)), nil
}

// enrich attaches authors and the caller's like flags. Both lookups run
// concurrently and neither can fail the page.
func (s *Service) enrich(ctx context.Context, stats []db.PostStat) []api.Post {
	if len(stats) == 0 {
		return nil
	}
	postIDs := make([]string, 0, len(stats))
	userIDs := make([]string, 0, len(stats))
	seen := map[string]bool{}
	for _, st := range stats {
		postIDs = append(postIDs, st.PostID)
		if !seen[st.UserID] {
			seen[st.UserID] = true
			userIDs = append(userIDs, st.UserID)
		}
	}

	actor := service.OptionalActor(ctx, s.users)

	var (
		authors map[string]db.User
		liked   map[string]bool
		g       errgroup.Group
	)
	g.Go(func() error {
		var err error
		if authors, err = s.users.ByIDs(ctx, userIDs); err != nil {
			s.appCtx.Logger.Warn("author enrichment failed", "err", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if liked, err = s.likes.LikedPostIDs(ctx, service.ActorID(actor), postIDs); err != nil {
			s.appCtx.Logger.Warn("like status lookup failed", "err", err)
		}
		return nil
	})
	_ = g.Wait()

	out := make([]api.Post, 0, len(stats))
	for _, st := range stats {
		p := toPost(st)
		p.User = authorRef(authors, st.UserID)
		p.IsLiked = liked[st.PostID]
		out = append(out, p)
	}
	return out
}

// GetPost returns a single post with counts read through the stats cache.
func (s *Service) GetPost(ctx context.Context, postID string) (api.Post, error) {
	p, err := s.posts.ByID(ctx, postID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return api.Post{}, svcErr.NotFound("Post not found")
	}
	if err != nil {
		return api.Post{}, svcErr.Map(err)
	}

	counts, err := s.stats.PostCounts(ctx, p.ID)
	if err != nil {
		return api.Post{}, svcErr.Map(err)
	}

	out := api.Post{
		ID:            p.ID,
		UserID:        p.UserID,
		ImageURL:      p.ImageURL,
		Caption:       p.Caption,
		CreatedAt:     p.CreatedAt,
		LikesCount:    counts.Likes,
		CommentsCount: counts.Comments,
	}
	authors, err := s.users.ByIDs(ctx, []string{p.UserID})
	if err != nil {
		s.appCtx.Logger.Warn("author enrichment failed", "post_id", p.ID, "err", err)
	}
	out.User = authorRef(authors, p.UserID)

	if actor := service.OptionalActor(ctx, s.users); actor != nil {
		out.IsLiked, err = s.likes.Exists(ctx, p.ID, actor.ID)
		if err != nil {
			s.appCtx.Logger.Warn("like status lookup failed", "post_id", p.ID, "err", err)
		}
	}
	return out, nil
}

// CreatePost stores a post for the caller. The image must already be in
// the object store.
func (s *Service) CreatePost(ctx context.Context, req api.CreatePostRequest) (api.Post, error) {
	actor, err := service.Actor(ctx, s.users)
	if err != nil {
		return api.Post{}, err
	}

	imageURL := strings.TrimSpace(req.ImageURL)
	if imageURL == "" {
		return api.Post{}, svcErr.InvalidArgument("image_url is required")
	}
	var caption *string
	if req.Caption != nil {
		c := strings.TrimSpace(*req.Caption)
		if utf8.RuneCountInString(c) > api.MaxCaptionLength {
			return api.Post{}, svcErr.InvalidArgument("caption must be 2200 characters or less")
		}
		if c != "" {
			caption = &c
		}
	}

	p := db.Post{UserID: actor.ID, ImageURL: imageURL, Caption: caption}
	if err := s.posts.Create(ctx, &p); err != nil {
		s.appCtx.Logger.Error("CreatePost failed", "err", err)
		return api.Post{}, svcErr.Map(err)
	}

	s.stats.InvalidateUsers(ctx, actor.ID)
	events.Emit(ctx, s.appCtx.Events, events.PostCreated, events.Entity{ID: p.ID, OwnerID: actor.ID, At: p.CreatedAt})

	return api.Post{
		ID:        p.ID,
		UserID:    p.UserID,
		ImageURL:  p.ImageURL,
		Caption:   p.Caption,
		CreatedAt: p.CreatedAt,
		User:      api.UserRef{ID: actor.ID, ExternalID: actor.ExternalID, Name: actor.Name},
	}, nil
}

// DeletePost removes the caller's own post with its likes and comments,
// then removes the image. Image removal is best-effort.
func (s *Service) DeletePost(ctx context.Context, postID string) error {
	actor, err := service.Actor(ctx, s.users)
	if err != nil {
		return err
	}

	p, err := s.posts.ByID(ctx, postID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return svcErr.NotFound("Post not found")
	}
	if err != nil {
		return svcErr.Map(err)
	}
	if p.UserID != actor.ID {
		return svcErr.Forbidden("You can only delete your own posts")
	}

	if err := s.posts.Delete(ctx, p.ID); err != nil {
		return svcErr.Map(err)
	}

	if s.appCtx.Store != nil {
		if err := s.appCtx.Store.Remove(ctx, p.ImageURL); err != nil {
			s.appCtx.Logger.Warn("image removal failed", "post_id", p.ID, "url", p.ImageURL, "err", err)
		}
	}
	s.stats.InvalidatePosts(ctx, p.ID)
	s.stats.InvalidateUsers(ctx, actor.ID)
	events.Emit(ctx, s.appCtx.Events, events.PostDeleted, events.Entity{ID: p.ID, OwnerID: actor.ID})
	return nil
}

// UploadImage stores an image for the caller and returns its public URL.
func (s *Service) UploadImage(ctx context.Context, contentType string, body io.Reader) (string, error) {
	actor, err := service.Actor(ctx, s.users)
	if err != nil {
		return "", err
	}
	if s.appCtx.Store == nil {
		return "", svcErr.Internal(errors.New("object store not configured"))
	}

	url, err := s.appCtx.Store.Put(ctx, actor.ID, extFor(contentType), body)
	if errors.Is(err, storage.ErrTooLarge) {
		return "", svcErr.InvalidArgument("file must be 5MB or less")
	}
	if err != nil {
		s.appCtx.Logger.Error("UploadImage failed", "err", err)
		return "", svcErr.Internal(err)
	}
	return url, nil
}

func toPost(st db.PostStat) api.Post {
	return api.Post{
		ID:            st.PostID,
		UserID:        st.UserID,
		ImageURL:      st.ImageURL,
		Caption:       st.Caption,
		CreatedAt:     st.CreatedAt,
		LikesCount:    st.LikesCount,
		CommentsCount: st.CommentsCount,
	}
}

func authorRef(authors map[string]db.User, userID string) api.UserRef {
	if u, ok := authors[userID]; ok {
		return api.UserRef{ID: u.ID, ExternalID: u.ExternalID, Name: u.Name}
	}
	return api.UserRef{ID: userID, Name: api.UnknownName}
}

func extFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
