package comments

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/oggyb/picfeed/internal/api"
	"github.com/oggyb/picfeed/internal/app"
	"github.com/oggyb/picfeed/internal/db"
	svcErr "github.com/oggyb/picfeed/internal/errors"
	"github.com/oggyb/picfeed/internal/events"
	"github.com/oggyb/picfeed/internal/repository"
	"github.com/oggyb/picfeed/internal/service"
	"github.com/oggyb/picfeed/internal/utils/pagination"
)

// DefaultLimit is the preview size shown under a post card.
const DefaultLimit = 2

type Service struct {
	appCtx   *app.AppContext
	comments *repository.CommentRepository
	posts    *repository.PostRepository
	users    *repository.UserRepository
	stats    *service.Stats
}

func NewCommentsService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		comments: repository.NewCommentRepository(appCtx.DB),
		posts:    repository.NewPostRepository(appCtx.DB),
		users:    repository.NewUserRepository(appCtx.DB),
		stats:    service.NewStats(appCtx),
	}
}

// ListComments returns one page of a post's thread, newest first unless
// asc. A post without comments yields an empty page.
func (s *Service) ListComments(ctx context.Context, postID string, req pagination.Request, asc bool) (pagination.Page[api.Comment], error) {
	if strings.TrimSpace(postID) == "" {
		return pagination.Page[api.Comment]{}, svcErr.InvalidArgument("postId is required")
	}
	if err := req.Validate(); err != nil {
		return pagination.Page[api.Comment]{}, svcErr.InvalidArgument(err.Error())
	}

	var (
		rows  []db.Comment
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rows, err = s.comments.ListByPost(gctx, postID, asc, req.Offset(), req.Limit)
		return err
	})
	g.Go(func() (err error) {
		total, err = s.comments.CountByPost(gctx, postID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.appCtx.Logger.Error("ListComments failed", "post_id", postID, "err", err)
		return pagination.Page[api.Comment]{}, svcErr.Map(err)
	}

	userIDs := make([]string, 0, len(rows))
	for _, c := range rows {
		userIDs = append(userIDs, c.UserID)
	}
	authors, err := s.users.ByIDs(ctx, userIDs)
	if err != nil {
		s.appCtx.Logger.Warn("author enrichment failed", "post_id", postID, "err", err)
	}

	items := make([]api.Comment, 0, len(rows))
	for _, c := range rows {
		items = append(items, toComment(c, authors))
	}
	return pagination.NewPage(items, pagination.Derive(req, total)), nil
}

// CreateComment adds the caller's comment to postID.
//
// Behavior:
//   - Content is trimmed; it must be non-empty and at most 1000 characters.
//   - The post must exist.
//   - The post's cached counters are dropped on success.
func (s *Service) CreateComment(ctx context.Context, req api.CreateCommentRequest) (api.Comment, error) {
	actor, err := service.Actor(ctx, s.users)
	if err != nil {
		return api.Comment{}, err
	}
	postID := strings.TrimSpace(req.PostID)
	if postID == "" {
		return api.Comment{}, svcErr.InvalidArgument("post_id is required")
	}
	content, err := api.ValidateComment(req.Content)
	if err != nil {
		return api.Comment{}, err
	}

	if _, err := s.posts.ByID(ctx, postID); errors.Is(err, gorm.ErrRecordNotFound) {
		return api.Comment{}, svcErr.NotFound("Post not found")
	} else if err != nil {
		return api.Comment{}, svcErr.Map(err)
	}

	c := db.Comment{PostID: postID, UserID: actor.ID, Content: content}
	if err := s.comments.Create(ctx, &c); err != nil {
		s.appCtx.Logger.Error("CreateComment failed", "post_id", postID, "err", err)
		return api.Comment{}, svcErr.Map(err)
	}

	s.stats.InvalidatePosts(ctx, postID)
	events.Emit(ctx, s.appCtx.Events, events.CommentCreated, events.Entity{ID: c.ID, OwnerID: actor.ID, PostID: postID, At: c.CreatedAt})
	return toComment(c, map[string]db.User{actor.ID: *actor}), nil
}

// DeleteComment removes a comment. Only its author may delete it.
func (s *Service) DeleteComment(ctx context.Context, commentID string) error {
	actor, err := service.Actor(ctx, s.users)
	if err != nil {
		return err
	}

	c, err := s.comments.ByID(ctx, commentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return svcErr.NotFound("Comment not found")
	}
	if err != nil {
		return svcErr.Map(err)
	}
	if c.UserID != actor.ID {
		return svcErr.Forbidden("You can only delete your own comments")
	}

	if err := s.comments.Delete(ctx, c.ID); err != nil {
		return svcErr.Map(err)
	}
	s.stats.InvalidatePosts(ctx, c.PostID)
	events.Emit(ctx, s.appCtx.Events, events.CommentDeleted, events.Entity{ID: c.ID, OwnerID: actor.ID, PostID: c.PostID})
	return nil
}

func toComment(c db.Comment, authors map[string]db.User) api.Comment {
	out := api.Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		UserID:    c.UserID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		User:      api.UserRef{ID: c.UserID, Name: api.UnknownName},
	}
	if u, ok := authors[c.UserID]; ok {
		out.User = api.UserRef{ID: u.ID, ExternalID: u.ExternalID, Name: u.Name}
	}
	return out
}
