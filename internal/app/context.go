package app

import (
	"context"
	"io"
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/picfeed/internal/auth"
	"github.com/oggyb/picfeed/internal/cache"
	"github.com/oggyb/picfeed/internal/events"
)

// ObjectStore holds uploaded images.
type ObjectStore interface {
	Put(ctx context.Context, owner, ext string, body io.Reader) (string, error)
	Remove(ctx context.Context, url string) error
}

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Events     events.Publisher
	Store      ObjectStore
	Auth       *auth.Provider
}

// New creates a new AppContext. Optional collaborators are attached with
// the With* methods; events default to a no-op publisher.
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Events:     events.Noop{},
	}
}

func (a *AppContext) WithEvents(p events.Publisher) *AppContext {
	if p != nil {
		a.Events = p
	}
	return a
}

func (a *AppContext) WithStore(s ObjectStore) *AppContext {
	a.Store = s
	return a
}

func (a *AppContext) WithAuth(p *auth.Provider) *AppContext {
	a.Auth = p
	return a
}
