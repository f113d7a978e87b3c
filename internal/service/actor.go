// Package service holds what every API service shares: resolving the
// caller to a user row and keeping the stats cache in step with writes.
package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/picfeed/internal/auth"
	"github.com/oggyb/picfeed/internal/db"
	svcErr "github.com/oggyb/picfeed/internal/errors"
	"github.com/oggyb/picfeed/internal/logger"
	"github.com/oggyb/picfeed/internal/repository"
)

// Actor resolves the authenticated caller. Anonymous callers get
// Unauthorized; callers whose user row was never synced get NotFound.
func Actor(ctx context.Context, users *repository.UserRepository) (*db.User, error) {
	id, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	u, err := users.ByExternalID(ctx, id.Subject)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("User not found. Please ensure your account is properly synced.")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return u, nil
}

// OptionalActor is Actor for read paths: anonymous or unsynced callers
// yield nil, and lookup failures are logged rather than returned.
func OptionalActor(ctx context.Context, users *repository.UserRepository) *db.User {
	id, ok := auth.CurrentActor(ctx)
	if !ok {
		return nil
	}
	u, err := users.ByExternalID(ctx, id.Subject)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.FromContext(ctx).Warn("actor lookup failed", "subject", id.Subject, "err", err)
		}
		return nil
	}
	return u
}

// ActorID is the id of u, or "" for nil.
func ActorID(u *db.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
