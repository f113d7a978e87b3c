package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/picfeed/internal/db"
)

// FollowRepository provides data access for (follower, following) edges.
type FollowRepository struct {
	db *gorm.DB
}

func NewFollowRepository(database *gorm.DB) *FollowRepository {
	return &FollowRepository{db: database}
}

// Create inserts the edge; an existing edge yields gorm.ErrDuplicatedKey.
// Callers decide whether that is a failure.
func (r *FollowRepository) Create(ctx context.Context, followerID, followingID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&db.Follow{}).
			Where("follower_id = ? AND following_id = ?", followerID, followingID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return gorm.ErrDuplicatedKey
		}
		return tx.Create(&db.Follow{FollowerID: followerID, FollowingID: followingID}).Error
	})
}

// Delete removes the edge and reports whether one existed.
func (r *FollowRepository) Delete(ctx context.Context, followerID, followingID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&db.Follow{})
	return res.RowsAffected > 0, res.Error
}

func (r *FollowRepository) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&db.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&n).Error
	return n > 0, err
}

// FollowingSet returns which of userIDs followerID follows.
func (r *FollowRepository) FollowingSet(ctx context.Context, followerID string, userIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(userIDs))
	if followerID == "" || len(userIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&db.Follow{}).
		Where("follower_id = ? AND following_id IN ?", followerID, userIDs).
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
