package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/picfeed/internal/db"
)

// LikeRepository provides data access for (post, user) like edges.
type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// Create inserts the edge.
//
// Behavior:
//   - Returns gorm.ErrDuplicatedKey if the edge already exists, whether the
//     pre-check or the composite PK catches it.
func (r *LikeRepository) Create(ctx context.Context, postID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&db.Like{}).
			Where("post_id = ? AND user_id = ?", postID, userID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return gorm.ErrDuplicatedKey
		}
		return tx.Create(&db.Like{PostID: postID, UserID: userID}).Error
	})
}

// Delete removes the edge and reports whether one existed.
func (r *LikeRepository) Delete(ctx context.Context, postID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&db.Like{})
	return res.RowsAffected > 0, res.Error
}

func (r *LikeRepository) Exists(ctx context.Context, postID, userID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&db.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&n).Error
	return n > 0, err
}

// LikedPostIDs returns which of postIDs userID has liked.
func (r *LikeRepository) LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(postIDs))
	if userID == "" || len(postIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&db.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
