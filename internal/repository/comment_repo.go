package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/picfeed/internal/db"
)

// CommentRepository provides data access for comments.
type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(database *gorm.DB) *CommentRepository {
	return &CommentRepository{db: database}
}

func (r *CommentRepository) Create(ctx context.Context, c *db.Comment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CommentRepository) ByID(ctx context.Context, id string) (*db.Comment, error) {
	var c db.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByPost returns one window of a post's thread. Newest first unless
// asc is set.
func (r *CommentRepository) ListByPost(ctx context.Context, postID string, asc bool, offset, limit int) ([]db.Comment, error) {
	order := "created_at DESC, id DESC"
	if asc {
		order = "created_at ASC, id ASC"
	}
	var comments []db.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order(order).
		Offset(offset).
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

func (r *CommentRepository) CountByPost(ctx context.Context, postID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&db.Comment{}).Where("post_id = ?", postID).Count(&n).Error
	return n, err
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.Comment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
