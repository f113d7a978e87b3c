package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/picfeed/internal/db"
)

// PostFilter narrows a post listing. The zero value lists every post.
type PostFilter struct {
	UserID string
}

// PostRepository provides data access for posts and the post_stats view.
type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(database *gorm.DB) *PostRepository {
	return &PostRepository{db: database}
}

func (r *PostRepository) Create(ctx context.Context, post *db.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *PostRepository) ByID(ctx context.Context, id string) (*db.Post, error) {
	var p db.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepository) StatByID(ctx context.Context, id string) (*db.PostStat, error) {
	var s db.PostStat
	if err := r.db.WithContext(ctx).Where("post_id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListStats returns the window [offset, offset+limit) of post_stats,
// newest first.
//
// Example:
//
//	repo.ListStats(ctx, PostFilter{}, 20, 10) // page 3 of the global feed
func (r *PostRepository) ListStats(ctx context.Context, f PostFilter, offset, limit int) ([]db.PostStat, error) {
	var stats []db.PostStat
	err := r.scope(ctx, f).
		Order("created_at DESC, post_id DESC").
		Offset(offset).
		Limit(limit).
		Find(&stats).Error
	return stats, err
}

// CountStats returns the total for the same predicate as ListStats.
func (r *PostRepository) CountStats(ctx context.Context, f PostFilter) (int64, error) {
	var count int64
	if err := r.scope(ctx, f).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes the post and cascades to its likes and comments in one
// transaction.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&db.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&db.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&db.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *PostRepository) scope(ctx context.Context, f PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&db.PostStat{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	return q
}
