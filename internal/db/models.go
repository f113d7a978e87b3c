package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User mirrors an identity-provider subject. ExternalID is the provider's
// stable subject id; ID is ours.
type User struct {
	ID         string    `gorm:"primaryKey;type:char(36)"`
	ExternalID string    `gorm:"uniqueIndex;size:191;not null"`
	Name       string    `gorm:"size:191;not null;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// Post is an image post. ImageURL points into the object store.
//
// Indexes:
//   - idx_posts_created(created_at DESC) for the global feed.
//   - idx_posts_user_created(user_id, created_at DESC) for profile grids.
type Post struct {
	ID        string    `gorm:"primaryKey;type:char(36)"`
	UserID    string    `gorm:"type:char(36);not null;index:idx_posts_user_created,priority:1"`
	ImageURL  string    `gorm:"size:1024;not null"`
	Caption   *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_posts_created,sort:desc;index:idx_posts_user_created,priority:2,sort:desc"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Like is a unique (post, user) edge.
//
// Composite PK: (PostID, UserID)
//   - At most one like per user per post.
type Like struct {
	PostID    string    `gorm:"primaryKey;type:char(36)"`
	UserID    string    `gorm:"primaryKey;type:char(36);index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Comment is immutable once created; it can only be deleted.
type Comment struct {
	ID        string    `gorm:"primaryKey;type:char(36)"`
	PostID    string    `gorm:"type:char(36);not null;index:idx_comments_post_created,priority:1"`
	UserID    string    `gorm:"type:char(36);not null;index"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_comments_post_created,priority:2"`
}

// Follow is a unique directed (follower, following) edge.
//
// Composite PK: (FollowerID, FollowingID)
//   - idx_follows_following serves follower counts and "is following" lookups.
type Follow struct {
	FollowerID  string    `gorm:"primaryKey;type:char(36)"`
	FollowingID string    `gorm:"primaryKey;type:char(36);index:idx_follows_following"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (p *Post) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (c *Comment) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// PostStat is a row of the post_stats view.
type PostStat struct {
	PostID        string
	UserID        string
	ImageURL      string
	Caption       *string
	CreatedAt     time.Time
	LikesCount    int64
	CommentsCount int64
}

func (PostStat) TableName() string { return "post_stats" }

// UserStat is a row of the user_stats view.
type UserStat struct {
	UserID         string
	ExternalID     string
	Name           string
	PostsCount     int64
	FollowersCount int64
	FollowingCount int64
}

func (UserStat) TableName() string { return "user_stats" }
