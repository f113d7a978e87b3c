// Package api defines the JSON bodies exchanged between the server and its
// clients.
package api

import "time"

// UnknownName replaces the author's name when it cannot be resolved.
const UnknownName = "Unknown"

type UserRef struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id,omitempty"`
	Name       string `json:"name"`
}

type Post struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ImageURL      string    `json:"image_url"`
	Caption       *string   `json:"caption"`
	CreatedAt     time.Time `json:"created_at"`
	LikesCount    int64     `json:"likes_count"`
	CommentsCount int64     `json:"comments_count"`
	User          UserRef   `json:"user"`
	IsLiked       bool      `json:"is_liked"`
}

// ItemID implements collection.Identified.
func (p Post) ItemID() string { return p.ID }

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	User      UserRef   `json:"user"`
}

func (c Comment) ItemID() string { return c.ID }

type Profile struct {
	ID             string `json:"id"`
	ExternalID     string `json:"external_id"`
	Name           string `json:"name"`
	PostsCount     int64  `json:"posts_count"`
	FollowersCount int64  `json:"followers_count"`
	FollowingCount int64  `json:"following_count"`
	IsFollowing    bool   `json:"is_following"`
}

func (p Profile) ItemID() string { return p.ID }

type CreatePostRequest struct {
	ImageURL string  `json:"image_url"`
	Caption  *string `json:"caption"`
}

type PostResponse struct {
	Post Post `json:"post"`
}

type UploadResponse struct {
	ImageURL string `json:"image_url"`
}

type LikeRequest struct {
	PostID string `json:"post_id"`
}

type FollowRequest struct {
	FollowingID string `json:"following_id"`
}

type FollowResponse struct {
	Success     bool `json:"success"`
	IsFollowing bool `json:"is_following"`
}

type CreateCommentRequest struct {
	PostID  string `json:"post_id"`
	Content string `json:"content"`
}

type CommentResponse struct {
	Comment Comment `json:"comment"`
}

type ProfileResponse struct {
	User Profile `json:"user"`
}

type SearchResponse struct {
	Users []Profile `json:"users"`
}

type SyncResponse struct {
	User UserRef `json:"user"`
}

type Success struct {
	Success bool `json:"success"`
}

const (
	MaxCommentLength = 1000
	MaxCaptionLength = 2200
)
