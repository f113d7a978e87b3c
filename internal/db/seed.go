package db

import (
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedNames = []string{
	"Minji Kim", "Jisoo Park", "Daniel Lee", "Hana Choi",
	"Sora Jung", "Alex Han", "Yuna Kang", "Chris Yoon",
}

// SeedTestData resets the database and populates it with demo content.
//
// Behavior:
//  1. Clears comments, likes, follows, posts and users.
//  2. Creates 8 users with external ids "seed_user_<n>".
//  3. Creates 3-5 posts per user with picsum image URLs, spaced in time.
//  4. Adds ~40% random likes, a follow graph, and a few comments per post.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) ([]User, error) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{"comments", "likes", "follows", "posts", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return nil, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	users := make([]User, 0, len(seedNames))
	for i, name := range seedNames {
		users = append(users, User{ExternalID: fmt.Sprintf("seed_user_%d", i+1), Name: name})
	}
	if err := db.Create(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}

	now := time.Now().UTC()
	var posts []Post
	for _, u := range users {
		for j := 0; j < 3+r.Intn(3); j++ {
			caption := fmt.Sprintf("%s #%d", u.Name, j+1)
			posts = append(posts, Post{
				UserID:    u.ID,
				ImageURL:  fmt.Sprintf("https://picsum.photos/seed/%s-%d/1080/1080", u.ExternalID, j),
				Caption:   &caption,
				CreatedAt: now.Add(-time.Duration(r.Intn(24*14)) * time.Hour),
			})
		}
	}
	if err := db.Create(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to seed posts: %w", err)
	}

	var likes []Like
	var comments []Comment
	for _, p := range posts {
		for _, u := range users {
			if r.Intn(100) < 40 {
				likes = append(likes, Like{PostID: p.ID, UserID: u.ID})
			}
		}
		for k := 0; k < r.Intn(4); k++ {
			author := users[r.Intn(len(users))]
			comments = append(comments, Comment{
				PostID:    p.ID,
				UserID:    author.ID,
				Content:   fmt.Sprintf("Nice shot! (%d)", k+1),
				CreatedAt: p.CreatedAt.Add(time.Duration(k+1) * time.Minute),
			})
		}
	}

	var follows []Follow
	for _, a := range users {
		for _, b := range users {
			if a.ID != b.ID && r.Intn(100) < 50 {
				follows = append(follows, Follow{FollowerID: a.ID, FollowingID: b.ID})
			}
		}
	}

	// edges are unique per pair; DoNothing keeps reruns idempotent
	insert := db.Clauses(clause.OnConflict{DoNothing: true})
	if len(likes) > 0 {
		if err := insert.Create(&likes).Error; err != nil {
			return nil, fmt.Errorf("failed to seed likes: %w", err)
		}
	}
	if len(follows) > 0 {
		if err := insert.Create(&follows).Error; err != nil {
			return nil, fmt.Errorf("failed to seed follows: %w", err)
		}
	}
	if len(comments) > 0 {
		if err := db.Create(&comments).Error; err != nil {
			return nil, fmt.Errorf("failed to seed comments: %w", err)
		}
	}

	return users, nil
}
