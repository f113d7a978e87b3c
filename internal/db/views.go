package db

import (
	"fmt"

	"gorm.io/gorm"
)

// Counts are recomputed from the edge tables on every read, so they can
// never drift from likes/comments/follows.
const postStatsQuery = `SELECT
	p.id AS post_id,
	p.user_id AS user_id,
	p.image_url AS image_url,
	p.caption AS caption,
	p.created_at AS created_at,
	(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS likes_count,
	(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comments_count
FROM posts p`

const userStatsQuery = `SELECT
	u.id AS user_id,
	u.external_id AS external_id,
	u.name AS name,
	(SELECT COUNT(*) FROM posts p WHERE p.user_id = u.id) AS posts_count,
	(SELECT COUNT(*) FROM follows f WHERE f.following_id = u.id) AS followers_count,
	(SELECT COUNT(*) FROM follows f WHERE f.follower_id = u.id) AS following_count
FROM users u`

// CreateViews (re)creates post_stats and user_stats for the active dialect.
func CreateViews(database *gorm.DB) error {
	views := []struct{ name, query string }{
		{"post_stats", postStatsQuery},
		{"user_stats", userStatsQuery},
	}

	for _, v := range views {
		var stmts []string
		switch database.Dialector.Name() {
		case "mysql":
			stmts = []string{fmt.Sprintf("CREATE OR REPLACE VIEW %s AS %s", v.name, v.query)}
		default:
			// sqlite has no CREATE OR REPLACE VIEW
			stmts = []string{
				fmt.Sprintf("DROP VIEW IF EXISTS %s", v.name),
				fmt.Sprintf("CREATE VIEW %s AS %s", v.name, v.query),
			}
		}
		for _, s := range stmts {
			if err := database.Exec(s).Error; err != nil {
				return fmt.Errorf("failed to create view %s: %w", v.name, err)
			}
		}
	}
	return nil
}
