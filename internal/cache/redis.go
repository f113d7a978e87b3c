package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/picfeed/internal/config"
)

// RedisCache keeps the aggregated counters of posts and users.
// Entries are only ever written from the stats views and deleted on
// mutation, never incremented.
//
// Every entity also has a generation key that invalidation bumps. A
// read-through write-back carries the generation seen before the view was
// read and is dropped if it moved, so a slow reader cannot put back
// counts that an invalidation already retired.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// PostCounts is the cached slice of a post_stats row.
type PostCounts struct {
	Likes    int64
	Comments int64
}

// UserCounts is the cached slice of a user_stats row.
type UserCounts struct {
	Posts     int64
	Followers int64
	Following int64
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	ttl := cfg.Redis.StatsTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCache{Client: redis.NewClient(opts), TTL: ttl}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

func KeyForPost(postID string) string { return fmt.Sprintf("stats:post:%s", postID) }
func KeyForUser(userID string) string { return fmt.Sprintf("stats:user:%s", userID) }

func genKey(key string) string { return "gen:" + key }

// SetPostCounts stores the counters unconditionally.
func (c *RedisCache) SetPostCounts(ctx context.Context, postID string, pc PostCounts) error {
	key := KeyForPost(postID)
	_, err := c.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, "likes", pc.Likes, "comments", pc.Comments)
		p.Expire(ctx, key, c.TTL)
		return nil
	})
	return err
}

// GetPostCounts returns ok=false on a cache miss.
func (c *RedisCache) GetPostCounts(ctx context.Context, postID string) (PostCounts, bool, error) {
	vals, ok, err := c.getHash(ctx, KeyForPost(postID), "likes", "comments")
	if !ok || err != nil {
		return PostCounts{}, false, err
	}
	return PostCounts{Likes: vals[0], Comments: vals[1]}, true, nil
}

func (c *RedisCache) SetUserCounts(ctx context.Context, userID string, uc UserCounts) error {
	key := KeyForUser(userID)
	_, err := c.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, "posts", uc.Posts, "followers", uc.Followers, "following", uc.Following)
		p.Expire(ctx, key, c.TTL)
		return nil
	})
	return err
}

// PostVersion returns the invalidation generation of a post's counters.
// Read it before querying the view and pass it to FillPostCounts.
func (c *RedisCache) PostVersion(ctx context.Context, postID string) (int64, error) {
	return c.version(ctx, KeyForPost(postID))
}

func (c *RedisCache) UserVersion(ctx context.Context, userID string) (int64, error) {
	return c.version(ctx, KeyForUser(userID))
}

// FillPostCounts writes pc only if the post was not invalidated since
// version was read. It reports whether the entry was stored.
func (c *RedisCache) FillPostCounts(ctx context.Context, postID string, version int64, pc PostCounts) (bool, error) {
	return c.fill(ctx, KeyForPost(postID), version, "likes", pc.Likes, "comments", pc.Comments)
}

func (c *RedisCache) FillUserCounts(ctx context.Context, userID string, version int64, uc UserCounts) (bool, error) {
	return c.fill(ctx, KeyForUser(userID), version,
		"posts", uc.Posts, "followers", uc.Followers, "following", uc.Following)
}

func (c *RedisCache) GetUserCounts(ctx context.Context, userID string) (UserCounts, bool, error) {
	vals, ok, err := c.getHash(ctx, KeyForUser(userID), "posts", "followers", "following")
	if !ok || err != nil {
		return UserCounts{}, false, err
	}
	return UserCounts{Posts: vals[0], Followers: vals[1], Following: vals[2]}, true, nil
}

// InvalidatePosts drops cached counters for the given posts.
func (c *RedisCache) InvalidatePosts(ctx context.Context, postIDs ...string) error {
	return c.del(ctx, KeyForPost, postIDs)
}

// InvalidateUsers drops cached counters for the given users.
func (c *RedisCache) InvalidateUsers(ctx context.Context, userIDs ...string) error {
	return c.del(ctx, KeyForUser, userIDs)
}

// del bumps the generation of each entry and deletes it in one
// transaction.
func (c *RedisCache) del(ctx context.Context, keyFn func(string) string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := c.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, id := range ids {
			key := keyFn(id)
			p.Incr(ctx, genKey(key))
			p.Expire(ctx, genKey(key), 2*c.TTL)
			p.Del(ctx, key)
		}
		return nil
	})
	return err
}

func (c *RedisCache) version(ctx context.Context, key string) (int64, error) {
	v, err := c.Client.Get(ctx, genKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *RedisCache) fill(ctx context.Context, key string, version int64, values ...any) (bool, error) {
	gk := genKey(key)
	stored := false
	err := c.Client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, gk).Int64()
		if errors.Is(err, redis.Nil) {
			cur = 0
		} else if err != nil {
			return err
		}
		if cur != version {
			return nil // invalidated meanwhile
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, values...)
			p.Expire(ctx, key, c.TTL)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, gk)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil // generation moved between WATCH and EXEC
	}
	return stored, err
}

func (c *RedisCache) getHash(ctx context.Context, key string, fields ...string) ([]int64, bool, error) {
	raw, err := c.Client.HMGet(ctx, key, fields...).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil // cache miss
	} else if err != nil {
		return nil, false, err
	}
	out := make([]int64, len(fields))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, false, nil // partial entry counts as a miss
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, false, nil
		}
		out[i] = n
	}
	return out, true, nil
}
