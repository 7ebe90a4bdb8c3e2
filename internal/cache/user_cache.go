package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	dom "userapi/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyUser = "user:id:"
	keyPage = "user:page:"
)

// UserCache caches single accounts and list pages in Redis.
type UserCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewUserCache returns a new UserCache.
func NewUserCache(rdb *redis.Client, ttl time.Duration) *UserCache {
	return &UserCache{rdb: rdb, ttl: ttl}
}

// GetByID returns the cached account or nil if miss.
func (c *UserCache) GetByID(ctx context.Context, id int64) (*dom.User, error) {
	b, err := c.rdb.Get(ctx, keyUser+strconv.FormatInt(id, 10)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var u dom.User
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetByID stores one account in cache.
func (c *UserCache) SetByID(ctx context.Context, u dom.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyUser+strconv.FormatInt(u.ID, 10), b, c.ttl).Err()
}

// GetPage returns a cached list page or nil if miss.
func (c *UserCache) GetPage(ctx context.Context, limit, page int) ([]dom.User, error) {
	b, err := c.rdb.Get(ctx, pageKey(limit, page)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []dom.User
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetPage stores a list page in cache.
func (c *UserCache) SetPage(ctx context.Context, limit, page int, list []dom.User) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, pageKey(limit, page), b, c.ttl).Err()
}

// InvalidateAll removes every cached account and page (cache invalidation on write).
func (c *UserCache) InvalidateAll(ctx context.Context) error {
	for _, prefix := range []string{keyUser, keyPage} {
		iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
				return err
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
	}
	return nil
}

func pageKey(limit, page int) string {
	return keyPage + strconv.Itoa(limit) + ":" + strconv.Itoa(page)
}
