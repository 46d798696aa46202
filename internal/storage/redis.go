package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore marks start URLs that were scraped recently, so duplicate job
// submissions can be rejected unless forced.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(addr string, ttl time.Duration) *RedisStore {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisStore{client: rdb, ttl: ttl}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) MarkScraped(ctx context.Context, url string) error {
	return s.client.Set(ctx, scrapedKey(url), "1", s.ttl).Err()
}

func (s *RedisStore) IsRecentlyScraped(ctx context.Context, url string) (bool, error) {
	n, err := s.client.Exists(ctx, scrapedKey(url)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ClearScraped removes the marker, used by forced rescrapes.
func (s *RedisStore) ClearScraped(ctx context.Context, url string) error {
	return s.client.Del(ctx, scrapedKey(url)).Err()
}

func scrapedKey(url string) string {
	return fmt.Sprintf("scraped:%s", url)
}
