package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis. Failures degrade to cache misses.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil || len(b) == 0 {
		return nil, false
	}
	return b, true
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte) {
	_ = s.rdb.Set(ctx, key, val, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) {
	_ = s.rdb.Del(ctx, key).Err()
}

// DeletePrefix walks matching keys with SCAN so a large keyspace never blocks Redis.
func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) {
	var cursor uint64
	for {
		keys, cur, err := s.rdb.Scan(ctx, cursor, prefix+"*", 200).Result()
		if err != nil {
			return
		}
		if len(keys) > 0 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				return
			}
		}
		cursor = cur
		if cursor == 0 {
			return
		}
	}
}

// Version reads a plain integer key written by Bump. The key carries no TTL.
func (s *RedisStore) Version(ctx context.Context, key string) (int64, bool) {
	v, err := s.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		return 0, false
	}
	return v, true
}

func (s *RedisStore) Bump(ctx context.Context, key string) bool {
	return s.rdb.Incr(ctx, key).Err() == nil
}
