package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore is a Store backed by go-redis. Every operation swallows its
// error after logging it: the caller falls back to the database as if the
// key were simply absent.
type RedisStore struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisStore builds a RedisStore. It does not ping the server; a
// misconfigured or unreachable backend surfaces as cache misses at read
// time rather than as a startup failure.
func NewRedisStore(addr, password string, db int, log *zap.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: client, log: log}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return val, true
}

func (s *RedisStore) Put(ctx context.Context, key, value string, ttl time.Duration) {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.log.Warn("cache put failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *RedisStore) Forget(ctx context.Context, key string) {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.log.Warn("cache forget failed", zap.String("key", key), zap.Error(err))
	}
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
