package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/courspresso/courspresso-web/internal/config"
)

// NewRedisClient connects and pings.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisStore keeps one hash per browser; the whole hash expires after ttl
// of inactivity.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(cfg config.RedisConfig, ttl time.Duration) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required for the redis session driver")
	}
	rdb, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisStoreFromClient(rdb, ttl), nil
}

func NewRedisStoreFromClient(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Client exposes the connection so the rate limiter can share it.
func (s *RedisStore) Client() *redis.Client { return s.rdb }

func browserKey(id string) string { return "browser:" + id }

// GetItems refreshes the hash's TTL along with the read.
func (s *RedisStore) GetItems(ctx context.Context, browserID string, keys ...string) (map[string]string, error) {
	if browserID == "" {
		return nil, ErrEmptyBrowserID
	}
	key := browserKey(browserID)
	var all *redis.MapStringStringCmd
	var some *redis.SliceCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(keys) == 0 {
			all = pipe.HGetAll(ctx, key)
		} else {
			some = pipe.HMGet(ctx, key, keys...)
		}
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if all != nil {
		return all.Val(), nil
	}
	out := map[string]string{}
	for i, v := range some.Val() {
		if str, ok := v.(string); ok {
			out[keys[i]] = str
		}
	}
	return out, nil
}

func (s *RedisStore) SetItems(ctx context.Context, browserID string, items map[string]string) error {
	if browserID == "" {
		return ErrEmptyBrowserID
	}
	if len(items) == 0 {
		return nil
	}
	key := browserKey(browserID)
	fields := make(map[string]interface{}, len(items))
	for k, v := range items {
		fields[k] = v
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	return err
}

func (s *RedisStore) RemoveItems(ctx context.Context, browserID string, keys ...string) error {
	if browserID == "" || len(keys) == 0 {
		return nil
	}
	key := browserKey(browserID)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, key, keys...)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	return err
}

func (s *RedisStore) Clear(ctx context.Context, browserID string) error {
	if browserID == "" {
		return nil
	}
	return s.rdb.Del(ctx, browserKey(browserID)).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
