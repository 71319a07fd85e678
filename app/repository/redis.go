package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// RedisStorage keeps session values under prefix+key. A zero ttl keeps them
// until they are deleted.
type RedisStorage struct {
	cli    redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisStorage(cli redis.Cmdable, prefix string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{cli: cli, prefix: prefix, ttl: ttl}
}

func (s *RedisStorage) Load(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	values, err := s.cli.MGet(ctx, s.prefixed(keys)...).Result()
	if err != nil {
		return nil, err
	}
	for i, raw := range values {
		if raw == nil {
			continue
		}
		switch v := raw.(type) {
		case string:
			out[keys[i]] = v
		default:
			out[keys[i]] = fmt.Sprint(v)
		}
	}
	return out, nil
}

// Save writes every value inside one MULTI/EXEC block.
func (s *RedisStorage) Save(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	_, err := s.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, s.prefix+k, v, s.ttl)
		}
		return nil
	})
	return err
}

func (s *RedisStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.cli.Del(ctx, s.prefixed(keys)...).Err()
}

func (s *RedisStorage) prefixed(keys []string) []string {
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = s.prefix + key
	}
	return out
}
