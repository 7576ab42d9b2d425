// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuGH/wabridge/internal/resilience"
)

const scanBatch = 256

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string // Redis server address (host:port)
	Password string // Redis password (optional)
	DB       int    // Redis database number
}

// RedisConnector dials a fresh client for every batch. The client is closed
// with the collection, so idle sessions hold no connections.
func RedisConnector(cfg RedisConfig) Connector {
	return func(ctx context.Context) (Collection, error) {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     2,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		return &Redis{client: client}, nil
	}
}

func redisBreaker(addr string) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker("redis:"+addr, 3, 30*time.Second,
		resilience.WithFailureFilter(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}))
}

// Guarded wraps connect so that repeated connection failures open cb and
// later batches fail fast with resilience.ErrCircuitOpen.
func Guarded(connect Connector, cb *resilience.CircuitBreaker) Connector {
	return func(ctx context.Context) (Collection, error) {
		var c Collection
		err := cb.Execute(func() error {
			var err error
			c, err = connect(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Redis is a Collection stored as plain string keys.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, globEscape(prefix)+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}

func (r *Redis) Scan(ctx context.Context, prefix string) (map[string][]byte, error) {
	keys, err := r.keys(ctx, prefix)
	if err != nil || len(keys) == 0 {
		return nil, err
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	out := make(map[string][]byte, len(keys))
	for i, v := range vals {
		// keys may vanish between SCAN and MGET
		if s, ok := v.(string); ok {
			out[keys[i]] = []byte(s)
		}
	}
	return out, nil
}

func (r *Redis) Replace(ctx context.Context, prefix string, docs map[string][]byte) error {
	existing, err := r.keys(ctx, prefix)
	if err != nil {
		return err
	}
	var stale []string
	for _, k := range existing {
		if _, ok := docs[k]; !ok {
			stale = append(stale, k)
		}
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if len(stale) > 0 {
			p.Del(ctx, stale...)
		}
		for k, v := range docs {
			p.Set(ctx, k, v, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis replace: %w", err)
	}
	return nil
}

func (r *Redis) DeletePrefix(ctx context.Context, prefix string) error {
	keys, err := r.keys(ctx, prefix)
	if err != nil || len(keys) == 0 {
		return err
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

func (r *Redis) Close() error { return r.client.Close() }

func globEscape(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
