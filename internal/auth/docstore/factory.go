// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package docstore

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ManuGH/wabridge/internal/auth"
)

// Backend names accepted by Open.
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config selects and configures a document backend.
type Config struct {
	Backend    string
	Collection string // key namespace, defaults to auth.Namespace
	Path       string // sqlite file or badger directory
	Redis      RedisConfig
}

// Open creates a Store for the configured backend.
func Open(cfg Config, logger zerolog.Logger) (*Store, error) {
	logger = logger.With().Str("backend", cfg.Backend).Logger()

	switch cfg.Backend {
	case "":
		return nil, auth.ErrNoStoreConfigured
	case BackendMemory:
		return NewShared(cfg.Collection, NewMemory(), logger), nil
	case BackendRedis:
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("redis backend: %w: missing address", auth.ErrNoStoreConfigured)
		}
		return New(cfg.Collection, Guarded(RedisConnector(cfg.Redis), redisBreaker(cfg.Redis.Addr)), logger), nil
	case BackendSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite backend: %w: missing path", auth.ErrNoStoreConfigured)
		}
		c, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		return NewShared(cfg.Collection, c, logger), nil
	case BackendBadger:
		c, err := OpenBadger(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("badger backend: %w", err)
		}
		return NewShared(cfg.Collection, c, logger), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}
