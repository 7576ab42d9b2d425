// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package docstore keeps auth state in a key/document collection. Each
// identity owns the key range "<collection>:<identity>:" and every logical
// auth document lives under one key in that range.
package docstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/wabridge/internal/auth"
	wlog "github.com/ManuGH/wabridge/internal/log"
)

// Collection is the narrow key/document port the store writes through.
// Keys passed in and returned are full keys, prefix included.
type Collection interface {
	// Scan returns every document whose key starts with prefix.
	Scan(ctx context.Context, prefix string) (map[string][]byte, error)
	// Replace atomically swaps the documents under prefix for docs.
	Replace(ctx context.Context, prefix string, docs map[string][]byte) error
	// DeletePrefix removes every document under prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

// Connector opens a Collection for one batch of operations. The store
// closes the collection when the batch completes.
type Connector func(ctx context.Context) (Collection, error)

// Store is an auth.Store on top of a Collection.
type Store struct {
	name    string
	connect Connector
	release func() error
	logger  zerolog.Logger
}

var _ auth.Store = (*Store)(nil)

// New returns a store that connects per batch.
func New(collection string, connect Connector, logger zerolog.Logger) *Store {
	if collection == "" {
		collection = auth.Namespace
	}
	return &Store{name: collection, connect: connect, logger: logger}
}

// NewShared returns a store over a long-lived collection, for embedded
// backends that hold a file lock. Close releases it.
func NewShared(collection string, c Collection, logger zerolog.Logger) *Store {
	s := New(collection, func(context.Context) (Collection, error) { return nopCloser{c}, nil }, logger)
	s.release = c.Close
	return s
}

// Close releases a shared collection. It is a no-op for per-batch stores.
func (s *Store) Close() error {
	if s.release == nil {
		return nil
	}
	return s.release()
}

// Prefix returns the key range owned by identity.
func (s *Store) Prefix(identity string) string {
	return s.name + ":" + url.QueryEscape(identity) + ":"
}

func (s *Store) withCollection(ctx context.Context, fn func(Collection) error) error {
	c, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil {
			s.logger.Debug().Err(cerr).Msg("closing auth collection")
		}
	}()
	return fn(c)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks that the backing collection is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.withCollection(ctx, func(c Collection) error {
		if p, ok := c.(pinger); ok {
			return p.Ping(ctx)
		}
		if p, ok := c.(nopCloser); ok {
			if inner, ok := p.Collection.(pinger); ok {
				return inner.Ping(ctx)
			}
		}
		return nil
	})
}

// Load returns nil when nothing readable is stored. Connection and decode
// failures are logged and reported as an unpaired identity.
func (s *Store) Load(ctx context.Context, identity string) (*auth.Record, error) {
	if identity == "" {
		return nil, auth.ErrEmptyIdentity
	}
	logger := s.logger.With().Str(wlog.FieldIdentity, identity).Logger()
	prefix := s.Prefix(identity)

	var raw map[string][]byte
	err := s.withCollection(ctx, func(c Collection) error {
		var err error
		raw, err = c.Scan(ctx, prefix)
		return err
	})
	if err != nil {
		logger.Warn().Err(err).Msg("auth state unreadable, treating as unpaired")
		return nil, nil
	}

	docs := make(map[string][]byte, len(raw))
	for key, data := range raw {
		docs[strings.TrimPrefix(key, prefix)] = data
	}
	rec, bad := auth.RecordFromDocuments(docs)
	for _, d := range bad {
		logger.Warn().Err(d.Err).Str("document", d.Name).Msg("skipping undecodable auth document")
	}
	return rec, nil
}

// Save replaces everything stored for identity with rec.
func (s *Store) Save(ctx context.Context, identity string, rec *auth.Record) error {
	if identity == "" {
		return auth.ErrEmptyIdentity
	}
	if rec == nil {
		return s.Remove(ctx, identity)
	}
	if err := rec.Normalize(); err != nil {
		return fmt.Errorf("encode auth state: %w", err)
	}
	docs, err := rec.Documents()
	if err != nil {
		return err
	}
	prefix := s.Prefix(identity)
	keyed := make(map[string][]byte, len(docs))
	for name, data := range docs {
		keyed[prefix+name] = data
	}
	err = s.withCollection(ctx, func(c Collection) error {
		return c.Replace(ctx, prefix, keyed)
	})
	if err != nil {
		return fmt.Errorf("save auth state: %w", err)
	}
	s.logger.Debug().
		Str(wlog.FieldIdentity, identity).
		Int("documents", len(keyed)).
		Msg("auth state saved")
	return nil
}

// Remove deletes every document of identity.
func (s *Store) Remove(ctx context.Context, identity string) error {
	if identity == "" {
		return auth.ErrEmptyIdentity
	}
	err := s.withCollection(ctx, func(c Collection) error {
		return c.DeletePrefix(ctx, s.Prefix(identity))
	})
	if err != nil {
		return fmt.Errorf("remove auth state: %w", err)
	}
	return nil
}

type nopCloser struct{ Collection }

func (nopCloser) Close() error { return nil }

// prefixEnd returns the smallest key greater than every key with prefix.
func prefixEnd(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return ""
}
