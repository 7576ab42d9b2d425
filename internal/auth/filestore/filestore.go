// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package filestore keeps auth state as one JSON file per logical key in a
// directory per identity.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/ManuGH/wabridge/internal/auth"
	wlog "github.com/ManuGH/wabridge/internal/log"
)

const fileExt = ".json"

// Store is a directory-backed auth.Store.
type Store struct {
	root   string
	logger zerolog.Logger
}

var _ auth.Store = (*Store)(nil)

// New returns a store rooted at dir. The directory is created lazily on the
// first Save.
func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, auth.ErrNoStoreConfigured
	}
	return &Store{
		root:   filepath.Clean(dir),
		logger: wlog.WithComponent("auth.file"),
	}, nil
}

// Dir returns the directory holding the state of identity. It is always a
// direct child of the root.
func (s *Store) Dir(identity string) string {
	return filepath.Join(s.root, dirName(identity))
}

// dirName escapes identity into one path segment. PathEscape keeps dots, so
// dot-only names are spelled out to avoid resolving to the root or its parent.
func dirName(identity string) string {
	name := url.PathEscape(identity)
	if strings.Trim(name, ".") == "" {
		return strings.ReplaceAll(name, ".", "%2E")
	}
	return name
}

// Load reads every document of identity. A missing directory, or one
// holding nothing readable, yields nil.
func (s *Store) Load(ctx context.Context, identity string) (*auth.Record, error) {
	if identity == "" {
		return nil, auth.ErrEmptyIdentity
	}
	dir := s.Dir(identity)
	logger := s.logger.With().Str(wlog.FieldIdentity, identity).Logger()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn().Err(err).Str(wlog.FieldPath, dir).Msg("auth dir unreadable, treating as unpaired")
		}
		return nil, nil
	}

	docs := make(map[string][]byte, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, ok := strings.CutSuffix(e.Name(), fileExt)
		if !ok || e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			logger.Warn().Err(err).Str("document", name).Msg("skipping unreadable auth file")
			continue
		}
		docs[name] = data
	}

	rec, bad := auth.RecordFromDocuments(docs)
	for _, d := range bad {
		logger.Warn().Err(d.Err).Str("document", d.Name).Msg("skipping undecodable auth file")
	}
	return rec, nil
}

// Save writes every document of rec atomically and removes files of keys no
// longer present.
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

	dir := s.Dir(identity)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create auth dir: %w", err)
	}

	for name, data := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(dir, name+fileExt)
		if err := renameio.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("write auth file %s: %w", name, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list auth dir: %w", err)
	}
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), fileExt)
		if !ok || e.IsDir() {
			continue
		}
		if _, keep := docs[name]; keep {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale auth file %s: %w", name, err)
		}
	}

	s.logger.Debug().
		Str(wlog.FieldIdentity, identity).
		Int("documents", len(docs)).
		Msg("auth state saved")
	return nil
}

// Remove deletes the identity directory. A missing directory is not an error.
func (s *Store) Remove(_ context.Context, identity string) error {
	if identity == "" {
		return auth.ErrEmptyIdentity
	}
	if err := os.RemoveAll(s.Dir(identity)); err != nil {
		return fmt.Errorf("remove auth dir: %w", err)
	}
	return nil
}
