// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ManuGH/wabridge/internal/persistence/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS auth_documents (
	doc_key TEXT PRIMARY KEY,
	body BLOB NOT NULL,
	updated_at_ms INTEGER NOT NULL
);`

// SQLite is a Collection backed by a single document table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens, checks and migrates the database at path. A database
// that fails the quick integrity check is refused.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sqlite.Open(path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	issues, err := sqlite.Check(context.Background(), db, sqlite.Quick)
	if err == nil && issues != nil {
		err = fmt.Errorf("%w: %s", sqlite.ErrCorrupt, strings.Join(issues, "; "))
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("auth documents: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("auth documents: migration failed: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Scan(ctx context.Context, prefix string) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_key, body FROM auth_documents WHERE doc_key >= ? AND doc_key < ?`,
		prefix, prefixEnd(prefix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var key string
		var body []byte
		if err := rows.Scan(&key, &body); err != nil {
			return nil, err
		}
		out[key] = body
	}
	return out, rows.Err()
}

func (s *SQLite) Replace(ctx context.Context, prefix string, docs map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM auth_documents WHERE doc_key >= ? AND doc_key < ?`,
		prefix, prefixEnd(prefix)); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO auth_documents (doc_key, body, updated_at_ms) VALUES (?, ?, strftime('%s','now') * 1000)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for k, v := range docs {
		if _, err := stmt.ExecContext(ctx, k, v); err != nil {
			return fmt.Errorf("insert %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) DeletePrefix(ctx context.Context, prefix string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM auth_documents WHERE doc_key >= ? AND doc_key < ?`,
		prefix, prefixEnd(prefix))
	return err
}

// Ping verifies the database is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error { return s.db.Close() }
