// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrCorrupt reports a failed integrity check.
var ErrCorrupt = errors.New("sqlite: database failed integrity check")

// Mode selects the integrity pragma.
type Mode string

const (
	// Quick runs PRAGMA quick_check.
	Quick Mode = "quick"
	// Full runs PRAGMA integrity_check.
	Full Mode = "full"
)

// Check runs an integrity check on db. It returns nil for a healthy
// database and the diagnostic rows otherwise.
func Check(ctx context.Context, db *sql.DB, mode Mode) ([]string, error) {
	pragma := "PRAGMA quick_check;"
	if mode == Full {
		pragma = "PRAGMA integrity_check;"
	}

	rows, err := db.QueryContext(ctx, pragma)
	if err != nil {
		return nil, fmt.Errorf("integrity pragma failed: %w", err)
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var res string
		if err := rows.Scan(&res); err != nil {
			return nil, fmt.Errorf("failed to scan integrity result row: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("integrity check: %w", err)
	}

	// success is exactly one "ok" row
	if len(results) == 1 && strings.EqualFold(results[0], "ok") {
		return nil, nil
	}
	if len(results) == 0 {
		return []string{"no results returned from integrity check"}, nil
	}
	return results, nil
}

// VerifyIntegrity opens the database at path read-only and checks it.
func VerifyIntegrity(ctx context.Context, path string, mode Mode) ([]string, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(2000)", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database for verification: %w", err)
	}
	defer db.Close()
	return Check(ctx, db, mode)
}
