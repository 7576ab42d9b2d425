// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package auth

import "context"

// Store persists one Record per identity.
//
// Load returns (nil, nil) for an identity that has no readable state; read
// and parse failures are treated as "never paired" and only logged.
// Save replaces the stored record and normalizes rec in place (see
// Record.Normalize), so rec equals what a later Load returns. Remove deletes everything stored for the
// identity; removing an absent identity is not an error.
type Store interface {
	Load(ctx context.Context, identity string) (*Record, error)
	Save(ctx context.Context, identity string, rec *Record) error
	Remove(ctx context.Context, identity string) error
}
