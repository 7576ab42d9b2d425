// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package auth

import "errors"

var (
	// ErrNoStoreConfigured is returned when neither a file nor a document
	// store has been configured for a session.
	ErrNoStoreConfigured = errors.New("auth: no store configured")

	// ErrUnknownCategory rejects signal keys outside the protocol's key
	// categories.
	ErrUnknownCategory = errors.New("auth: unknown signal key category")

	// ErrEmptyIdentity rejects store calls without an identity.
	ErrEmptyIdentity = errors.New("auth: empty identity")
)
