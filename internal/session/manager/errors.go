// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import "errors"

var (
	// ErrConnectionClosed resolves Start when the session settled to
	// disconnected without opening.
	ErrConnectionClosed = errors.New("session: connection closed")
	// ErrSessionClosed resolves pending Start calls interrupted by Close.
	ErrSessionClosed = errors.New("session: closed")
	// ErrNoDialer rejects a manager without a transport dialer.
	ErrNoDialer = errors.New("session: no transport dialer configured")
)
