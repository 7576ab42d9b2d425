// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package compose

import "errors"

var (
	// ErrNotConnected is returned when no live transport could be obtained.
	ErrNotConnected = errors.New("compose: session not connected")
	// ErrInvalidMessage marks a message that is missing required fields. It
	// is returned before any I/O.
	ErrInvalidMessage = errors.New("compose: invalid message")
	// ErrInvalidAddress marks a recipient that does not canonicalize.
	ErrInvalidAddress = errors.New("compose: invalid address")
)
