// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package client

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/wabridge/internal/auth"
	"github.com/ManuGH/wabridge/internal/auth/docstore"
	"github.com/ManuGH/wabridge/internal/compose/mediasrc"
	"github.com/ManuGH/wabridge/internal/ratelimit"
	"github.com/ManuGH/wabridge/internal/session/manager"
	"github.com/ManuGH/wabridge/internal/session/model"
	"github.com/ManuGH/wabridge/internal/session/ports"
)

// Options configures a Session. Exactly one credential location is used:
// Store if set, else Documents, else AuthDir.
type Options struct {
	AppName      string
	PairingPhone string
	CountryCode  string

	// AuthDir is the root of the file credential store.
	AuthDir string
	// Documents selects a document credential store.
	Documents *docstore.Config
	// Store overrides both locations.
	Store auth.Store

	Dialer  ports.Dialer
	Browser [3]string

	// ConnectionAttempts follows manager.Options: zero selects the default,
	// manager.NoReconnect disables reconnects.
	ConnectionAttempts int
	ReconnectBackoff   time.Duration
	ResetDelay         time.Duration
	PrintQRInTerminal  bool
	QRWriter           io.Writer

	Callbacks manager.Callbacks

	Limiter  *ratelimit.Limiter
	Resolver *mediasrc.Resolver
	Prober   mediasrc.Prober

	Logger *zerolog.Logger
	// Sleep replaces the reconnect wait; tests use it.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (o Options) storeName() string {
	if o.Documents != nil {
		if o.Documents.Collection != "" {
			return o.Documents.Collection
		}
		return o.Documents.Path
	}
	return o.AuthDir
}

// Identity is the registry key for o: the app name, else the pairing
// phone, else the store location, else "default".
func (o Options) Identity() string {
	return model.DeriveIdentity(o.AppName, o.PairingPhone, o.storeName())
}
