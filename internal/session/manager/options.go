// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/wabridge/internal/auth"
	"github.com/ManuGH/wabridge/internal/session/model"
	"github.com/ManuGH/wabridge/internal/session/ports"
)

const (
	DefaultConnectionAttempts = 3
	DefaultReconnectBackoff   = 3 * time.Second
	DefaultResetDelay         = 2 * time.Second

	// NoReconnect as a ConnectionAttempts value allows the initial dial
	// only. Zero cannot express this because it selects the default.
	NoReconnect = -1
)

// Callbacks are invoked by the manager. All but OnReceiveMessages run on the
// connection loop goroutine; a slow callback delays further events.
type Callbacks struct {
	OnOpen                           func(t ports.Transport)
	OnClose                          func(reason model.DisconnectReason, err error)
	OnConnectionStatusChange         func(status model.Status)
	OnQR                             func(qr, pairingCode string)
	OnReceiveMessages                func(batch ports.MessagesReceived)
	OnPreConnectionSendMessageFailed func(err error)
}

// Options configures a Manager.
type Options struct {
	Identity string
	Store    auth.Store
	Dialer   ports.Dialer

	PairingPhone string
	Browser      [3]string

	// ConnectionAttempts is the number of reconnects after a retryable
	// close. Zero selects DefaultConnectionAttempts; NoReconnect (or any
	// negative value) disables reconnects.
	ConnectionAttempts int
	ReconnectBackoff   time.Duration
	ResetDelay         time.Duration

	PrintQRInTerminal bool
	QRWriter          io.Writer

	Callbacks Callbacks
	Logger    *zerolog.Logger

	// Sleep waits between attempts; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// StartOptions overrides Options for one Start.
type StartOptions struct {
	// ConnectionAttempts of zero keeps Options.ConnectionAttempts. Pass
	// NoReconnect for a single dial without reconnects.
	ConnectionAttempts int
	PairingPhone       string
}

// ResetOptions controls ResetConnection.
type ResetOptions struct {
	PairingPhone       string
	DisableAutoConnect bool
}

func (o *Options) setDefaults() {
	if o.Identity == "" {
		o.Identity = model.DefaultIdentity
	}
	if o.ConnectionAttempts == 0 {
		o.ConnectionAttempts = DefaultConnectionAttempts
	}
	if o.ReconnectBackoff < 0 {
		o.ReconnectBackoff = 0
	}
	if o.ResetDelay < 0 {
		o.ResetDelay = 0
	}
	if o.Sleep == nil {
		o.Sleep = sleepCtx
	}
}

func attemptsBudget(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
