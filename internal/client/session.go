// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package client assembles a complete session: credential store,
// connection manager, message composer and group operations.
//
// Sessions are singletons per identity within a Registry. A second Get for
// an identity that already exists returns the first Session unchanged, even
// if the options differ.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/ManuGH/wabridge/internal/auth"
	"github.com/ManuGH/wabridge/internal/auth/docstore"
	"github.com/ManuGH/wabridge/internal/auth/filestore"
	"github.com/ManuGH/wabridge/internal/compose"
	"github.com/ManuGH/wabridge/internal/group"
	wlog "github.com/ManuGH/wabridge/internal/log"
	"github.com/ManuGH/wabridge/internal/session/manager"
	"github.com/ManuGH/wabridge/internal/session/registry"
)

// DefaultRegistry is the process-wide session registry.
var DefaultRegistry = registry.New[*Session]()

// Session is one logical messaging session.
type Session struct {
	*manager.Manager

	store    auth.Store
	closer   io.Closer
	messages *compose.Composer
	groups   *group.Operations
}

// Get returns the session for opts.Identity() from reg, creating it on first
// use. A nil reg selects DefaultRegistry.
func Get(reg *registry.Registry[*Session], opts Options) (*Session, error) {
	if reg == nil {
		reg = DefaultRegistry
	}
	return reg.Get(opts.Identity(), func(identity string) (*Session, error) {
		return New(identity, opts)
	})
}

// New builds an unregistered session. Missing store configuration is
// reported before any I/O.
func New(identity string, opts Options) (*Session, error) {
	logger := wlog.WithComponent("client")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	store, closer, err := openStore(opts, logger)
	if err != nil {
		return nil, err
	}

	m, err := manager.New(manager.Options{
		Identity:           identity,
		Store:              store,
		Dialer:             opts.Dialer,
		PairingPhone:       opts.PairingPhone,
		Browser:            opts.Browser,
		ConnectionAttempts: opts.ConnectionAttempts,
		ReconnectBackoff:   opts.ReconnectBackoff,
		ResetDelay:         opts.ResetDelay,
		PrintQRInTerminal:  opts.PrintQRInTerminal,
		QRWriter:           opts.QRWriter,
		Callbacks:          opts.Callbacks,
		Logger:             opts.Logger,
		Sleep:              opts.Sleep,
	})
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}

	return &Session{
		Manager: m,
		store:   store,
		closer:  closer,
		messages: compose.New(m, compose.Config{
			CountryCode: opts.CountryCode,
			Limiter:     opts.Limiter,
			Resolver:    opts.Resolver,
			Prober:      opts.Prober,
			Logger:      opts.Logger,
		}),
		groups: group.New(m, group.Config{
			CountryCode: opts.CountryCode,
			Logger:      opts.Logger,
		}),
	}, nil
}

func openStore(opts Options, logger zerolog.Logger) (auth.Store, io.Closer, error) {
	switch {
	case opts.Store != nil:
		return opts.Store, nil, nil
	case opts.Documents != nil:
		ds, err := docstore.Open(*opts.Documents, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open document store: %w", err)
		}
		return ds, ds, nil
	case opts.AuthDir != "":
		fs, err := filestore.New(opts.AuthDir)
		if err != nil {
			return nil, nil, err
		}
		return fs, nil, nil
	default:
		return nil, nil, auth.ErrNoStoreConfigured
	}
}

// Messages returns the session's message composer.
func (s *Session) Messages() *compose.Composer { return s.messages }

// Groups returns the session's group operations.
func (s *Session) Groups() *group.Operations { return s.groups }

// Store returns the credential store backing the session.
func (s *Session) Store() auth.Store { return s.store }

// Shutdown closes the connection, waits for the connection loop to exit and
// releases a store the session opened itself.
func (s *Session) Shutdown(ctx context.Context) error {
	s.Close()
	waitErr := s.Wait(ctx)
	var closeErr error
	if s.closer != nil {
		closeErr = s.closer.Close()
	}
	return errors.Join(waitErr, closeErr)
}
