// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package client

import (
	"golang.org/x/time/rate"

	"github.com/ManuGH/wabridge/internal/auth/docstore"
	"github.com/ManuGH/wabridge/internal/compose/mediasrc"
	"github.com/ManuGH/wabridge/internal/config"
	"github.com/ManuGH/wabridge/internal/platform/httpx"
	"github.com/ManuGH/wabridge/internal/ratelimit"
	"github.com/ManuGH/wabridge/internal/session/manager"
	"github.com/ManuGH/wabridge/internal/session/ports"
)

// FromConfig maps the loaded configuration onto session options.
func FromConfig(cfg config.Config, dialer ports.Dialer) Options {
	opts := Options{
		AppName:            cfg.AppName,
		PairingPhone:       cfg.PairingPhone,
		CountryCode:        cfg.CountryCode,
		Dialer:             dialer,
		Browser:            cfg.BrowserTuple(),
		ConnectionAttempts: attempts(cfg.Session.ConnectionAttempts),
		ReconnectBackoff:   cfg.Session.ReconnectBackoff,
		ResetDelay:         cfg.Session.ResetDelay,
		PrintQRInTerminal:  cfg.Session.PrintQR,
	}

	switch cfg.Auth.Backend {
	case config.BackendFile:
		opts.AuthDir = cfg.Auth.Path
	default:
		opts.Documents = &docstore.Config{
			Backend:    cfg.Auth.Backend,
			Collection: cfg.Auth.Collection,
			Path:       cfg.Auth.Path,
			Redis: docstore.RedisConfig{
				Addr:     cfg.Auth.Redis.Addr,
				Password: cfg.Auth.Redis.Password,
				DB:       cfg.Auth.Redis.DB,
			},
		}
	}

	lc := ratelimit.DefaultConfig()
	lc.GlobalRate, lc.GlobalBurst = limit(cfg.Send.Rate), cfg.Send.Burst
	lc.PerChatRate, lc.PerChatBurst = limit(cfg.Send.PerChatRate), cfg.Send.PerChatBurst
	opts.Limiter = ratelimit.New(lc)

	opts.Resolver = mediasrc.NewResolver(httpx.NewClient(cfg.Media.FetchTimeout), cfg.Media.MaxBytes)
	if cfg.Media.FFProbe != "" {
		opts.Prober = mediasrc.FFProbe{Binary: cfg.Media.FFProbe}
	}
	return opts
}

// limit treats zero as unlimited.
func limit(perSecond float64) rate.Limit {
	if perSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(perSecond)
}

// attempts maps the configured reconnect count, where zero means none, onto
// the manager convention.
func attempts(n int) int {
	if n == 0 {
		return manager.NoReconnect
	}
	return n
}
