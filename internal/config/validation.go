// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog"

	"github.com/ManuGH/wabridge/internal/jid"
)

// Validate reports every problem in cfg at once.
func Validate(cfg Config) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if jid.Digits(cfg.CountryCode) == "" {
		add("countryCode %q has no digits", cfg.CountryCode)
	}
	if cfg.PairingPhone != "" && jid.Digits(cfg.PairingPhone) == "" {
		add("pairingPhone %q has no digits", cfg.PairingPhone)
	}

	if cfg.Session.ConnectionAttempts < 0 {
		add("session.connectionAttempts must not be negative")
	}
	if cfg.Session.ReconnectBackoff < 0 {
		add("session.reconnectBackoff must not be negative")
	}
	if cfg.Session.ResetDelay < 0 {
		add("session.resetDelay must not be negative")
	}
	if len(cfg.Session.Browser) > 3 {
		add("session.browser takes at most 3 entries, got %d", len(cfg.Session.Browser))
	}

	switch cfg.Auth.Backend {
	case BackendFile, BackendSQLite:
		if cfg.Auth.Path == "" {
			add("auth.path is required for the %s backend", cfg.Auth.Backend)
		}
	case BackendBadger, BackendMemory:
	case BackendRedis:
		if cfg.Auth.Redis.Addr == "" {
			add("auth.redis.addr is required for the redis backend")
		}
	case "":
		add("auth.backend is required")
	default:
		add("unknown auth.backend %q", cfg.Auth.Backend)
	}

	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		add("log.level: %v", err)
	}

	if cfg.Ops.Listen != "" {
		if _, _, err := net.SplitHostPort(cfg.Ops.Listen); err != nil {
			add("ops.listen %q: %v", cfg.Ops.Listen, err)
		}
	}
	if cfg.Ops.RequestsPerMinute < 0 {
		add("ops.requestsPerMinute must not be negative")
	}

	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.Exporter != "grpc" && cfg.Telemetry.Exporter != "http" {
			add("telemetry.exporter must be grpc or http, got %q", cfg.Telemetry.Exporter)
		}
		if cfg.Telemetry.Endpoint == "" {
			add("telemetry.endpoint is required when telemetry is enabled")
		}
	}
	if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
		add("telemetry.samplingRate must be within [0,1]")
	}

	if cfg.Send.Rate < 0 || cfg.Send.PerChatRate < 0 {
		add("send rates must not be negative")
	}
	if cfg.Send.Burst < 0 || cfg.Send.PerChatBurst < 0 {
		add("send bursts must not be negative")
	}
	if cfg.Media.MaxBytes < 0 {
		add("media.maxBytes must not be negative")
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
