// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ManuGH/wabridge/internal/client"
	"github.com/ManuGH/wabridge/internal/config"
	wlog "github.com/ManuGH/wabridge/internal/log"
	"github.com/ManuGH/wabridge/internal/session/manager"
	"github.com/ManuGH/wabridge/internal/session/ports"
	"github.com/ManuGH/wabridge/internal/telemetry"
	"github.com/ManuGH/wabridge/internal/transport/fake"
)

const dryRunDriver = "dry-run"

func init() {
	ports.RegisterDriver(dryRunDriver, fake.AutoPair(
		ports.User{ID: "000000000000@s.whatsapp.net", Name: "dry-run"},
		"dry-run-qr",
	))
}

// runtime is what every command needs: config, logger and one session.
type runtime struct {
	cfg       config.Config
	logger    zerolog.Logger
	session   *client.Session
	telemetry *telemetry.Provider
}

// setup loads configuration, configures logging and tracing and builds the
// session. tweak may adjust the session options before construction.
func setup(cmd *cobra.Command, flags *rootFlags, tweak func(*client.Options)) (*runtime, error) {
	wlog.Configure(wlog.Config{Level: "info", Output: cmd.ErrOrStderr()})

	cfg, err := config.NewLoader(flags.configPath, version).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	wlog.Reconfigure(wlog.Config{Level: cfg.Log.Level, Console: cfg.Log.Console, Output: cmd.ErrOrStderr()})
	logger := wlog.WithComponent("cli")

	dialer, err := selectDriver(flags)
	if err != nil {
		return nil, err
	}

	tp, err := telemetry.NewProvider(cmd.Context(), telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceVersion: version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	opts := client.FromConfig(cfg, dialer)
	opts.QRWriter = cmd.OutOrStdout()
	if tweak != nil {
		tweak(&opts)
	}
	sess, err := client.Get(nil, opts)
	if err != nil {
		_ = tp.Shutdown(context.WithoutCancel(cmd.Context()))
		return nil, fmt.Errorf("open session: %w", err)
	}

	logger.Debug().Str("config", cfg.String()).Msg("runtime ready")
	return &runtime{cfg: cfg, logger: logger, session: sess, telemetry: tp}, nil
}

func selectDriver(flags *rootFlags) (ports.Dialer, error) {
	name := flags.driver
	if flags.dryRun {
		name = dryRunDriver
	}
	if name == "" {
		return nil, fmt.Errorf("no transport driver selected (use --driver or --dry-run; registered: %v)", ports.Drivers())
	}
	return ports.LookupDriver(name)
}

// close shuts the session down and forgets it.
func (r *runtime) close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	err := r.session.Shutdown(ctx)
	client.DefaultRegistry.Clear(r.session.Identity())
	return errors.Join(err, r.telemetry.Shutdown(ctx))
}

// connect starts the session and fails unless it opened.
func (r *runtime) connect(ctx context.Context) (ports.Transport, error) {
	t, err := r.session.Start(ctx, manager.StartOptions{})
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, manager.ErrConnectionClosed
	}
	return t, nil
}
