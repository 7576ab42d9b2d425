// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/wabridge/internal/client"
	wlog "github.com/ManuGH/wabridge/internal/log"
	"github.com/ManuGH/wabridge/internal/ops"
	"github.com/ManuGH/wabridge/internal/session/manager"
	"github.com/ManuGH/wabridge/internal/session/model"
	"github.com/ManuGH/wabridge/internal/session/ports"
)

func serveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Keep the session connected and expose health and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inbound := wlog.WithComponent("inbound")
			rt, err := setup(cmd, flags, func(o *client.Options) {
				o.Callbacks.OnReceiveMessages = func(batch ports.MessagesReceived) {
					for _, m := range batch.Messages {
						inbound.Info().
							Str(wlog.FieldJID, m.Chat).
							Str(wlog.FieldMessageID, m.ID).
							Str("kind", batch.Kind).
							Msg("message received")
					}
				}
			})
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()
			return serve(cmd.Context(), rt)
		},
	}
}

func serve(ctx context.Context, rt *runtime) error {
	health := ops.NewHealth(version, wlog.WithComponent("ops"))
	health.Register(ops.SessionsChecker{Snapshot: func() map[string]model.SessionState {
		states := make(map[string]model.SessionState)
		client.DefaultRegistry.Each(func(identity string, s *client.Session) {
			states[identity] = s.State()
		})
		return states
	}})

	if p, ok := rt.session.Store().(interface{ Ping(context.Context) error }); ok {
		health.Register(ops.CheckFunc{CheckName: "auth_store", Fn: p.Ping})
	}

	g, ctx := errgroup.WithContext(ctx)
	if rt.cfg.Ops.Listen != "" {
		srv := ops.NewServer(ops.Config{
			Listen:            rt.cfg.Ops.Listen,
			RequestsPerMinute: rt.cfg.Ops.RequestsPerMinute,
		}, health, wlog.WithComponent("ops"))
		g.Go(func() error { return srv.Run(ctx) })
	}
	g.Go(func() error {
		if _, err := rt.session.Start(ctx, manager.StartOptions{}); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("start session: %w", err)
		}
		rt.logger.Info().Str(wlog.FieldIdentity, rt.session.Identity()).Msg("session open")
		<-ctx.Done()
		return nil
	})
	return g.Wait()
}
