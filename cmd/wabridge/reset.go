// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ManuGH/wabridge/internal/client"
	"github.com/ManuGH/wabridge/internal/session/manager"
)

func resetCmd(flags *rootFlags) *cobra.Command {
	var (
		repair bool
		phone  string
	)
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete stored credentials, optionally pairing again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd, flags, func(o *client.Options) {
				o.PrintQRInTerminal = repair
			})
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()

			t, err := rt.session.ResetConnection(cmd.Context(), manager.ResetOptions{
				PairingPhone:       phone,
				DisableAutoConnect: !repair,
			})
			if err != nil {
				return fmt.Errorf("reset: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "credentials removed for %s\n", rt.session.Identity())
			if t != nil {
				if u := t.User(); u != nil {
					fmt.Fprintf(out, "paired as %s (%s)\n", u.Name, u.ID)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&repair, "pair", false, "start a fresh pairing after the reset")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number for the fresh pairing code")
	return cmd
}
