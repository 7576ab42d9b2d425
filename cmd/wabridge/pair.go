// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ManuGH/wabridge/internal/client"
	"github.com/ManuGH/wabridge/internal/jid"
)

func pairCmd(flags *rootFlags) *cobra.Command {
	var phone string
	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Pair the session by QR code or pairing code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			rt, err := setup(cmd, flags, func(o *client.Options) {
				if phone != "" {
					o.PairingPhone = phone
				}
				o.PrintQRInTerminal = true
				o.Callbacks.OnQR = func(qr, code string) {
					if code != "" {
						fmt.Fprintf(out, "pairing code: %s\n", code)
					}
				}
			})
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()

			t, err := rt.connect(cmd.Context())
			if err != nil {
				return fmt.Errorf("pair: %w", err)
			}
			user := t.User()
			if user == nil {
				return fmt.Errorf("pair: connection opened without a user")
			}
			fmt.Fprintf(out, "paired as %s (%s)\n", user.Name, user.ID)
			number, _, _ := strings.Cut(jid.User(user.ID), ":")
			fmt.Fprintf(out, "chat link: %s\n", jid.BuildDeepLink(number, ""))
			return nil
		},
	}
	cmd.Flags().StringVar(&phone, "phone", "", "phone number to request a pairing code for")
	return cmd
}
