// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ManuGH/wabridge/internal/compose"
	"github.com/ManuGH/wabridge/internal/compose/mediasrc"
	"github.com/ManuGH/wabridge/internal/session/ports"
)

type sendFlags struct {
	file    string
	url     string
	caption string
	replyTo string
	buttons []string
}

func sendCmd(flags *rootFlags) *cobra.Command {
	sf := &sendFlags{}
	cmd := &cobra.Command{
		Use:   "send <to> [text]",
		Short: "Send a text, quick-reply or file message",
		Long: "Send a message to a contact number or group id. With --file or --url the\n" +
			"attachment is sent and the text becomes its caption.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, text := args[0], ""
			if len(args) > 1 {
				text = args[1]
			}
			msg, err := sf.build(text)
			if err != nil {
				return err
			}

			rt, err := setup(cmd, flags, nil)
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()

			sent, err := msg(cmd, rt.session.Messages(), to)
			if err != nil {
				return fmt.Errorf("send: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %s\n", sent.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&sf.file, "file", "", "attach a local file")
	cmd.Flags().StringVar(&sf.url, "url", "", "attach a file fetched from an http(s) URL")
	cmd.Flags().StringVar(&sf.caption, "caption", "", "attachment caption (defaults to the text)")
	cmd.Flags().StringVar(&sf.replyTo, "reply-to", "", "message id to quote")
	cmd.Flags().StringSliceVar(&sf.buttons, "button", nil, "quick reply option label (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("file", "url", "button")
	return cmd
}

type sendFunc func(cmd *cobra.Command, c *compose.Composer, to string) (ports.SentMessage, error)

func (sf *sendFlags) build(text string) (sendFunc, error) {
	switch {
	case sf.file != "" || sf.url != "":
		src := mediasrc.Source{URL: sf.url}
		if sf.file != "" {
			// #nosec G304 -- the operator names the file on the command line
			data, err := os.ReadFile(sf.file)
			if err != nil {
				return nil, fmt.Errorf("read attachment: %w", err)
			}
			src = mediasrc.Source{Data: data, FileName: filepath.Base(sf.file)}
		}
		caption := sf.caption
		if caption == "" {
			caption = text
		}
		return func(cmd *cobra.Command, c *compose.Composer, to string) (ports.SentMessage, error) {
			return c.SendFile(cmd.Context(), to, compose.File{Source: src, Caption: caption})
		}, nil
	case len(sf.buttons) > 0:
		if text == "" {
			return nil, errors.New("quick reply buttons need a text")
		}
		return func(cmd *cobra.Command, c *compose.Composer, to string) (ports.SentMessage, error) {
			return c.SendReplyButtons(cmd.Context(), to, compose.ReplyButtons{
				Title:   text,
				Options: compose.Options(sf.buttons...),
			})
		}, nil
	default:
		if text == "" {
			return nil, errors.New("nothing to send: pass a text, --file or --url")
		}
		return func(cmd *cobra.Command, c *compose.Composer, to string) (ports.SentMessage, error) {
			return c.SendText(cmd.Context(), to, text, sf.replyTo)
		}, nil
	}
}
