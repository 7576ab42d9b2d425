// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command wabridge pairs, drives and serves messaging sessions.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

type rootFlags struct {
	configPath string
	driver     string
	dryRun     bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "wabridge",
		Short:         "Session lifecycle and message composition bridge",
		Version:       version + " (commit: " + commit + ", built: " + buildDate + ")",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config file (YAML)")
	root.PersistentFlags().StringVar(&flags.driver, "driver", "", "registered transport driver")
	root.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "use the in-memory transport that pairs instantly")

	root.AddCommand(pairCmd(flags), sendCmd(flags), resetCmd(flags), serveCmd(flags))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
