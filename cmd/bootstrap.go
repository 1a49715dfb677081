/*
 * Omeka S Deploy - Bootstrap Command
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omekactl/omekactl/internal/core"
	"github.com/omekactl/omekactl/internal/fetch"
	"github.com/omekactl/omekactl/internal/logger"
)

// bootstrapCmd represents the bootstrap command, run by the container
// entrypoint on every start.
var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap [version]",
	Short: "Install the application core on first run",
	Long: `Install the Omeka S core if it is not present yet.

The bootstrap command will:
• Short-circuit when the core is already installed (safe across restarts)
• Resolve the "latest" sentinel to the newest tagged release
• Wait for the database to become reachable (30 attempts, 2s apart)
• Install the core and write the database descriptor and local config

A failed install leaves no core marker behind, so the next container
start retries from scratch. The version defaults to "latest".`,
	Args:         cobra.MaximumNArgs(1),
	RunE:         runBootstrap,
	SilenceUsage: true,
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	version := core.VersionLatest
	if len(args) > 0 {
		version = args[0]
	}

	bootstrapper := core.NewBootstrapper(cfg, fetch.NewFetcher(cfg))

	if err := bootstrapper.Run(context.Background(), version); err != nil {
		logger.WithFields(logger.Fields{
			"version": version,
			"state":   bootstrapper.State(),
			"error":   err,
		}).Error("Bootstrap failed")
		fmt.Printf("❌ Bootstrap failed in state %s: %v\n", bootstrapper.State(), err)
		return err
	}

	fmt.Printf("✅ Core ready at %s\n", cfg.AppRoot)
	return nil
}
