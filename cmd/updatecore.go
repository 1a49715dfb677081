/*
 * Omeka S Deploy - Update Core Command
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omekactl/omekactl/internal/core"
	"github.com/omekactl/omekactl/internal/docker"
	"github.com/omekactl/omekactl/internal/fetch"
	"github.com/omekactl/omekactl/internal/logger"
)

// updateCoreCmd represents the update-core command
var updateCoreCmd = &cobra.Command{
	Use:   "update-core <version|latest> [--dry-run]",
	Short: "Update the application core to a new release",
	Long: `Replace the Omeka S core with a new release, preserving user data.

The update-core command will:
• Verify the release exists before touching anything
• Back up config, modules, and themes into a timestamped backup set
• Replace the core files, preserving files/, sideload/, modules/, themes/,
  config/, and backups/
• Restore local configuration and installed components
• Clear caches and restart the application container

The bulk file storage is never copied or modified. There is no automatic
rollback; the manual rollback commands are printed on completion.`,
	Args:         cobra.ExactArgs(1),
	RunE:         runUpdateCore,
	SilenceUsage: true,
}

func init() {
	updateCoreCmd.Flags().Bool("dry-run", false, "Describe every step without mutating anything")
}

func runUpdateCore(cmd *cobra.Command, args []string) error {
	version := args[0]
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if dryRun {
		fmt.Println("🧪 Dry run: no files will be changed")
	}

	// The restart step degrades to a warning without a Docker daemon,
	// which is the normal case when running inside the container.
	var restarter core.ContainerRestarter
	if dockerClient, err := docker.NewClient(); err == nil {
		defer dockerClient.Close()
		restarter = dockerClient
	} else {
		logger.WithFields(logger.Fields{
			"error": err,
		}).Debug("Docker client unavailable")
	}

	updater := core.NewUpdater(cfg, fetch.NewFetcher(cfg), restarter, dryRun)

	if err := updater.Run(context.Background(), version); err != nil {
		logger.WithFields(logger.Fields{
			"version": version,
			"error":   err,
		}).Error("Core update failed")
		fmt.Printf("❌ Core update failed: %v\n", err)
		return err
	}

	if dryRun {
		fmt.Printf("✅ Dry run complete for release %s\n", version)
	} else {
		fmt.Printf("✅ Core updated to release %s\n", version)
	}
	return nil
}
