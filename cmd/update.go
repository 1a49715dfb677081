/*
 * Omeka S Deploy - Update Command
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omekactl/omekactl/internal/fetch"
	"github.com/omekactl/omekactl/internal/installer"
	"github.com/omekactl/omekactl/internal/logger"
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update <component|all> [revision]",
	Short: "Update an installed module or theme",
	Long: `Re-install a module or theme at a (possibly new) revision.

The update command will:
• Remove the existing installation and replace it with a fresh download
• Resolve and install any dependencies that are still missing
• Re-run composer for components that ship a composer.json

Pass "all" to update every registered component that is currently
installed. The optional revision override applies to all of them.`,
	Args:         cobra.RangeArgs(1, 2),
	RunE:         runUpdate,
	SilenceUsage: true,
}

func runUpdate(cmd *cobra.Command, args []string) error {
	name := args[0]
	revision := ""
	if len(args) > 1 {
		revision = args[1]
	}

	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	inst := installer.NewInstaller(cfg, reg, fetch.NewFetcher(cfg))

	if name == "all" {
		results, err := inst.UpdateAll(revision)
		for _, result := range results {
			printInstallResult(result)
		}
		if err != nil {
			logger.WithFields(logger.Fields{
				"error": err,
			}).Error("Update failed")
			fmt.Printf("❌ Update failed: %v\n", err)
			return err
		}
		if len(results) == 0 {
			fmt.Println("ℹ️  No registered components are installed")
		}
		return nil
	}

	result, err := inst.Install(name, revision, true)
	if err != nil {
		logger.WithFields(logger.Fields{
			"component": name,
			"error":     err,
		}).Error("Update failed")
		fmt.Printf("❌ Update failed: %v\n", err)
		return err
	}

	printInstallResult(result)
	return nil
}
