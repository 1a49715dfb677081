/*
 * Omeka S Deploy - Install Command
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/omekactl/omekactl/internal/errors"
	"github.com/omekactl/omekactl/internal/fetch"
	"github.com/omekactl/omekactl/internal/installer"
	"github.com/omekactl/omekactl/internal/logger"
	"github.com/omekactl/omekactl/internal/registry"
)

// installCmd represents the install command
var installCmd = &cobra.Command{
	Use:   "install <component|list> [revision]",
	Short: "Install a module or theme",
	Long: `Install a registered module or theme, plus any unmet dependencies.

The install command will:
• Look the component up in the registry
• Install missing dependencies first, in declared order
• Download the archive, trying the revision as a branch and then a tag
• Place the component under the application root with normalized ownership
• Run composer for components that ship a composer.json

An already-installed component is skipped; use update to replace it.
Pass "list" instead of a component name to enumerate the registry.`,
	Args:         cobra.RangeArgs(1, 2),
	RunE:         runInstall,
	SilenceUsage: true,
}

func runInstall(cmd *cobra.Command, args []string) error {
	name := args[0]
	revision := ""
	if len(args) > 1 {
		revision = args[1]
	}

	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	if name == "list" {
		printRegistry(reg)
		return nil
	}

	inst := installer.NewInstaller(cfg, reg, fetch.NewFetcher(cfg))

	result, err := inst.Install(name, revision, false)
	if err != nil {
		logger.WithFields(logger.Fields{
			"component": name,
			"error":     err,
		}).Error("Install failed")

		if errors.IsType(err, errors.ErrTypeRegistry) {
			fmt.Printf("❌ Unknown component: %s\n", name)
			fmt.Printf("💡 Run 'omekactl install list' to see available components\n")
		} else {
			fmt.Printf("❌ Install failed: %v\n", err)
		}

		return err
	}

	printInstallResult(result)
	return nil
}

func printInstallResult(result *installer.InstallResult) {
	switch result.Status {
	case installer.StatusSkipped:
		fmt.Printf("ℹ️  %s is already installed\n", result.Name)
	case installer.StatusInstalledWithWarnings:
		fmt.Printf("⚠️  %s installed with warnings:\n", result.Name)
		for _, warning := range result.Warnings {
			fmt.Printf("   %s\n", warning)
		}
	default:
		fmt.Printf("✅ %s installed successfully\n", result.Name)
	}
}

func printRegistry(reg *registry.Registry) {
	fmt.Printf("Registered components (%d):\n", reg.Len())
	for _, name := range reg.Names() {
		entry, err := reg.Lookup(name)
		if err != nil {
			continue
		}
		line := fmt.Sprintf("  %-20s %-7s %s/%s@%s", entry.Name, entry.Kind, entry.Host, entry.Repo, entry.Revision)
		if len(entry.Dependencies) > 0 {
			line += fmt.Sprintf(" (requires %s)", strings.Join(entry.Dependencies, ", "))
		}
		fmt.Println(line)
	}
}
