/*
 * Omeka S Deploy - Version Command
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags
var Version = "dev"

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the omekactl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("omekactl %s\n", Version)
	},
}
