/*
 * Omeka S Deploy - Root Command
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/omekactl/omekactl/internal/config"
	"github.com/omekactl/omekactl/internal/logger"
	"github.com/omekactl/omekactl/internal/registry"
)

var cfg *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "omekactl",
	Short: "omekactl - Install and update Omeka S, its modules, and themes",
	Long: `omekactl manages an Omeka S deployment: the application core and the
plugin modules and themes installed from GitHub and GitLab releases.

Features:
• Install modules and themes with automatic dependency resolution
• Update installed components to new revisions
• Bootstrap the application core on first container start
• Replace the core with a new release, preserving user data
• Dry-run support for core updates

The tool assumes exclusive access to the application root. Do not run two
install or update operations against the same deployment concurrently.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentPreRunE = initializeConfig
	cfg = config.NewConfig()

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfg.AppRoot, "root", cfg.AppRoot, "Application root directory")
	rootCmd.PersistentFlags().StringVar(&cfg.RegistryFile, "registry", "", "Component registry file (default is the built-in table)")

	// Add subcommands
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(updateCoreCmd)
	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeConfig initializes the configuration and logging
func initializeConfig(cmd *cobra.Command, args []string) error {
	// Explicit flags win over the environment.
	flagRoot := cfg.AppRoot
	flagRegistry := cfg.RegistryFile

	if err := cfg.LoadFromEnv(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if rootCmd.PersistentFlags().Changed("root") {
		cfg.AppRoot = flagRoot
	}
	if rootCmd.PersistentFlags().Changed("registry") {
		cfg.RegistryFile = flagRegistry
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logDir := ""
	if cfg.Verbose || cfg.Debug {
		logDir = filepath.Join(cfg.AppRoot, "logs")
	}

	if err := logger.Init(cfg.Debug, logDir); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	logger.WithFields(logger.Fields{
		"config": map[string]interface{}{
			"app_root": cfg.AppRoot,
			"registry": cfg.RegistryFile,
			"db_host":  cfg.DBHost,
			"debug":    cfg.Debug,
		},
	}).Debug("Configuration loaded")

	return nil
}

// GetConfig returns the current configuration
func GetConfig() *config.Config {
	return cfg
}

// loadRegistry loads the component registry per the current configuration
func loadRegistry() (*registry.Registry, error) {
	return registry.Load(cfg.RegistryFile)
}
