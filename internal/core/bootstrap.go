/*
 * Omeka S Deploy - Core Bootstrapper
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/omekactl/omekactl/internal/archive"
	"github.com/omekactl/omekactl/internal/config"
	"github.com/omekactl/omekactl/internal/database"
	"github.com/omekactl/omekactl/internal/errors"
	"github.com/omekactl/omekactl/internal/fetch"
	"github.com/omekactl/omekactl/internal/fsutil"
	"github.com/omekactl/omekactl/internal/logger"
	"github.com/omekactl/omekactl/internal/registry"
)

// State is the bootstrapper's position in its install sequence
type State string

const (
	StateAbsent             State = "absent"
	StateVersionResolving   State = "version_resolving"
	StateWaitingForDatabase State = "waiting_for_database"
	StateInstalling         State = "installing"
	StateInstalled          State = "installed"
	StateFailed             State = "failed"
)

// VersionLatest is the sentinel that selects the newest tagged release
const VersionLatest = "latest"

// localConfigTemplate is the minimal override configuration written on
// first install, never overwritten afterwards.
const localConfigTemplate = `<?php
return [
    'logger' => [
        'log' => false,
    ],
];
`

// Bootstrapper installs the application core on first run. It is
// idempotent across restarts: a present core marker short-circuits the
// whole sequence, and a failed install leaves the marker absent so the
// next run retries from scratch.
type Bootstrapper struct {
	config  *config.Config
	fetcher *fetch.Fetcher
	logger  *logger.Logger

	state State

	// injectable for tests
	ping         database.PingFunc
	waitInterval time.Duration
	waitAttempts int
}

// NewBootstrapper creates a core bootstrapper with the fixed database
// poll policy (30 attempts, 2 seconds apart).
func NewBootstrapper(cfg *config.Config, fetcher *fetch.Fetcher) *Bootstrapper {
	dsn := database.DSN(cfg)
	return &Bootstrapper{
		config:  cfg,
		fetcher: fetcher,
		logger:  logger.GetDefault(),
		state:   StateAbsent,
		ping: func(ctx context.Context) error {
			return database.Ping(ctx, dsn)
		},
		waitInterval: 2 * time.Second,
		waitAttempts: 30,
	}
}

// State returns the bootstrapper's current state
func (b *Bootstrapper) State() State {
	return b.state
}

// Run executes the bootstrap sequence for the requested version (or the
// "latest" sentinel).
func (b *Bootstrapper) Run(ctx context.Context, version string) error {
	if fsutil.Exists(b.config.CoreMarkerPath()) {
		b.state = StateInstalled
		b.logger.WithFields(logger.Fields{
			"marker": b.config.CoreMarkerPath(),
		}).Info("Core already installed, nothing to do")
		return nil
	}

	if err := b.ensureLayout(); err != nil {
		b.state = StateFailed
		return err
	}

	b.state = StateVersionResolving
	resolved, err := b.resolveVersion(version)
	if err != nil {
		b.state = StateFailed
		return err
	}

	b.state = StateWaitingForDatabase
	b.logger.WithFields(logger.Fields{
		"host": b.config.DBHost,
		"port": b.config.DBPort,
	}).Info("Waiting for database")
	if err := database.Wait(ctx, b.ping, b.waitInterval, b.waitAttempts); err != nil {
		b.state = StateFailed
		return err
	}

	b.state = StateInstalling
	if err := b.installCore(resolved); err != nil {
		b.state = StateFailed
		return err
	}

	b.state = StateInstalled
	b.logger.WithFields(logger.Fields{
		"version": resolved,
		"root":    b.config.AppRoot,
	}).Info("Core installed")
	return nil
}

// ensureLayout creates the fixed application directories before any
// install logic runs.
func (b *Bootstrapper) ensureLayout() error {
	dirs := []string{
		b.config.FilesDir(),
		b.config.SideloadDir(),
		b.config.ModulesDir(),
		b.config.ThemesDir(),
		b.config.ConfigDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.WrapFileSystemError(err, "bootstrap_layout",
				fmt.Sprintf("failed to create directory: %s", dir))
		}
	}
	return nil
}

// resolveVersion turns the "latest" sentinel into a concrete release tag
func (b *Bootstrapper) resolveVersion(version string) (string, error) {
	if version != VersionLatest {
		return version, nil
	}

	tag, err := b.fetcher.LatestRelease(b.config.CoreRepo)
	if err != nil {
		return "", err
	}

	b.logger.WithFields(logger.Fields{
		"repo": b.config.CoreRepo,
		"tag":  tag,
	}).Info("Resolved latest core release")
	return tag, nil
}

// coreEntry builds the pseudo registry entry the fetcher needs for the
// application core itself. The core is not part of the component registry.
func coreEntry(cfg *config.Config, revision string) registry.ComponentEntry {
	return registry.ComponentEntry{
		Name:     "omeka-s",
		Kind:     registry.KindModule,
		Host:     registry.HostGitHub,
		Repo:     cfg.CoreRepo,
		Revision: revision,
	}
}

// installCore downloads and unpacks the core release into the application
// root, then writes the database descriptor and local configuration. Any
// failure leaves the core marker absent.
func (b *Bootstrapper) installCore(version string) error {
	res, err := b.fetcher.Fetch(coreEntry(b.config, version), "")
	if err != nil {
		return err
	}
	defer res.Cleanup()

	extracted, err := archive.Extract(res, "omeka-s")
	if err != nil {
		return err
	}
	defer extracted.Cleanup()

	// Merge into the root rather than move: the layout directories
	// created above must survive alongside the release's own files.
	if err := fsutil.CopyDir(extracted.DirectoryPath, b.config.AppRoot); err != nil {
		return errors.WrapFileSystemError(err, "install_core",
			"failed to copy core release into application root")
	}

	if err := fsutil.NormalizeTree(b.config.AppRoot, b.config.OwnerUID, b.config.OwnerGID); err != nil {
		return errors.WrapFileSystemError(err, "install_core",
			"failed to normalize ownership of application root")
	}

	if err := database.WriteINI(b.config, b.config.DatabaseINIPath()); err != nil {
		return err
	}

	return b.writeLocalConfig()
}

// writeLocalConfig writes the local override configuration, only if absent
func (b *Bootstrapper) writeLocalConfig() error {
	path := b.config.LocalConfigPath()
	if fsutil.Exists(path) {
		b.logger.WithFields(logger.Fields{
			"path": path,
		}).Debug("Local configuration already present, leaving untouched")
		return nil
	}

	if err := os.WriteFile(path, []byte(localConfigTemplate), 0644); err != nil {
		return errors.WrapFileSystemError(err, "install_core",
			fmt.Sprintf("failed to write local configuration: %s", path))
	}
	return nil
}
