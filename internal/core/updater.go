/*
 * Omeka S Deploy - Core Updater
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/omekactl/omekactl/internal/archive"
	"github.com/omekactl/omekactl/internal/config"
	"github.com/omekactl/omekactl/internal/errors"
	"github.com/omekactl/omekactl/internal/fetch"
	"github.com/omekactl/omekactl/internal/fsutil"
	"github.com/omekactl/omekactl/internal/logger"
)

// ContainerRestarter restarts the application process after an update to
// drop in-memory caches. Implemented by the docker client wrapper.
type ContainerRestarter interface {
	RestartContainer(ctx context.Context, name string) error
}

// preservedDirs under the application root survive the core replacement.
// The bulk file storage in particular is never copied or touched.
var preservedDirs = map[string]bool{
	"files":    true,
	"sideload": true,
	"modules":  true,
	"themes":   true,
	"config":   true,
	"backups":  true,
}

// strippedReleaseDirs are removed from the new release before it is copied
// in, so the release's bundled set never overrides the user's installed one.
var strippedReleaseDirs = []string{"modules", "themes", "files"}

// Updater replaces the application core with a new release. The pipeline
// is strictly linear: a failed step aborts the update and leaves whatever
// already completed in place. Rollback is manual, from the backup set
// whose path is printed on completion either way.
type Updater struct {
	config    *config.Config
	fetcher   *fetch.Fetcher
	logger    *logger.Logger
	restarter ContainerRestarter

	dryRun bool
	now    func() time.Time
}

// NewUpdater creates a core updater. restarter may be nil when no Docker
// daemon is reachable; the restart step then degrades to a warning.
func NewUpdater(cfg *config.Config, fetcher *fetch.Fetcher, restarter ContainerRestarter, dryRun bool) *Updater {
	return &Updater{
		config:    cfg,
		fetcher:   fetcher,
		logger:    logger.GetDefault(),
		restarter: restarter,
		dryRun:    dryRun,
		now:       time.Now,
	}
}

// mutate runs a mutating pipeline step. In dry-run mode the step's
// message is emitted unchanged but the mutation itself is skipped, so a
// dry run and a real run produce the same step sequence.
func (u *Updater) mutate(message string, fn func() error) error {
	u.logger.WithFields(logger.Fields{
		"dry_run": u.dryRun,
	}).Info(message)
	if u.dryRun {
		return nil
	}
	return fn()
}

// Run executes the update pipeline for the requested version (or the
// "latest" sentinel).
func (u *Updater) Run(ctx context.Context, version string) error {
	resolved := version
	if version == VersionLatest {
		tag, err := u.fetcher.LatestRelease(u.config.CoreRepo)
		if err != nil {
			return err
		}
		resolved = tag
	}

	// Step 1: verification, performed in dry-run mode too.
	u.logger.WithFields(logger.Fields{
		"repo":    u.config.CoreRepo,
		"version": resolved,
	}).Info("Verifying release exists")
	exists, err := u.fetcher.ReleaseExists(u.config.CoreRepo, resolved)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NewReleaseError("verify_release",
			fmt.Sprintf("release not found: %s", resolved))
	}

	backupDir := filepath.Join(u.config.BackupsDir(),
		fmt.Sprintf("backup_%s", u.now().Format("20060102_150405")))
	defer u.printRollbackHint(backupDir)

	// Step 2: backup mutable state. Bulk file storage stays in place.
	err = u.mutate(fmt.Sprintf("Backing up config, modules, and themes to %s", backupDir), func() error {
		return u.createBackup(backupDir)
	})
	if err != nil {
		return err
	}

	// Steps 3-5: download, clear, and copy in the new release.
	var extracted *archive.ExtractedComponent
	err = u.mutate(fmt.Sprintf("Downloading and extracting release %s", resolved), func() error {
		res, ferr := u.fetcher.Fetch(coreEntry(u.config, resolved), "")
		if ferr != nil {
			return ferr
		}
		defer res.Cleanup()

		extracted, ferr = archive.Extract(res, "omeka-s")
		return ferr
	})
	if err != nil {
		return err
	}
	if extracted != nil {
		defer extracted.Cleanup()
	}

	err = u.mutate("Removing current core files (preserving user data directories)", func() error {
		return u.removeCoreFiles()
	})
	if err != nil {
		return err
	}

	err = u.mutate("Copying new release into place", func() error {
		return u.copyRelease(extracted.DirectoryPath)
	})
	if err != nil {
		return err
	}

	// Step 6: restore configuration. Missing files are tolerated to keep
	// the pipeline usable right after a fresh install.
	err = u.mutate("Restoring local configuration and database descriptor", func() error {
		u.restoreFile(filepath.Join(backupDir, "config", "local.config.php"), u.config.LocalConfigPath())
		u.restoreFile(filepath.Join(backupDir, "config", "database.ini"), u.config.DatabaseINIPath())
		return nil
	})
	if err != nil {
		return err
	}

	// Step 7: restore modules and themes.
	err = u.mutate("Restoring modules and themes", func() error {
		for _, name := range []string{"modules", "themes"} {
			src := filepath.Join(backupDir, name)
			if !fsutil.IsDir(src) {
				continue
			}
			if cerr := fsutil.CopyDir(src, filepath.Join(u.config.AppRoot, name)); cerr != nil {
				return errors.WrapFileSystemError(cerr, "restore_components",
					fmt.Sprintf("failed to restore %s", name))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Step 8: ownership and permissions.
	err = u.mutate("Normalizing ownership and permissions", func() error {
		return fsutil.NormalizeTree(u.config.AppRoot, u.config.OwnerUID, u.config.OwnerGID)
	})
	if err != nil {
		return err
	}

	// Step 9: cached compiled artifacts.
	err = u.mutate("Clearing application caches", func() error {
		u.clearCaches()
		return nil
	})
	if err != nil {
		return err
	}

	// Step 10: restart the application process.
	err = u.mutate(fmt.Sprintf("Restarting application container %s", u.config.PHPContainerName), func() error {
		u.restartApplication(ctx)
		return nil
	})
	if err != nil {
		return err
	}

	u.logger.WithFields(logger.Fields{
		"version": resolved,
		"dry_run": u.dryRun,
	}).Info("Core update complete")
	return nil
}

// createBackup snapshots config, modules, and themes into backupDir
func (u *Updater) createBackup(backupDir string) error {
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return errors.WrapFileSystemError(err, "create_backup",
			fmt.Sprintf("failed to create backup directory: %s", backupDir))
	}

	for _, name := range []string{"config", "modules", "themes"} {
		src := filepath.Join(u.config.AppRoot, name)
		if !fsutil.IsDir(src) {
			u.logger.WithFields(logger.Fields{
				"dir": src,
			}).Warn("Directory missing, skipping in backup")
			continue
		}
		if err := fsutil.CopyDir(src, filepath.Join(backupDir, name)); err != nil {
			return errors.WrapFileSystemError(err, "create_backup",
				fmt.Sprintf("failed to back up %s", name))
		}
	}

	return nil
}

// removeCoreFiles deletes everything under the application root except the
// preserved user-data directories.
func (u *Updater) removeCoreFiles() error {
	entries, err := os.ReadDir(u.config.AppRoot)
	if err != nil {
		return errors.WrapFileSystemError(err, "remove_core",
			"failed to read application root")
	}

	for _, entry := range entries {
		if preservedDirs[entry.Name()] {
			continue
		}
		if err := os.RemoveAll(filepath.Join(u.config.AppRoot, entry.Name())); err != nil {
			return errors.WrapFileSystemError(err, "remove_core",
				fmt.Sprintf("failed to remove %s", entry.Name()))
		}
	}

	return nil
}

// copyRelease strips the release's own bundled component directories and
// copies the rest into the application root.
func (u *Updater) copyRelease(releaseDir string) error {
	for _, name := range strippedReleaseDirs {
		if err := os.RemoveAll(filepath.Join(releaseDir, name)); err != nil {
			return errors.WrapFileSystemError(err, "copy_release",
				fmt.Sprintf("failed to strip bundled %s from release", name))
		}
	}

	if err := fsutil.CopyDir(releaseDir, u.config.AppRoot); err != nil {
		return errors.WrapFileSystemError(err, "copy_release",
			"failed to copy release into application root")
	}

	return nil
}

// restoreFile copies one backed-up file into place, warning when the
// backup does not contain it.
func (u *Updater) restoreFile(src, dst string) {
	if !fsutil.Exists(src) {
		u.logger.WithFields(logger.Fields{
			"file": src,
		}).Warn("Backup file missing, skipping restore")
		return
	}

	if err := fsutil.CopyFile(src, dst); err != nil {
		u.logger.WithFields(logger.Fields{
			"file":  src,
			"error": err,
		}).Warn("Failed to restore file from backup")
	}
}

// clearCaches removes compiled artifacts the application caches on disk
func (u *Updater) clearCaches() {
	cacheDirs := []string{
		filepath.Join(u.config.AppRoot, "application", "data", "cache"),
		filepath.Join(u.config.AppRoot, "application", "data", "doctrine-proxies"),
	}

	for _, dir := range cacheDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			os.RemoveAll(filepath.Join(dir, entry.Name()))
		}
	}
}

// restartApplication restarts the PHP-FPM container. Running without a
// reachable Docker daemon is normal when the updater executes inside the
// container itself, so failure is a warning.
func (u *Updater) restartApplication(ctx context.Context) {
	if u.restarter == nil {
		u.logger.Warn("No Docker client available, restart the application manually to drop in-memory caches")
		return
	}

	if err := u.restarter.RestartContainer(ctx, u.config.PHPContainerName); err != nil {
		u.logger.WithFields(logger.Fields{
			"container": u.config.PHPContainerName,
			"error":     err,
		}).Warn("Failed to restart application container, restart it manually")
	}
}

// printRollbackHint prints the manual rollback commands for the backup
// set. Printed on every completion path, success or failure.
func (u *Updater) printRollbackHint(backupDir string) {
	fmt.Printf("\nBackup set: %s\n", backupDir)
	fmt.Printf("To roll back manually:\n")
	fmt.Printf("  cp %s/config/local.config.php %s/\n", backupDir, u.config.ConfigDir())
	fmt.Printf("  cp %s/config/database.ini %s/\n", backupDir, u.config.ConfigDir())
	fmt.Printf("  cp -r %s/modules %s/\n", backupDir, u.config.AppRoot)
	fmt.Printf("  cp -r %s/themes %s/\n", backupDir, u.config.AppRoot)
}
