/*
 * Omeka S Deploy - Component Installer
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package installer

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/omekactl/omekactl/internal/archive"
	"github.com/omekactl/omekactl/internal/config"
	"github.com/omekactl/omekactl/internal/errors"
	"github.com/omekactl/omekactl/internal/fetch"
	"github.com/omekactl/omekactl/internal/fsutil"
	"github.com/omekactl/omekactl/internal/logger"
	"github.com/omekactl/omekactl/internal/registry"
)

// Status describes how an install operation concluded
type Status string

const (
	StatusInstalled             Status = "installed"
	StatusInstalledWithWarnings Status = "installed_with_warnings"
	StatusSkipped               Status = "skipped"
)

// InstallResult reports the outcome of installing one component. Warnings
// carry fail-soft failures (currently only the composer bootstrap) that do
// not void the installation.
type InstallResult struct {
	Name     string
	Status   Status
	Warnings []string
}

// Installer orchestrates fetch, extraction, placement, and dependency
// resolution for modules and themes.
type Installer struct {
	config   *config.Config
	registry *registry.Registry
	fetcher  *fetch.Fetcher
	logger   *logger.Logger

	// composerBin is overridable in tests
	composerBin string
}

// NewInstaller creates a new component installer
func NewInstaller(cfg *config.Config, reg *registry.Registry, fetcher *fetch.Fetcher) *Installer {
	return &Installer{
		config:      cfg,
		registry:    reg,
		fetcher:     fetcher,
		logger:      logger.GetDefault(),
		composerBin: "composer",
	}
}

// destinationDir returns the install directory for a component kind
func (i *Installer) destinationDir(kind registry.Kind) string {
	if kind == registry.KindTheme {
		return i.config.ThemesDir()
	}
	return i.config.ModulesDir()
}

// IsInstalled reports whether the component's destination directory
// exists. The filesystem is the only install state this tool keeps; every
// call site goes through here.
func (i *Installer) IsInstalled(entry registry.ComponentEntry) bool {
	return fsutil.IsDir(filepath.Join(i.destinationDir(entry.Kind), entry.Name))
}

// InstalledNames returns the registered components currently installed
func (i *Installer) InstalledNames() []string {
	var installed []string
	for _, name := range i.registry.Names() {
		entry, err := i.registry.Lookup(name)
		if err != nil {
			continue
		}
		if i.IsInstalled(entry) {
			installed = append(installed, name)
		}
	}
	return installed
}

// Install installs name at revision (empty means the registry default),
// resolving unmet dependencies first. With update set, an existing
// installation is replaced instead of skipped.
func (i *Installer) Install(name, revision string, update bool) (*InstallResult, error) {
	entry, err := i.registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	path := map[string]bool{entry.Name: true}
	if err := i.ensureDependencies(entry, path); err != nil {
		return nil, err
	}

	return i.installOne(entry, revision, update)
}

// UpdateAll re-installs every registered component that is currently
// installed. The revision override, when set, applies to all of them.
func (i *Installer) UpdateAll(revision string) ([]*InstallResult, error) {
	var results []*InstallResult
	for _, name := range i.InstalledNames() {
		result, err := i.Install(name, revision, true)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// ensureDependencies walks entry's dependency list in declared order and
// installs every dependency that is not yet present, depth first. The path
// set holds the components on the current recursion path only, so a shared
// dependency reached through two siblings resolves normally while a
// genuinely cyclic registry fails instead of recursing without bound. Any
// failure aborts the whole chain.
func (i *Installer) ensureDependencies(entry registry.ComponentEntry, path map[string]bool) error {
	for _, depName := range entry.Dependencies {
		if path[depName] {
			return errors.NewDependencyError("resolve_dependencies",
				fmt.Sprintf("cyclic dependency on %s while resolving %s", depName, entry.Name))
		}

		dep, err := i.registry.Lookup(depName)
		if err != nil {
			return errors.WrapDependencyError(err, "resolve_dependencies",
				fmt.Sprintf("unknown dependency %s of %s", depName, entry.Name))
		}

		if i.IsInstalled(dep) {
			continue
		}

		path[depName] = true
		if err := i.ensureDependencies(dep, path); err != nil {
			return err
		}
		delete(path, depName)

		i.logger.WithFields(logger.Fields{
			"component":  entry.Name,
			"dependency": depName,
		}).Info("Installing missing dependency")

		if _, err := i.installOne(dep, "", false); err != nil {
			return errors.WrapDependencyError(err, "resolve_dependencies",
				fmt.Sprintf("failed to install dependency %s of %s", depName, entry.Name))
		}
	}

	return nil
}

// installOne performs the fetch, extract, and placement of exactly one
// component. A failed install never leaves a partial directory at the
// destination; a pre-existing installation is untouched until the staged
// replacement is ready.
func (i *Installer) installOne(entry registry.ComponentEntry, revision string, update bool) (*InstallResult, error) {
	destination := filepath.Join(i.destinationDir(entry.Kind), entry.Name)

	if fsutil.IsDir(destination) {
		if !update {
			i.logger.WithFields(logger.Fields{
				"component": entry.Name,
				"path":      destination,
			}).Info("Component already installed, skipping")
			return &InstallResult{Name: entry.Name, Status: StatusSkipped}, nil
		}
	}

	result, err := i.fetcher.Fetch(entry, revision)
	if err != nil {
		return nil, err
	}
	defer result.Cleanup()

	extracted, err := archive.Extract(result, entry.Name)
	if err != nil {
		return nil, err
	}
	defer extracted.Cleanup()

	if err := os.MkdirAll(i.destinationDir(entry.Kind), 0755); err != nil {
		return nil, errors.WrapFileSystemError(err, "install_component",
			"failed to create destination directory")
	}

	if update && fsutil.IsDir(destination) {
		if err := os.RemoveAll(destination); err != nil {
			return nil, errors.WrapFileSystemError(err, "install_component",
				fmt.Sprintf("failed to remove existing installation: %s", destination))
		}
	}

	if err := fsutil.MoveDir(extracted.DirectoryPath, destination); err != nil {
		return nil, errors.WrapFileSystemError(err, "install_component",
			fmt.Sprintf("failed to move %s into place", entry.Name))
	}

	if err := fsutil.NormalizeTree(destination, i.config.OwnerUID, i.config.OwnerGID); err != nil {
		return nil, errors.WrapFileSystemError(err, "install_component",
			fmt.Sprintf("failed to normalize ownership of %s", entry.Name))
	}

	install := &InstallResult{Name: entry.Name, Status: StatusInstalled}

	if warn := i.composerInstall(destination); warn != "" {
		install.Status = StatusInstalledWithWarnings
		install.Warnings = append(install.Warnings, warn)
	}

	i.logger.WithFields(logger.Fields{
		"component": entry.Name,
		"path":      destination,
		"status":    install.Status,
	}).Info("Component installed")

	return install, nil
}

// composerInstall runs the secondary package manager when the component
// ships a composer.json. Failures are downgraded to a warning: composer
// dependencies are usually optional runtime conveniences, and the
// component stays installed without them.
func (i *Installer) composerInstall(dir string) string {
	if !fsutil.Exists(filepath.Join(dir, "composer.json")) {
		return ""
	}

	cmd := exec.Command(i.composerBin, "install", "--no-dev", "--no-interaction", "--no-progress")
	cmd.Dir = dir

	if out, err := cmd.CombinedOutput(); err != nil {
		warning := fmt.Sprintf("composer install failed in %s: %v", dir, err)
		i.logger.WithFields(logger.Fields{
			"dir":    dir,
			"error":  err,
			"output": string(out),
		}).Warn("composer install failed, component installed without its vendor tree")
		return warning
	}

	return ""
}
