/*
 * Omeka S Deploy - Core Bootstrapper Tests
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package core

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omekactl/omekactl/internal/config"
	"github.com/omekactl/omekactl/internal/errors"
	"github.com/omekactl/omekactl/internal/fetch"
)

func testBootstrapper(t *testing.T, f *forge) (*Bootstrapper, *config.Config, *forge) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	cfg := testConfig(t, srv)
	b := NewBootstrapper(cfg, fetch.NewFetcher(cfg))
	b.ping = func(ctx context.Context) error { return nil }
	b.waitInterval = time.Millisecond
	b.waitAttempts = 3
	return b, cfg, f
}

func coreRelease(t *testing.T) []byte {
	return buildArchive(t, map[string]string{
		"omeka-s-4.1.1/index.php":                            "core",
		"omeka-s-4.1.1/application/config/module.config.php": "<?php",
		"omeka-s-4.1.1/application/data/cache/.gitkeep":      "",
		"omeka-s-4.1.1/modules/.gitkeep":                     "",
		"omeka-s-4.1.1/themes/default/config/theme.ini":      "name = Default",
		"omeka-s-4.1.1/config/local.config.php.dist":         "<?php // dist",
	})
}

func TestBootstrapInstallsCore(t *testing.T) {
	f := newForge()
	f.serve("/omeka/omeka-s/archive/refs/tags/v4.1.1.tar.gz", coreRelease(t))

	b, cfg, _ := testBootstrapper(t, f)

	require.NoError(t, b.Run(context.Background(), "v4.1.1"))
	assert.Equal(t, StateInstalled, b.State())

	// Core files are in place, descriptor and local config written.
	assert.FileExists(t, cfg.CoreMarkerPath())
	assert.FileExists(t, cfg.DatabaseINIPath())
	assert.FileExists(t, cfg.LocalConfigPath())

	// The fixed layout directories exist.
	for _, dir := range []string{cfg.FilesDir(), cfg.SideloadDir(), cfg.ModulesDir(), cfg.ThemesDir(), cfg.ConfigDir()} {
		assert.DirExists(t, dir)
	}
}

func TestBootstrapResolvesLatest(t *testing.T) {
	f := newForge()
	f.serve("/repos/omeka/omeka-s/releases/latest", []byte(`{"tag_name": "v4.1.1"}`))
	f.serve("/omeka/omeka-s/archive/refs/tags/v4.1.1.tar.gz", coreRelease(t))

	b, cfg, _ := testBootstrapper(t, f)

	require.NoError(t, b.Run(context.Background(), VersionLatest))
	assert.Equal(t, StateInstalled, b.State())
	assert.FileExists(t, cfg.CoreMarkerPath())
}

func TestBootstrapShortCircuitsWhenInstalled(t *testing.T) {
	f := newForge()
	b, cfg, _ := testBootstrapper(t, f)

	require.NoError(t, os.MkdirAll(cfg.AppRoot, 0755))
	require.NoError(t, os.WriteFile(cfg.CoreMarkerPath(), []byte("core"), 0644))

	require.NoError(t, b.Run(context.Background(), "v4.1.1"))
	assert.Equal(t, StateInstalled, b.State())

	// Nothing was fetched.
	assert.Empty(t, f.requests())
}

func TestBootstrapVersionResolutionFailureIsFatal(t *testing.T) {
	f := newForge()
	// No release endpoint served.
	b, cfg, _ := testBootstrapper(t, f)

	err := b.Run(context.Background(), VersionLatest)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeRelease))
	assert.Equal(t, StateFailed, b.State())
	assert.NoFileExists(t, cfg.CoreMarkerPath())
}

func TestBootstrapDatabaseTimeoutIsFatal(t *testing.T) {
	f := newForge()
	f.serve("/omeka/omeka-s/archive/refs/tags/v4.1.1.tar.gz", coreRelease(t))

	b, cfg, _ := testBootstrapper(t, f)
	b.ping = func(ctx context.Context) error { return fmt.Errorf("connection refused") }

	err := b.Run(context.Background(), "v4.1.1")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeDatabase))
	assert.Equal(t, StateFailed, b.State())

	// The failed run leaves the Absent precondition intact.
	assert.NoFileExists(t, cfg.CoreMarkerPath())
}

func TestBootstrapInstallFailureLeavesNoMarker(t *testing.T) {
	f := newForge()
	// Archive endpoint not served: the download fails after the DB wait.
	b, cfg, _ := testBootstrapper(t, f)

	err := b.Run(context.Background(), "v4.1.1")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeFetch))
	assert.Equal(t, StateFailed, b.State())
	assert.NoFileExists(t, cfg.CoreMarkerPath())
}

func TestBootstrapPreservesExistingLocalConfig(t *testing.T) {
	f := newForge()
	f.serve("/omeka/omeka-s/archive/refs/tags/v4.1.1.tar.gz", coreRelease(t))

	b, cfg, _ := testBootstrapper(t, f)

	require.NoError(t, os.MkdirAll(cfg.ConfigDir(), 0755))
	require.NoError(t, os.WriteFile(cfg.LocalConfigPath(), []byte("hand-edited"), 0644))
	require.NoError(t, os.WriteFile(cfg.DatabaseINIPath(), []byte("hand-edited-ini"), 0644))

	require.NoError(t, b.Run(context.Background(), "v4.1.1"))

	data, err := os.ReadFile(cfg.LocalConfigPath())
	require.NoError(t, err)
	assert.Equal(t, "hand-edited", string(data))

	data, err = os.ReadFile(cfg.DatabaseINIPath())
	require.NoError(t, err)
	assert.Equal(t, "hand-edited-ini", string(data))
}

func TestBootstrapMergesReleaseIntoLayout(t *testing.T) {
	f := newForge()
	f.serve("/omeka/omeka-s/archive/refs/tags/v4.1.1.tar.gz", coreRelease(t))

	b, cfg, _ := testBootstrapper(t, f)

	require.NoError(t, b.Run(context.Background(), "v4.1.1"))

	// Release content landed next to the pre-created directories.
	assert.FileExists(t, filepath.Join(cfg.AppRoot, "application", "config", "module.config.php"))
	assert.FileExists(t, filepath.Join(cfg.ThemesDir(), "default", "config", "theme.ini"))
	assert.DirExists(t, cfg.FilesDir())
	assert.DirExists(t, cfg.SideloadDir())
}
