/*
 * Omeka S Deploy - Archive Extractor Tests
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omekactl/omekactl/internal/errors"
	"github.com/omekactl/omekactl/internal/fetch"
)

// buildArchive writes a gzip-compressed tar with the given files, emitting
// directory headers for every parent directory first.
func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var names []string
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	seen := map[string]bool{}
	for _, name := range names {
		parts := strings.Split(name, "/")
		for i := 1; i < len(parts); i++ {
			dir := strings.Join(parts[:i], "/") + "/"
			if seen[dir] {
				continue
			}
			seen[dir] = true
			require.NoError(t, tw.WriteHeader(&tar.Header{
				Name:     dir,
				Mode:     0755,
				Typeflag: tar.TypeDir,
			}))
		}

		content := files[name]
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0644,
			Typeflag: tar.TypeReg,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func archiveResult(t *testing.T, files map[string]string) *fetch.FetchResult {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.tar.gz")
	require.NoError(t, os.WriteFile(path, buildArchive(t, files), 0644))
	return &fetch.FetchResult{ArchivePath: path, HTTPStatus: 200}
}

func TestExtractRenamesTopLevelDir(t *testing.T) {
	res := archiveResult(t, map[string]string{
		"Widget-abc123/Module.php":        "<?php",
		"Widget-abc123/config/module.ini": "version = 1.0",
	})

	extracted, err := Extract(res, "Widget")
	require.NoError(t, err)
	defer extracted.Cleanup()

	assert.Equal(t, "Widget", extracted.FinalName)
	assert.Equal(t, "Widget", filepath.Base(extracted.DirectoryPath))

	data, err := os.ReadFile(filepath.Join(extracted.DirectoryPath, "Module.php"))
	require.NoError(t, err)
	assert.Equal(t, "<?php", string(data))

	data, err = os.ReadFile(filepath.Join(extracted.DirectoryPath, "config", "module.ini"))
	require.NoError(t, err)
	assert.Equal(t, "version = 1.0", string(data))
}

func TestExtractAmbiguousMultipleDirs(t *testing.T) {
	res := archiveResult(t, map[string]string{
		"one/a.txt": "a",
		"two/b.txt": "b",
	})

	extracted, err := Extract(res, "Widget")
	require.Error(t, err)
	assert.Nil(t, extracted)
	assert.True(t, errors.IsType(err, errors.ErrTypeExtract))
	assert.Contains(t, err.Error(), "Widget")
}

func TestExtractAmbiguousNoDir(t *testing.T) {
	res := archiveResult(t, map[string]string{})

	extracted, err := Extract(res, "Widget")
	require.Error(t, err)
	assert.Nil(t, extracted)
	assert.True(t, errors.IsType(err, errors.ErrTypeExtract))
}

func TestExtractRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.tar.gz")
	require.NoError(t, os.WriteFile(path, []byte("not a tarball"), 0644))

	_, err := Extract(&fetch.FetchResult{ArchivePath: path}, "Widget")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeExtract))
}

func TestCleanupRemovesStaging(t *testing.T) {
	res := archiveResult(t, map[string]string{
		"Widget-1/Module.php": "<?php",
	})

	extracted, err := Extract(res, "Widget")
	require.NoError(t, err)

	dir := extracted.DirectoryPath
	extracted.Cleanup()

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}
