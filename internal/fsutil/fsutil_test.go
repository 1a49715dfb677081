/*
 * Omeka S Deploy - Filesystem Helper Tests
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestCopyDir(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "copy")
	writeTree(t, src, map[string]string{
		"a.txt":        "alpha",
		"nested/b.txt": "beta",
	})

	require.NoError(t, CopyDir(src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))

	data, err = os.ReadFile(filepath.Join(dst, "nested", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "beta", string(data))
}

func TestCopyDirMergesIntoExisting(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{"new.txt": "new"})
	writeTree(t, dst, map[string]string{"keep.txt": "keep"})

	require.NoError(t, CopyDir(src, dst))

	assert.FileExists(t, filepath.Join(dst, "new.txt"))
	assert.FileExists(t, filepath.Join(dst, "keep.txt"))
}

func TestMoveDir(t *testing.T) {
	parent := t.TempDir()
	src := filepath.Join(parent, "src")
	dst := filepath.Join(parent, "dst")
	require.NoError(t, os.MkdirAll(src, 0755))
	writeTree(t, src, map[string]string{"a.txt": "alpha"})

	require.NoError(t, MoveDir(src, dst))

	assert.FileExists(t, filepath.Join(dst, "a.txt"))
	assert.NoDirExists(t, src)
}

func TestNormalizeTreeAddsGroupWrite(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "alpha"})
	require.NoError(t, os.Chmod(filepath.Join(root, "a.txt"), 0644))

	require.NoError(t, NormalizeTree(root, -1, -1))

	info, err := os.Stat(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0020)
}

func TestExistsAndIsDir(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "alpha"})

	assert.True(t, Exists(filepath.Join(root, "a.txt")))
	assert.False(t, Exists(filepath.Join(root, "missing")))
	assert.True(t, IsDir(root))
	assert.False(t, IsDir(filepath.Join(root, "a.txt")))
}
