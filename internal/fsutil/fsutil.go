/*
 * Omeka S Deploy - Filesystem Helpers
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Exists reports whether path exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path exists and is a directory
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// CopyFile copies a single regular file, preserving its mode
func CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}

	return out.Close()
}

// CopyDir recursively copies the directory tree at src to dst
func CopyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case info.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			os.Remove(target)
			return os.Symlink(link, target)
		default:
			return CopyFile(path, target)
		}
	})
}

// MoveDir moves a directory into place, falling back to copy-and-remove
// when the source and destination are on different filesystems.
func MoveDir(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := CopyDir(src, dst); err != nil {
		os.RemoveAll(dst)
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	return os.RemoveAll(src)
}

// NormalizeTree sets ownership to uid:gid and adds group write permission
// on everything under root. A negative uid or gid skips the chown, which
// keeps the operation usable without root privileges.
func NormalizeTree(root string, uid, gid int) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if uid >= 0 && gid >= 0 {
			if err := os.Lchown(path, uid, gid); err != nil {
				return err
			}
		}

		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}

		return os.Chmod(path, info.Mode().Perm()|0020)
	})
}
