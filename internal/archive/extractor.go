/*
 * Omeka S Deploy - Archive Extractor
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package archive

import (
	"fmt"
	"os"
	"path/filepath"

	slug "github.com/hashicorp/go-slug"

	"github.com/omekactl/omekactl/internal/errors"
	"github.com/omekactl/omekactl/internal/fetch"
	"github.com/omekactl/omekactl/internal/logger"
)

// ExtractedComponent is an unpacked component tree in a temporary staging
// directory, already renamed to its logical component name. Ownership
// transfers to the installer; Cleanup must run on every exit path.
type ExtractedComponent struct {
	DirectoryPath string
	FinalName     string

	stagingDir string
}

// Cleanup removes the staging directory and everything under it
func (e *ExtractedComponent) Cleanup() {
	if e != nil && e.stagingDir != "" {
		os.RemoveAll(e.stagingDir)
	}
}

// Extract unpacks the downloaded archive into an isolated staging
// directory and renames the single top-level directory to finalName.
// Forge archives name that directory after repo and revision, not after
// the logical component, so the rename decouples the on-disk name from
// the upstream naming convention. Zero or multiple top-level directories
// fail the extraction.
func Extract(res *fetch.FetchResult, finalName string) (*ExtractedComponent, error) {
	staging, err := os.MkdirTemp("", "omekactl-extract-")
	if err != nil {
		return nil, errors.WrapFileSystemError(err, "extract_archive",
			"failed to create staging directory")
	}

	unpackDir := filepath.Join(staging, "unpack")
	if err := os.MkdirAll(unpackDir, 0755); err != nil {
		os.RemoveAll(staging)
		return nil, errors.WrapFileSystemError(err, "extract_archive",
			"failed to create unpack directory")
	}

	fh, err := os.Open(res.ArchivePath)
	if err != nil {
		os.RemoveAll(staging)
		return nil, errors.WrapFileSystemError(err, "extract_archive",
			fmt.Sprintf("failed to open archive: %s", res.ArchivePath))
	}
	defer fh.Close()

	if err := slug.Unpack(fh, unpackDir); err != nil {
		os.RemoveAll(staging)
		return nil, errors.WrapExtractError(err, "extract_archive",
			fmt.Sprintf("failed to unpack archive for %s", finalName))
	}

	topLevel, err := singleTopLevelDir(unpackDir)
	if err != nil {
		os.RemoveAll(staging)
		return nil, errors.WrapExtractError(err, "extract_archive",
			fmt.Sprintf("ambiguous archive layout for %s", finalName))
	}

	target := filepath.Join(staging, finalName)
	if err := os.Rename(filepath.Join(unpackDir, topLevel), target); err != nil {
		os.RemoveAll(staging)
		return nil, errors.WrapFileSystemError(err, "extract_archive",
			fmt.Sprintf("failed to rename extracted directory to %s", finalName))
	}

	logger.WithFields(logger.Fields{
		"component": finalName,
		"from":      topLevel,
	}).Debug("Archive extracted and renamed")

	return &ExtractedComponent{
		DirectoryPath: target,
		FinalName:     finalName,
		stagingDir:    staging,
	}, nil
}

// singleTopLevelDir returns the name of the only directory directly under
// root, erroring when there are none or several.
func singleTopLevelDir(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", err
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}

	switch len(dirs) {
	case 1:
		return dirs[0], nil
	case 0:
		return "", fmt.Errorf("archive contains no top-level directory")
	default:
		return "", fmt.Errorf("archive contains %d top-level directories", len(dirs))
	}
}
