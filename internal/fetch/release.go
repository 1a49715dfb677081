/*
 * Omeka S Deploy - Release Metadata
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package fetch

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/omekactl/omekactl/internal/errors"
	"github.com/omekactl/omekactl/internal/logger"
)

// releaseInfo is the subset of the GitHub release payload we use
type releaseInfo struct {
	TagName string `json:"tag_name"`
}

// LatestRelease returns the tag name of the newest release of repo. Used
// to resolve the "latest" version sentinel. Failures are fatal to the
// caller; there is no retry at this layer.
func (f *Fetcher) LatestRelease(repo string) (string, error) {
	releaseURL := fmt.Sprintf("%s/repos/%s/releases/latest", f.githubAPIBase, repo)

	f.logger.WithFields(logger.Fields{
		"repo": repo,
		"url":  releaseURL,
	}).Debug("Resolving latest release")

	resp, err := f.client.Get(releaseURL)
	if err != nil {
		return "", errors.WrapReleaseError(err, "resolve_latest",
			fmt.Sprintf("failed to query releases for %s", repo))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", errors.NewReleaseError("resolve_latest",
			fmt.Sprintf("release lookup for %s returned status %d", repo, resp.StatusCode))
	}

	var release releaseInfo
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", errors.WrapReleaseError(err, "resolve_latest",
			"failed to parse release metadata")
	}

	if release.TagName == "" {
		return "", errors.NewReleaseError("resolve_latest",
			fmt.Sprintf("release metadata for %s has no tag name", repo))
	}

	return release.TagName, nil
}

// ReleaseExists probes whether the tag archive for version exists at the
// source host, without downloading it.
func (f *Fetcher) ReleaseExists(repo, tag string) (bool, error) {
	probeURL := fmt.Sprintf("%s/%s/archive/refs/tags/%s.tar.gz", f.githubBase, repo, tag)

	resp, err := f.client.Head(probeURL)
	if err != nil {
		return false, errors.WrapReleaseError(err, "probe_release",
			fmt.Sprintf("failed to probe release %s of %s", tag, repo))
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode <= 299, nil
}
