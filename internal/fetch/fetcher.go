/*
 * Omeka S Deploy - Archive Fetcher
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package fetch

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/omekactl/omekactl/internal/config"
	"github.com/omekactl/omekactl/internal/errors"
	"github.com/omekactl/omekactl/internal/logger"
	"github.com/omekactl/omekactl/internal/registry"
)

// FetchResult is a downloaded archive in a temporary location. The caller
// owns it and must call Cleanup on every exit path.
type FetchResult struct {
	ArchivePath string
	HTTPStatus  int
}

// Cleanup removes the downloaded archive
func (r *FetchResult) Cleanup() {
	if r != nil && r.ArchivePath != "" {
		os.Remove(r.ArchivePath)
	}
}

// Fetcher downloads repository archives from GitHub and GitLab
type Fetcher struct {
	client        *http.Client
	githubBase    string
	githubAPIBase string
	gitlabBase    string
	logger        *logger.Logger
}

// NewFetcher creates a new fetcher using the configured host endpoints
func NewFetcher(cfg *config.Config) *Fetcher {
	return &Fetcher{
		client:        &http.Client{Timeout: 5 * time.Minute},
		githubBase:    cfg.GitHubBaseURL,
		githubAPIBase: cfg.GitHubAPIBaseURL,
		gitlabBase:    cfg.GitLabBaseURL,
		logger:        logger.GetDefault(),
	}
}

// Fetch downloads the archive for entry at revision. An empty revision
// selects the entry's registry default. The revision is first treated as a
// branch; on a non-success status the tag-style URL is tried exactly once.
func (f *Fetcher) Fetch(entry registry.ComponentEntry, revision string) (*FetchResult, error) {
	if revision == "" {
		revision = entry.Revision
	}

	urls := f.archiveURLs(entry.Host, entry.Repo, revision)

	var lastStatus int
	for i, archiveURL := range urls {
		f.logger.WithFields(logger.Fields{
			"component": entry.Name,
			"revision":  revision,
			"attempt":   i + 1,
			"url":       archiveURL,
		}).Debug("Downloading archive")

		result, err := f.download(archiveURL)
		if err == nil {
			return result, nil
		}
		if result != nil {
			lastStatus = result.HTTPStatus
		}

		f.logger.WithFields(logger.Fields{
			"component": entry.Name,
			"revision":  revision,
			"status":    lastStatus,
		}).Debug("Archive download attempt failed")
	}

	return nil, errors.NewFetchError("fetch_archive",
		fmt.Sprintf("failed to download %s at revision %s (last status %d)",
			entry.Name, revision, lastStatus))
}

// archiveURLs returns the branch-style URL followed by the tag-style URL
// for the given host. The caller cannot know whether a revision names a
// branch or a tag, so both are tried in order.
func (f *Fetcher) archiveURLs(host registry.Host, repo, revision string) []string {
	switch host {
	case registry.HostGitLab:
		return []string{
			fmt.Sprintf("%s/%s/-/archive/%s/%s-%s.tar.gz",
				f.gitlabBase, repo, revision, path.Base(repo), revision),
			fmt.Sprintf("%s/api/v4/projects/%s/repository/archive.tar.gz?sha=%s",
				f.gitlabBase, url.PathEscape(repo), url.QueryEscape(revision)),
		}
	default:
		return []string{
			fmt.Sprintf("%s/%s/archive/refs/heads/%s.tar.gz", f.githubBase, repo, revision),
			fmt.Sprintf("%s/%s/archive/refs/tags/%s.tar.gz", f.githubBase, repo, revision),
		}
	}
}

// download fetches one URL into a temporary file. No partial archive
// remains on any failure path.
func (f *Fetcher) download(archiveURL string) (*FetchResult, error) {
	resp, err := f.client.Get(archiveURL)
	if err != nil {
		return nil, errors.WrapFetchError(err, "fetch_archive", "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &FetchResult{HTTPStatus: resp.StatusCode},
			errors.NewFetchError("fetch_archive",
				fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	tmp, err := os.CreateTemp("", "omekactl-*.tar.gz")
	if err != nil {
		return nil, errors.WrapFileSystemError(err, "fetch_archive",
			"failed to create temporary archive file")
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, errors.WrapFetchError(err, "fetch_archive",
			"failed to write archive body")
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, errors.WrapFileSystemError(err, "fetch_archive",
			"failed to close archive file")
	}

	return &FetchResult{
		ArchivePath: tmp.Name(),
		HTTPStatus:  resp.StatusCode,
	}, nil
}
