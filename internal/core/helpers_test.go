/*
 * Omeka S Deploy - Core Test Helpers
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package core

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omekactl/omekactl/internal/config"
)

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

// forge serves canned responses keyed by URL path and records requests
type forge struct {
	mu        sync.Mutex
	responses map[string][]byte
	paths     []string
}

func newForge() *forge {
	return &forge{responses: make(map[string][]byte)}
}

func (f *forge) serve(path string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[path] = body
}

func (f *forge) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.paths = append(f.paths, r.URL.Path)
		body, ok := f.responses[r.URL.Path]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(body)
	})
}

func (f *forge) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.paths))
	copy(out, f.paths)
	return out
}

func testConfig(t *testing.T, srv *httptest.Server) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.AppRoot = t.TempDir()
	cfg.GitHubBaseURL = srv.URL
	cfg.GitHubAPIBaseURL = srv.URL
	cfg.GitLabBaseURL = srv.URL
	cfg.OwnerUID = -1
	cfg.OwnerGID = -1
	return cfg
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}
