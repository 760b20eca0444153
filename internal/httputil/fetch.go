// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil downloads XAR exports and classifies the responses.
package httputil

import (
	"bufio"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pdiddy/xar-plugin/pkg/types"
)

// Fetcher downloads export archives into a working directory. It sends
// one request per call and never retries.
type Fetcher struct {
	client    *http.Client
	workDir   string
	userAgent string
	auth      string
}

// NewFetcher returns a Fetcher writing into workDir. Basic authentication
// is attached when cfg carries both a user and a password.
func NewFetcher(client *http.Client, cfg types.GetConfig, workDir string) *Fetcher {
	f := &Fetcher{
		client:    client,
		workDir:   workDir,
		userAgent: cfg.UserAgent,
	}
	if cfg.HasCredentials() {
		f.auth = BasicAuth(cfg.User, cfg.Pass)
	}
	return f
}

// ArchivePath is the download location for a source file: "temp<hash>.xar"
// in dir, where the hash is taken from sourcePath.
func ArchivePath(dir, sourcePath string) string {
	h := sha256.Sum256([]byte(sourcePath))
	return filepath.Join(dir, fmt.Sprintf("temp%x.xar", h[:8]))
}

// Fetch requests rawURL and stores a 200 body in the archive file for
// sourcePath. The archive file is created before the request is sent, so
// every attempt leaves exactly one file behind; it is removed with the
// working directory, not here.
//
// 404 and 204 are reported as FetchNotFound and FetchNoContent. Any other
// status is an *HTTPError; transport failures wrap types.ErrNetwork.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, sourcePath string) (types.FetchResult, error) {
	path := ArchivePath(f.workDir, sourcePath)
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return types.FetchResult{}, fmt.Errorf("%w: creating %s: %v", types.ErrDirectoryAccess, path, err)
	}
	defer out.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return types.FetchResult{}, fmt.Errorf("%w: creating request for %s: %v", types.ErrConfiguration, rawURL, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if f.auth != "" {
		req.Header.Set("Authorization", f.auth)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return types.FetchResult{}, fmt.Errorf("%w: requesting %s: %v", types.ErrNetwork, rawURL, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return types.FetchResult{Status: types.FetchNotFound, Path: path}, nil
	case http.StatusNoContent:
		return types.FetchResult{Status: types.FetchNoContent, Path: path}, nil
	default:
		return types.FetchResult{}, &types.HTTPError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Message:    ServerMessage(resp),
		}
	}

	w := bufio.NewWriter(out)
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return types.FetchResult{}, fmt.Errorf("%w: reading %s: %v", types.ErrNetwork, rawURL, err)
	}
	if err := w.Flush(); err != nil {
		return types.FetchResult{}, fmt.Errorf("%w: writing %s: %v", types.ErrDirectoryAccess, path, err)
	}
	if err := out.Close(); err != nil {
		return types.FetchResult{}, fmt.Errorf("%w: closing %s: %v", types.ErrDirectoryAccess, path, err)
	}
	return types.FetchResult{Status: types.FetchSuccess, Path: path, Size: n}, nil
}
