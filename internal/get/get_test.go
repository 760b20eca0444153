// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package get

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/xar-plugin/internal/httputil"
	"github.com/pdiddy/xar-plugin/internal/xar"
	"github.com/pdiddy/xar-plugin/pkg/types"
)

const pageContent = `<?xml version="1.1" encoding="UTF-8"?>
<xwikidoc><web>A.B</web><name>Page</name><content>fresh</content></xwikidoc>`

// newProject lays out a Maven module with the given packaging and page
// files under src/main/resources.
func newProject(t *testing.T, packaging string, pages ...string) string {
	t.Helper()
	dir := t.TempDir()
	writePom(t, dir, packaging)
	for _, p := range pages {
		path := filepath.Join(dir, "src", "main", "resources", filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}
	return dir
}

func writePom(t *testing.T, dir, packaging string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	pom := fmt.Sprintf("<project><modelVersion>4.0.0</modelVersion><packaging>%s</packaging></project>", packaging)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pom.xml"), []byte(pom), 0o644))
}

func zipBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// wiki is a fake export endpoint. Archives are keyed by request path
// below /xwiki/bin; unknown pages answer 404.
type wiki struct {
	mu       sync.Mutex
	archives map[string][]byte
	status   map[string]int
	requests []*http.Request
}

func (wk *wiki) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wk.mu.Lock()
	wk.requests = append(wk.requests, r)
	wk.mu.Unlock()

	page := strings.TrimPrefix(r.URL.Path, "/xwiki/bin")
	if code, ok := wk.status[page]; ok {
		w.WriteHeader(code)
		return
	}
	data, ok := wk.archives[page]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Write(data)
}

func testConfig(projectDir, baseURL string) types.GetConfig {
	return types.GetConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "xar-plugin-test/0.1",
		},
		URL:        baseURL,
		ProjectDir: projectDir,
		Override:   true,
	}
}

func resourcePath(dir, rel string) string {
	return filepath.Join(dir, "src", "main", "resources", filepath.FromSlash(rel))
}

func TestRunEndToEnd(t *testing.T) {
	wk := &wiki{archives: map[string][]byte{
		"/export/A/B/Page": zipBytes(t, map[string]string{
			"package.xml":     "<package/>",
			"A/B/Page.xml":    pageContent,
			"A/B/Sibling.xml": "<sibling/>",
		}),
	}}
	ts := httptest.NewServer(wk)
	defer ts.Close()

	dir := newProject(t, "xar", "A/B/Page.xml", "Main/WebHome.xml")
	cfg := testConfig(dir, ts.URL+"/xwiki/bin/")
	cfg.User, cfg.Pass = "Admin", "admin"

	var buf bytes.Buffer
	r, err := New(ts.Client(), cfg, &buf, nil)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.OK)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 2, result.Total())
	assert.False(t, result.HasFailures())
	assert.Equal(t, StateDone, r.State())

	data, err := os.ReadFile(resourcePath(dir, "A/B/Page.xml"))
	require.NoError(t, err)
	assert.Equal(t, pageContent, string(data))
	assert.NoFileExists(t, resourcePath(dir, "A/B/Sibling.xml"))
	assert.NoFileExists(t, resourcePath(dir, "package.xml"))
	assert.NoDirExists(t, cfg.WorkDir())

	out := buf.String()
	assert.Contains(t, out, "Getting [B/Page.xml]... ok")
	assert.Contains(t, out, "Getting [Main/WebHome.xml]... skipping (xar is empty)")
	assert.Contains(t, out, "Get summary: 1 ok, 1 skipped, 0 failed (total: 2)")

	require.Len(t, wk.requests, 2)
	var pageReq *http.Request
	for _, req := range wk.requests {
		if req.URL.Path == "/xwiki/bin/export/A/B/Page" {
			pageReq = req
		}
	}
	require.NotNil(t, pageReq)
	assert.Equal(t, "format=xar&name=A.B.Page&pages=xwiki%3AA.B.Page&outputSyntax=plain", pageReq.URL.RawQuery)
	assert.Equal(t, httputil.BasicAuth("Admin", "admin"), pageReq.Header.Get("Authorization"))
}

func TestRunPageDirectlyUnderResources(t *testing.T) {
	wk := &wiki{archives: map[string][]byte{
		"/export//Page": zipBytes(t, map[string]string{"Page.xml": pageContent}),
	}}
	ts := httptest.NewServer(wk)
	defer ts.Close()

	dir := newProject(t, "xar", "Page.xml")
	r, err := New(ts.Client(), testConfig(dir, ts.URL+"/xwiki/bin/"), nil, nil)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Files, 1)

	f := result.Files[0]
	assert.Equal(t, types.FileOK, f.Status)
	assert.Equal(t, "Page", f.Name)
	assert.Equal(t, ts.URL+"/xwiki/bin/export//Page?format=xar&name=Page&pages=xwiki%3APage&outputSyntax=plain", f.URL)
	assert.Equal(t, []string{"Page.xml"}, f.Extracted)
}

func TestRunUpperCaseSuffix(t *testing.T) {
	wk := &wiki{archives: map[string][]byte{
		"/export/A/Page": zipBytes(t, map[string]string{"A/Page.xml": pageContent}),
	}}
	ts := httptest.NewServer(wk)
	defer ts.Close()

	dir := newProject(t, "xar", "A/Page.XML")
	var buf bytes.Buffer
	r, err := New(ts.Client(), testConfig(dir, ts.URL+"/xwiki/bin/"), &buf, nil)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, types.FileOK, result.Files[0].Status)
	assert.Equal(t, "A.Page", result.Files[0].Name)
	assert.Equal(t, []string{"A/Page.XML"}, result.Files[0].Extracted)
	assert.Contains(t, buf.String(), "Getting [A/Page.XML]... ok")

	data, err := os.ReadFile(resourcePath(dir, "A/Page.XML"))
	require.NoError(t, err)
	assert.Equal(t, pageContent, string(data))
}

func TestRunArchiveWithoutPageSkips(t *testing.T) {
	wk := &wiki{archives: map[string][]byte{
		"/export/A/Page": zipBytes(t, map[string]string{"package.xml": "<package/>", "A/Other.xml": "<other/>"}),
	}}
	ts := httptest.NewServer(wk)
	defer ts.Close()

	dir := newProject(t, "xar", "A/Page.xml")
	var buf bytes.Buffer
	r, err := New(ts.Client(), testConfig(dir, ts.URL+"/xwiki/bin/"), &buf, nil)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.OK)
	assert.Equal(t, 1, result.Skipped)
	assert.Contains(t, buf.String(), "Getting [A/Page.xml]... skipping (page not in xar)")
	assert.NoFileExists(t, resourcePath(dir, "A/Other.xml"))
}

func TestRunEmptyArchiveSkips(t *testing.T) {
	tests := []struct {
		name string
		wk   *wiki
	}{
		{"not found", &wiki{}},
		{"no content", &wiki{status: map[string]int{"/export/Main/WebHome": http.StatusNoContent}}},
		{"zero length body", &wiki{archives: map[string][]byte{"/export/Main/WebHome": {}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.wk)
			defer ts.Close()

			dir := newProject(t, "xar", "Main/WebHome.xml")
			var buf bytes.Buffer
			r, err := New(ts.Client(), testConfig(dir, ts.URL+"/xwiki/bin/"), &buf, nil)
			require.NoError(t, err)

			result, err := r.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 1, result.Skipped)
			assert.Equal(t, types.FileSkipped, result.Files[0].Status)
			assert.Contains(t, buf.String(), "skipping (xar is empty)")
			assert.NoDirExists(t, filepath.Join(dir, "target", "xar-plugin-get"))
		})
	}
}

func TestRunHTTPErrorAborts(t *testing.T) {
	wk := &wiki{status: map[string]int{"/export/A/First": http.StatusInternalServerError}}
	ts := httptest.NewServer(wk)
	defer ts.Close()

	dir := newProject(t, "xar", "A/First.xml", "A/Second.xml")
	cfg := testConfig(dir, ts.URL+"/xwiki/bin/")
	var buf bytes.Buffer
	r, err := New(ts.Client(), cfg, &buf, nil)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.Error(t, err)

	var httpErr *types.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.ErrorIs(t, err, types.ErrNetwork)

	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Total())
	assert.Len(t, wk.requests, 1, "second file must not be fetched after an abort")
	assert.Equal(t, StateAborted, r.State())
	assert.NoDirExists(t, cfg.WorkDir())
	assert.Contains(t, buf.String(), "Getting [A/First.xml]... failed (")
	assert.Contains(t, buf.String(), "Get aborted:")
}

func TestRunSkipsNonXarProject(t *testing.T) {
	wk := &wiki{}
	ts := httptest.NewServer(wk)
	defer ts.Close()

	dir := newProject(t, "jar", "A/Page.xml")
	cfg := testConfig(dir, ts.URL+"/xwiki/bin/")
	r, err := New(ts.Client(), cfg, nil, nil)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total())
	assert.Empty(t, wk.requests)
	assert.NoDirExists(t, filepath.Join(dir, "target"))

	cfg.Packaging = types.PackagingXAR
	r, err = New(ts.Client(), cfg, nil, nil)
	require.NoError(t, err)
	result, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total(), "packaging override forces the run")
}

func TestRunMissingResources(t *testing.T) {
	dir := t.TempDir()
	writePom(t, dir, "xar")

	cfg := testConfig(dir, "http://127.0.0.1:1/xwiki/bin/")
	r, err := New(http.DefaultClient, cfg, nil, nil)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total())
	assert.NoDirExists(t, cfg.WorkDir())
}

func TestRunKeepsNonEmptyFilesWithoutOverride(t *testing.T) {
	wk := &wiki{}
	ts := httptest.NewServer(wk)
	defer ts.Close()

	dir := newProject(t, "xar", "Main/Empty.xml")
	full := resourcePath(dir, "Main/Full.xml")
	require.NoError(t, os.WriteFile(full, []byte("<local/>"), 0o644))

	cfg := testConfig(dir, ts.URL+"/xwiki/bin/")
	cfg.Override = false
	var buf bytes.Buffer
	r, err := New(ts.Client(), cfg, &buf, nil)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Skipped)
	assert.Len(t, wk.requests, 1, "only the empty file is fetched")
	assert.Contains(t, buf.String(), "Getting [Main/Full.xml]... skipping (file not empty and override not enabled)")

	data, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "<local/>", string(data))
}

func TestRunRecursive(t *testing.T) {
	wk := &wiki{archives: map[string][]byte{
		"/export/UI/Home":  zipBytes(t, map[string]string{"UI/Home.xml": "<ui/>"}),
		"/export/API/Docs": zipBytes(t, map[string]string{"API/Docs.xml": "<api/>"}),
	}}
	ts := httptest.NewServer(wk)
	defer ts.Close()

	root := t.TempDir()
	writePom(t, root, "pom")
	for _, m := range []struct{ dir, page string }{{"app-ui", "UI/Home.xml"}, {"app-api", "API/Docs.xml"}, {"app-jar", "X/Y.xml"}} {
		packaging := "xar"
		if m.dir == "app-jar" {
			packaging = "jar"
		}
		modDir := filepath.Join(root, m.dir)
		writePom(t, modDir, packaging)
		path := resourcePath(modDir, m.page)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}

	cfg := testConfig(root, ts.URL+"/xwiki/bin/")
	cfg.Recursive = true
	r, err := New(ts.Client(), cfg, nil, nil)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.OK)
	assert.Len(t, wk.requests, 2)

	data, err := os.ReadFile(resourcePath(filepath.Join(root, "app-ui"), "UI/Home.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<ui/>", string(data))
}

func TestRunWithIncludeFilter(t *testing.T) {
	wk := &wiki{}
	ts := httptest.NewServer(wk)
	defer ts.Close()

	dir := newProject(t, "xar", "Main/WebHome.xml", "Blog/Post.xml")
	cfg := testConfig(dir, ts.URL+"/xwiki/bin/")
	cfg.Include = "glob:**/Blog/*.xml"
	r, err := New(ts.Client(), cfg, nil, nil)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "Blog.Post", result.Files[0].Name)
}

func TestRunReport(t *testing.T) {
	wk := &wiki{status: map[string]int{"/export/A/Bad": http.StatusForbidden}}
	ts := httptest.NewServer(wk)
	defer ts.Close()

	dir := newProject(t, "xar", "A/Bad.xml")
	cfg := testConfig(dir, ts.URL+"/xwiki/bin/")
	cfg.ReportPath = filepath.Join(t.TempDir(), "reports", "get.yaml")
	r, err := New(ts.Client(), cfg, nil, nil)
	require.NoError(t, err)

	_, runErr := r.Run(context.Background())
	require.Error(t, runErr)

	rep, err := ReadReport(cfg.ReportPath)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Failed)
	assert.Contains(t, rep.Error, "code=[403]")
	require.Len(t, rep.Files, 1)
	assert.Equal(t, types.FileFailed, rep.Files[0].Status)
	assert.Equal(t, "A.Bad", rep.Files[0].Name)
}

// recordingFetcher checks the working directory during fetches.
type recordingFetcher struct {
	t       *testing.T
	workDir string
	seen    int
}

func (f *recordingFetcher) Fetch(_ context.Context, _ string, _ string) (types.FetchResult, error) {
	f.seen++
	info, err := os.Stat(f.workDir)
	require.NoError(f.t, err)
	assert.True(f.t, info.IsDir())
	return types.FetchResult{Status: types.FetchNotFound}, nil
}

func TestRunWorkDirLifecycle(t *testing.T) {
	dir := newProject(t, "xar", "A/One.xml", "A/Two.xml")
	cfg := testConfig(dir, types.DefaultURL)

	// A stale directory from an earlier run is replaced.
	require.NoError(t, os.MkdirAll(cfg.WorkDir(), 0o755))
	stale := filepath.Join(cfg.WorkDir(), "temp-stale.xar")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	f := &recordingFetcher{t: t, workDir: cfg.WorkDir()}
	r, err := NewRunner(cfg, f, xar.ZipUnpacker{}, nil, nil)
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, f.seen)
	assert.NoDirExists(t, cfg.WorkDir())
}

type failingUnpacker struct{}

func (failingUnpacker) Unpack(string, string, xar.Selection) ([]string, error) {
	return nil, fmt.Errorf("%w: disk full", types.ErrExtraction)
}

type archiveFetcher struct{}

func (archiveFetcher) Fetch(context.Context, string, string) (types.FetchResult, error) {
	return types.FetchResult{Status: types.FetchSuccess, Path: "unused.xar", Size: 10}, nil
}

func TestRunUnpackFailureAborts(t *testing.T) {
	dir := newProject(t, "xar", "A/One.xml")
	cfg := testConfig(dir, types.DefaultURL)

	r, err := NewRunner(cfg, archiveFetcher{}, failingUnpacker{}, nil, nil)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrExtraction)
	assert.Equal(t, 1, result.Failed)
	assert.NoDirExists(t, cfg.WorkDir())
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.GetConfig
	}{
		{"malformed url", types.GetConfig{URL: "http://[::1"}},
		{"unsupported scheme", types.GetConfig{URL: "ftp://host/bin/"}},
		{"missing host", types.GetConfig{URL: "http:///bin/"}},
		{"bad include", types.GetConfig{Include: "regex:("}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(http.DefaultClient, tt.cfg, nil, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrConfiguration)
		})
	}
}
