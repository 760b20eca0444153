// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package get refreshes wiki page files from a running wiki: it scans a
// module's resource tree, exports each page as a XAR, and unpacks the page
// back over the local file.
package get

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/pdiddy/xar-plugin/internal/export"
	"github.com/pdiddy/xar-plugin/internal/httputil"
	"github.com/pdiddy/xar-plugin/internal/project"
	"github.com/pdiddy/xar-plugin/internal/scan"
	"github.com/pdiddy/xar-plugin/internal/xar"
	"github.com/pdiddy/xar-plugin/pkg/types"
)

// Fetcher downloads the export archive for one source file.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, sourcePath string) (types.FetchResult, error)
}

// Result holds the outcome of a get run.
type Result struct {
	OK      int
	Skipped int
	Failed  int
	Files   []types.FileOutcome
}

// Total returns the number of files processed.
func (r Result) Total() int {
	return r.OK + r.Skipped + r.Failed
}

// HasFailures reports whether any file failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

func (r *Result) add(o types.FileOutcome) {
	switch o.Status {
	case types.FileOK:
		r.OK++
	case types.FileFailed:
		r.Failed++
	default:
		r.Skipped++
	}
	r.Files = append(r.Files, o)
}

// item is a scanned file and the resource tree it belongs to.
type item struct {
	file      types.MatchedFile
	resources string
}

// Runner executes get runs for one configuration.
type Runner struct {
	cfg      types.GetConfig
	base     *url.URL
	match    scan.Matcher
	fetcher  Fetcher
	unpacker xar.Unpacker
	out      io.Writer
	log      *slog.Logger
	state    State
}

// New validates cfg and returns a Runner that downloads with client and
// unpacks with a ZipUnpacker. Status lines go to w; diagnostics to log,
// which may be nil.
func New(client *http.Client, cfg types.GetConfig, w io.Writer, log *slog.Logger) (*Runner, error) {
	return NewRunner(cfg, httputil.NewFetcher(client, cfg, cfg.WorkDir()), xar.ZipUnpacker{Pretty: cfg.Pretty}, w, log)
}

// NewRunner is New with explicit fetch and unpack stages. The fetcher must
// write into cfg.WorkDir().
func NewRunner(cfg types.GetConfig, f Fetcher, u xar.Unpacker, w io.Writer, log *slog.Logger) (*Runner, error) {
	base, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	match, err := scan.Compile(cfg.Include)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if w == nil {
		w = io.Discard
	}
	return &Runner{
		cfg:      cfg,
		base:     base,
		match:    match,
		fetcher:  f,
		unpacker: u,
		out:      w,
		log:      log,
		state:    StateIdle,
	}, nil
}

// State returns the phase the runner is in.
func (r *Runner) State() State {
	return r.state
}

func (r *Runner) enter(s State) {
	r.log.Debug("state", "from", r.state.String(), "to", s.String())
	r.state = s
}

// Run performs one get: it resolves the xar modules, recreates the working
// directory, scans every module before fetching anything, and processes
// the files in order. A project whose packaging is not xar is left alone.
//
// 404 and 204 responses skip the file. Any other failure aborts the run
// after reporting the file. The working directory is removed on every
// path out of Run once it has been created.
func (r *Runner) Run(ctx context.Context) (result Result, err error) {
	defer func() {
		if err != nil {
			r.enter(StateAborted)
		}
		if r.cfg.ReportPath != "" {
			if werr := writeReport(r.cfg.ReportPath, r.base.String(), result, err); werr != nil && err == nil {
				err = werr
			}
		}
	}()

	modules, err := r.modules()
	if err != nil {
		return result, err
	}
	if len(modules) == 0 {
		r.enter(StateDone)
		return result, nil
	}

	r.enter(StateSetup)
	workDir := r.cfg.WorkDir()
	if err := setup(workDir); err != nil {
		return result, err
	}
	defer func() {
		r.enter(StateTeardown)
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			r.log.Warn("removing working directory", "dir", workDir, "error", rmErr)
		}
		if err == nil {
			r.enter(StateDone)
		}
	}()

	r.log.Info("getting XAR XML files", "url", r.base.String())

	r.enter(StateScanning)
	var items []item
	for _, m := range modules {
		resources := m.Resources()
		files, err := scan.Collect(scan.Scan(resources, r.match))
		if err != nil {
			return result, err
		}
		r.log.Debug("scanned module", "dir", m.Dir, "files", len(files))
		for _, f := range files {
			items = append(items, item{file: f, resources: resources})
		}
	}

	r.enter(StatePerFile)
	for _, it := range items {
		outcome, ferr := r.getFile(ctx, it)
		result.add(outcome)
		if ferr != nil {
			fmt.Fprintf(r.out, "\nGet aborted: %d ok, %d skipped, %d failed (total: %d)\n",
				result.OK, result.Skipped, result.Failed, result.Total())
			return result, ferr
		}
	}

	fmt.Fprintf(r.out, "\nGet summary: %d ok, %d skipped, %d failed (total: %d)\n",
		result.OK, result.Skipped, result.Failed, result.Total())
	return result, nil
}

// modules returns the xar modules this run acts on.
func (r *Runner) modules() ([]project.Module, error) {
	dir := r.cfg.ProjectDir
	if dir == "" {
		dir = "."
	}
	if r.cfg.Recursive && r.cfg.Packaging == "" {
		modules, err := project.Find(dir, types.PackagingXAR)
		if err != nil {
			return nil, err
		}
		if len(modules) == 0 {
			r.log.Info("no xar modules found", "dir", dir)
		}
		return modules, nil
	}

	m, err := project.Root(dir, r.cfg.Packaging)
	if err != nil {
		return nil, err
	}
	if m.Packaging != types.PackagingXAR {
		r.log.Info("skipping project", "dir", dir, "packaging", m.Packaging, "want", types.PackagingXAR)
		return nil, nil
	}
	return []project.Module{m}, nil
}

func setup(workDir string) error {
	if err := os.RemoveAll(workDir); err != nil {
		return fmt.Errorf("%w: cleaning working directory %s: %v", types.ErrDirectoryAccess, workDir, err)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("%w: creating working directory %s: %v", types.ErrDirectoryAccess, workDir, err)
	}
	return nil
}

// getFile processes one scanned file, printing its status line.
func (r *Runner) getFile(ctx context.Context, it item) (types.FileOutcome, error) {
	f := it.file
	name := filepath.Base(f.Path)
	outcome := types.FileOutcome{Path: f.Path}

	fmt.Fprintf(r.out, "  Getting [%s/%s]... ", filepath.Base(f.Dir), name)

	fail := func(err error) (types.FileOutcome, error) {
		outcome.Status = types.FileFailed
		outcome.Error = err.Error()
		fmt.Fprintf(r.out, "failed (%v)\n", err)
		return outcome, err
	}

	if !r.cfg.Override {
		if info, err := os.Stat(f.Path); err == nil && info.Size() != 0 {
			outcome.Status = types.FileNotOverride
			fmt.Fprintln(r.out, "skipping (file not empty and override not enabled)")
			return outcome, nil
		}
	}

	id, err := export.Derive(f.Path, types.Sentinel)
	if err != nil {
		return fail(err)
	}
	req := export.Build(r.base, id, export.PageName(name))
	outcome.Name = req.Name
	outcome.URL = req.URL
	r.log.Debug("fetching", "page", req.Name, "url", req.URL)

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	res, err := r.fetcher.Fetch(ctx, req.URL, f.Path)
	if err != nil {
		return fail(err)
	}
	outcome.Size = res.Size

	if res.Empty() {
		outcome.Status = types.FileSkipped
		fmt.Fprintln(r.out, "skipping (xar is empty)")
		return outcome, nil
	}

	sel := xar.PageSelection(name, r.cfg.UnpackInclude, r.cfg.UnpackExclude)
	written, err := r.unpacker.Unpack(res.Path, it.resources, sel)
	outcome.Extracted = written
	if err != nil {
		return fail(err)
	}
	r.removeManifest(it.resources)
	if len(written) == 0 {
		outcome.Status = types.FileSkipped
		fmt.Fprintln(r.out, "skipping (page not in xar)")
		return outcome, nil
	}

	outcome.Status = types.FileOK
	fmt.Fprintf(r.out, "ok (%s)\n", humanize.Bytes(uint64(res.Size)))
	return outcome, nil
}

// removeManifest deletes a package.xml left in the resource tree.
func (r *Runner) removeManifest(resources string) {
	p := filepath.Join(resources, types.ManifestName)
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.log.Warn("removing manifest", "path", p, "error", err)
	}
}
