// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package xar extracts page files from downloaded XAR archives.
package xar

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pdiddy/xar-plugin/pkg/types"
)

// Selection picks archive entries by slash-separated relative name.
// An entry is extracted when it is the page or matches an Include pattern,
// and matches no Exclude pattern. Patterns use doublestar glob syntax.
type Selection struct {
	// Page is the local page file name. Entries with that base name at any
	// depth are selected, ignoring case, and written under the local name.
	Page string

	Include []string
	Exclude []string
}

// PageSelection extracts the page fileName at any depth, plus the extra
// include patterns, and always excludes the package manifest.
func PageSelection(fileName string, include, exclude []string) Selection {
	return Selection{
		Page:    fileName,
		Include: include,
		Exclude: append([]string{types.ManifestName}, exclude...),
	}
}

// Matches reports whether name is selected.
func (s Selection) Matches(name string) bool {
	return (s.isPage(name) || matchAny(s.Include, name)) && !matchAny(s.Exclude, name)
}

func (s Selection) isPage(name string) bool {
	return s.Page != "" && strings.EqualFold(path.Base(name), s.Page)
}

// destName is the relative name a selected entry is written to.
func (s Selection) destName(name string) string {
	if s.isPage(name) {
		return path.Join(path.Dir(name), s.Page)
	}
	return name
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Unpacker extracts selected entries of an archive into a directory and
// returns the relative names it wrote.
type Unpacker interface {
	Unpack(archivePath, targetDir string, sel Selection) ([]string, error)
}

// ZipUnpacker reads XAR archives, which are zip containers. Existing files
// in the target are overwritten.
type ZipUnpacker struct {
	// Pretty re-indents extracted XML entries.
	Pretty bool
}

// Unpack implements Unpacker.
func (u ZipUnpacker) Unpack(archivePath, targetDir string, sel Selection) ([]string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", types.ErrExtraction, archivePath, err)
	}
	defer r.Close()

	var written []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name, err := entryName(f.Name)
		if err != nil {
			return written, fmt.Errorf("%w: %s: %v", types.ErrExtraction, archivePath, err)
		}
		if !sel.Matches(name) {
			continue
		}
		name = sel.destName(name)
		dest := filepath.Join(targetDir, filepath.FromSlash(name))
		if err := u.extract(f, dest); err != nil {
			return written, fmt.Errorf("%w: extracting %s from %s: %v", types.ErrExtraction, name, archivePath, err)
		}
		written = append(written, name)
	}
	return written, nil
}

// entryName normalizes an entry name and rejects names escaping the target.
func entryName(raw string) (string, error) {
	name := path.Clean(strings.ReplaceAll(raw, `\`, "/"))
	if path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") {
		return "", fmt.Errorf("entry %q escapes the target directory", raw)
	}
	return name, nil
}

func (u ZipUnpacker) extract(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if u.Pretty && strings.EqualFold(filepath.Ext(dest), types.XMLSuffix) {
		data, err := io.ReadAll(rc)
		if err != nil {
			return err
		}
		if pretty, err := Prettify(data); err == nil {
			data = pretty
		}
		return os.WriteFile(dest, data, 0o644)
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
