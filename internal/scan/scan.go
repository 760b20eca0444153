// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scan walks a resource tree and yields the page files to fetch.
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/xar-plugin/pkg/types"
)

var errStop = errors.New("scan stopped")

// Scan yields every regular file below root whose name ends in ".xml" and
// whose absolute path satisfies match. A nil match includes everything.
// The manifest at the top of root is never yielded, matching the manifest
// exclusion applied when archives are unpacked.
//
// A missing root yields nothing. Any other walk failure is yielded once as
// a directory access error and ends the sequence. Order follows
// filepath.WalkDir, which is lexical within each directory.
func Scan(root string, match Matcher) iter.Seq2[types.MatchedFile, error] {
	if match == nil {
		match = MatchAll
	}
	return func(yield func(types.MatchedFile, error) bool) {
		if _, err := os.Stat(root); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return
			}
			yield(types.MatchedFile{}, fmt.Errorf("%w: reading %s: %v", types.ErrDirectoryAccess, root, err))
			return
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if !hasXMLSuffix(d.Name()) {
				return nil
			}
			dir := filepath.Dir(path)
			if d.Name() == types.ManifestName && filepath.Clean(dir) == filepath.Clean(root) {
				return nil
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			if !match(abs) {
				return nil
			}
			if !yield(types.MatchedFile{Path: path, Dir: dir}, nil) {
				return errStop
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStop) {
			yield(types.MatchedFile{}, fmt.Errorf("%w: walking %s: %v", types.ErrDirectoryAccess, root, err))
		}
	}
}

// Collect drains a scan into a slice, stopping at the first error.
func Collect(seq iter.Seq2[types.MatchedFile, error]) ([]types.MatchedFile, error) {
	var files []types.MatchedFile
	for f, err := range seq {
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func hasXMLSuffix(name string) bool {
	return len(name) > len(types.XMLSuffix) &&
		strings.EqualFold(name[len(name)-len(types.XMLSuffix):], types.XMLSuffix)
}
