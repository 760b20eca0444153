// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export derives wiki page references from resource paths and
// builds the XAR export requests for them.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pdiddy/xar-plugin/pkg/types"
)

// ErrSentinelNotFound is returned when no ancestor of a file carries the
// sentinel name.
var ErrSentinelNotFound = errors.New("sentinel directory not found")

// Identifier is the space hierarchy of a page, root to leaf.
type Identifier []string

// Dotted joins the segments with ".".
func (id Identifier) Dotted() string {
	return strings.Join(id, ".")
}

// Slashed joins the segments with "/".
func (id Identifier) Slashed() string {
	return strings.Join(id, "/")
}

// FullName is the dotted page name: the space segments followed by page.
// A page with no spaces is named by page alone.
func (id Identifier) FullName(page string) string {
	if len(id) == 0 {
		return page
	}
	return id.Dotted() + "." + page
}

// Derive collects the names of the directories between the sentinel and
// the file, root to leaf. The sentinel is excluded and the file's parent is
// included, so a file directly under the sentinel yields an empty
// Identifier. Derive does no I/O.
func Derive(path, sentinel string) (Identifier, error) {
	var names []string
	dir := filepath.Dir(filepath.Clean(path))
	for {
		name := filepath.Base(dir)
		if name == sentinel {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, fmt.Errorf("%w: %w: no %q directory above %s",
				types.ErrConfiguration, ErrSentinelNotFound, sentinel, path)
		}
		names = append(names, name)
		dir = parent
	}
	slices.Reverse(names)
	return Identifier(names), nil
}

// PageName strips the ".xml" suffix, ignoring case, from a file name.
func PageName(fileName string) string {
	n := len(types.XMLSuffix)
	if len(fileName) >= n && strings.EqualFold(fileName[len(fileName)-n:], types.XMLSuffix) {
		return fileName[:len(fileName)-n]
	}
	return fileName
}
