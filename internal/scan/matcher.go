// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scan

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pdiddy/xar-plugin/pkg/types"
)

const (
	globPrefix  = "glob:"
	regexPrefix = "regex:"
)

// Matcher reports whether an absolute file path is included in a scan.
type Matcher func(path string) bool

// MatchAll includes every path.
func MatchAll(string) bool { return true }

// Compile turns an include pattern into a Matcher. Patterns prefixed with
// "glob:" use doublestar syntax against the slash-separated absolute path;
// "regex:" or unprefixed patterns are regular expressions that must match
// the whole path. An empty pattern matches everything.
func Compile(pattern string) (Matcher, error) {
	switch {
	case strings.TrimSpace(pattern) == "":
		return MatchAll, nil
	case strings.HasPrefix(pattern, globPrefix):
		glob := strings.TrimPrefix(pattern, globPrefix)
		if !doublestar.ValidatePattern(glob) {
			return nil, fmt.Errorf("%w: invalid include glob %q", types.ErrConfiguration, glob)
		}
		return func(path string) bool {
			ok, err := doublestar.Match(glob, filepath.ToSlash(path))
			return err == nil && ok
		}, nil
	default:
		expr := strings.TrimPrefix(pattern, regexPrefix)
		re, err := regexp.Compile(`^(?:` + expr + `)$`)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid include regex %q: %v", types.ErrConfiguration, expr, err)
		}
		return re.MatchString, nil
	}
}
