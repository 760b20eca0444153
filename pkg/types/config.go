// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the configuration, result, and error types shared by
// the get pipeline stages.
package types

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultURL is the wiki action base used when no url is configured.
	DefaultURL = "http://localhost:8080/xwiki/bin/"

	// PackagingXAR is the pom packaging type the get command acts on.
	PackagingXAR = "xar"

	// ResourcesDir is the resource tree of a module, relative to its pom.xml.
	ResourcesDir = "src/main/resources"

	// Sentinel is the directory name that stops identifier derivation.
	Sentinel = "resources"

	// WorkDirName is the per-run download directory, relative to the project.
	WorkDirName = "target/xar-plugin-get"

	// ManifestName is the package descriptor carried inside every XAR.
	ManifestName = "package.xml"

	// XMLSuffix is the extension of scanned page files.
	XMLSuffix = ".xml"
)

// HTTPConfig holds HTTP settings for the fetch stage.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with export requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// GetConfig is the immutable configuration of one get run. It is built
// once by the command layer and handed to the orchestrator.
type GetConfig struct {
	HTTPConfig `yaml:",inline"`

	// URL is the wiki "bin" base, e.g. "http://localhost:8080/xwiki/bin/".
	URL string `json:"url" yaml:"url"`

	// User and Pass enable basic authentication when both are non-blank.
	User string `json:"user,omitempty" yaml:"user,omitempty"`
	Pass string `json:"-" yaml:"-"`

	// Include filters scanned files by absolute path. A "glob:" prefix
	// selects doublestar syntax; "regex:" or no prefix selects a regular
	// expression. Empty matches everything.
	Include string `json:"include,omitempty" yaml:"include,omitempty"`

	// ProjectDir is the directory holding the project pom.xml.
	ProjectDir string `json:"project_dir" yaml:"project_dir"`

	// Packaging overrides the packaging read from pom.xml when set.
	Packaging string `json:"packaging,omitempty" yaml:"packaging,omitempty"`

	// Recursive processes every xar module found below ProjectDir.
	Recursive bool `json:"recursive" yaml:"recursive"`

	// Override allows non-empty local files to be replaced.
	Override bool `json:"override" yaml:"override"`

	// UnpackInclude adds glob patterns for archive entries to extract.
	UnpackInclude []string `json:"unpack_include,omitempty" yaml:"unpack_include,omitempty"`

	// UnpackExclude adds glob patterns for archive entries to skip.
	// ManifestName is always excluded.
	UnpackExclude []string `json:"unpack_exclude,omitempty" yaml:"unpack_exclude,omitempty"`

	// Pretty re-indents extracted XML entries.
	Pretty bool `json:"pretty" yaml:"pretty"`

	// ReportPath, when set, receives a YAML report of the run.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`
}

// Validate checks the configuration and returns the parsed base URL.
// A malformed URL is a configuration error.
func (c GetConfig) Validate() (*url.URL, error) {
	raw := c.URL
	if strings.TrimSpace(raw) == "" {
		raw = DefaultURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing url %q: %v", ErrConfiguration, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: url %q must use http or https", ErrConfiguration, raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: url %q has no host", ErrConfiguration, raw)
	}
	return u, nil
}

// HasCredentials reports whether basic authentication should be sent.
func (c GetConfig) HasCredentials() bool {
	return strings.TrimSpace(c.User) != "" && strings.TrimSpace(c.Pass) != ""
}

// WorkDir returns the download directory for this run.
func (c GetConfig) WorkDir() string {
	return filepath.Join(c.projectDir(), filepath.FromSlash(WorkDirName))
}

func (c GetConfig) projectDir() string {
	if c.ProjectDir == "" {
		return "."
	}
	return c.ProjectDir
}
