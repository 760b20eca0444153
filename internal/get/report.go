// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package get

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/xar-plugin/pkg/types"
)

// Report is the YAML record of one run.
type Report struct {
	URL      string              `yaml:"url"`
	Finished time.Time           `yaml:"finished"`
	OK       int                 `yaml:"ok"`
	Skipped  int                 `yaml:"skipped"`
	Failed   int                 `yaml:"failed"`
	Error    string              `yaml:"error,omitempty"`
	Files    []types.FileOutcome `yaml:"files"`
}

// writeReport writes the run report to path, creating parent directories.
func writeReport(path, baseURL string, result Result, runErr error) error {
	rep := Report{
		URL:      baseURL,
		Finished: time.Now().UTC(),
		OK:       result.OK,
		Skipped:  result.Skipped,
		Failed:   result.Failed,
		Files:    result.Files,
	}
	if runErr != nil {
		rep.Error = runErr.Error()
	}

	data, err := yaml.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadReport loads a report written by a previous run.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rep Report
	if err := yaml.Unmarshal(data, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}
