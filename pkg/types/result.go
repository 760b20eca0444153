// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// FetchStatus classifies an export response.
type FetchStatus int

const (
	FetchSuccess FetchStatus = iota
	FetchNotFound
	FetchNoContent
)

func (s FetchStatus) String() string {
	switch s {
	case FetchSuccess:
		return "success"
	case FetchNotFound:
		return "not-found"
	case FetchNoContent:
		return "no-content"
	default:
		return "unknown"
	}
}

// FetchResult is the outcome of a successful round trip. Statuses other
// than 200, 204 and 404 are reported as *HTTPError instead.
type FetchResult struct {
	Status FetchStatus

	// Path is the archive file created for the attempt.
	Path string

	// Size is the number of bytes written to Path.
	Size int64
}

// Empty reports whether there is nothing to unpack.
func (r FetchResult) Empty() bool {
	return r.Status != FetchSuccess || r.Size <= 0
}

// FileStatus is the reported outcome for one scanned file.
type FileStatus string

const (
	FileOK          FileStatus = "ok"
	FileSkipped     FileStatus = "skipped"
	FileNotOverride FileStatus = "kept"
	FileFailed      FileStatus = "failed"
)

// FileOutcome records what happened to one scanned file.
type FileOutcome struct {
	// Path is the scanned file.
	Path string `json:"path" yaml:"path"`

	// Name is the dotted page name, e.g. "Main.WebHome".
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// URL is the export request sent for the file.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	Status FileStatus `json:"status" yaml:"status"`

	// Size is the downloaded archive length in bytes.
	Size int64 `json:"size,omitempty" yaml:"size,omitempty"`

	// Extracted lists the entries written into the resource tree.
	Extracted []string `json:"extracted,omitempty" yaml:"extracted,omitempty"`

	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// MatchedFile is a scanned page file and its parent directory.
type MatchedFile struct {
	Path string
	Dir  string
}
