// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by a get run. Stages wrap them with context so
// callers can classify failures with errors.Is.
var (
	ErrConfiguration   = errors.New("configuration error")
	ErrDirectoryAccess = errors.New("directory access error")
	ErrNetwork         = errors.New("network error")
	ErrExtraction      = errors.New("extraction error")
)

// HTTPError reports an export response other than 200, 204 or 404.
type HTTPError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("could not get [%s], code=[%d], message=[%s]", e.URL, e.StatusCode, e.Message)
}

// Unwrap classifies every HTTPError as a network error.
func (e *HTTPError) Unwrap() error {
	return ErrNetwork
}
