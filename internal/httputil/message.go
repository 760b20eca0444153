// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxMessageBody = 64 << 10
	maxMessageLen  = 200
)

// ServerMessage extracts a short human-readable message from an error
// response. HTML bodies yield their title or first heading, plain bodies
// their first non-blank line. The reason phrase is the fallback.
// The body is consumed but not closed.
func ServerMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxMessageBody))

	if msg := bodyMessage(resp.Header.Get("Content-Type"), body); msg != "" {
		return truncate(msg)
	}
	if reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))); reason != "" {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}

func bodyMessage(contentType string, body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "text/html" || mediaType == "application/xhtml+xml" {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return ""
		}
		for _, sel := range []string{"title", "h1", "h2"} {
			if text := collapse(doc.Find(sel).First().Text()); text != "" {
				return text
			}
		}
		return ""
	}
	for _, line := range strings.Split(string(body), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	cut := maxMessageLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
