// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"net/url"
	"strings"
)

// Request is the export call for one page.
type Request struct {
	// URL is the fully qualified export URL.
	URL string

	// Name is the dotted page name sent as the name parameter.
	Name string
}

// Build composes the export request for a page:
//
//	<base>/export/<a/b>/<page>?format=xar&name=<a.b.page>&pages=xwiki%3A<a.b.page>&outputSyntax=plain
//
// base must already be validated; query and fragment on it are dropped.
// Parameters are emitted in that fixed order.
func Build(base *url.URL, id Identifier, page string) Request {
	u := *base
	u.RawQuery = ""
	u.Fragment = ""

	segments := make([]string, len(id))
	for i, s := range id {
		segments[i] = url.PathEscape(s)
	}

	name := id.FullName(page)

	var b strings.Builder
	b.WriteString(strings.TrimSuffix(u.String(), "/"))
	b.WriteString("/export/")
	b.WriteString(strings.Join(segments, "/"))
	b.WriteString("/")
	b.WriteString(url.PathEscape(page))
	b.WriteString("?format=xar&name=")
	b.WriteString(url.QueryEscape(name))
	b.WriteString("&pages=")
	b.WriteString(url.QueryEscape("xwiki:" + name))
	b.WriteString("&outputSyntax=plain")

	return Request{URL: b.String(), Name: name}
}
