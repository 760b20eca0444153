// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import "encoding/base64"

// BasicAuth returns the Authorization header value for user and pass:
// "Basic " followed by the standard base64 encoding of "user:pass".
func BasicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}
