// Package fingerprint derives a pseudonymous client token from request
// metadata. The token only deduplicates votes, views and reactions. It is not
// an identity: collisions happen and anyone can forge the inputs.
package fingerprint

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Unknown is used when no proxy header carries the client address
const Unknown = "unknown"

// Resolve hashes the user agent and client address into a short base-36 token.
// The same inputs always produce the same token.
func Resolve(userAgent, clientAddr string) string {
	if clientAddr == "" {
		clientAddr = Unknown
	}
	return hash(userAgent + clientAddr)
}

// FromRequest resolves the fingerprint of an incoming request. The address is
// taken from X-Forwarded-For, then X-Real-IP.
func FromRequest(r *http.Request) string {
	return Resolve(r.UserAgent(), ClientAddr(r))
}

// ClientAddr returns the best-effort originating address of a request
func ClientAddr(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		return xff
	}
	if xrip := strings.TrimSpace(r.Header.Get("X-Real-IP")); xrip != "" {
		return xrip
	}
	return Unknown
}

// hash is a 32-bit rolling hash (h*31 + c) over UTF-16 code units
func hash(s string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}
