package util

import (
	"net/url"
	"strconv"
	"strings"
)

// ParseID parses a positive database ID from a path segment
func ParseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// SafeRedirect returns next when it is a local path on this site, otherwise fallback.
// Scheme-relative ("//host") and backslash tricks are rejected.
func SafeRedirect(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}
