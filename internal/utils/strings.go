package utils

import (
	"net/url"
	"strings"
	"unicode"
)

// TrimOrEmpty normalizes user input without turning nil into "nil".
func TrimOrEmpty(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeSpace collapses repeated whitespace into a single space.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fallback returns v trimmed, or fallback when that is empty.
func Fallback(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

// IsHTTPURL reports whether s parses as an absolute http or https URL.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// SafeFilenamePart keeps the ASCII letters, digits, '-' and '_' of s for use
// in a Content-Disposition name. Other runs become one '_'; the result is at
// most 40 bytes and empty when nothing usable is left.
func SafeFilenamePart(s string) string {
	var b strings.Builder
	lastSep := true
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r < 0x80 && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-'):
			b.WriteRune(r)
			lastSep = false
		case !lastSep:
			b.WriteByte('_')
			lastSep = true
		}
		if b.Len() >= 40 {
			break
		}
	}
	return strings.Trim(b.String(), "_")
}

// SameOriginPath returns p when it is a relative path on this origin
// ("/x", not "//host" or "http://..."), otherwise fallback.
func SameOriginPath(p, fallback string) string {
	p = strings.TrimSpace(p)
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return fallback
	}
	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return p
}
