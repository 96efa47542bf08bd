package validation

import (
	"net/url"
	"strings"
)

// IsValidURL reports whether s is an absolute http, https or mailto URL.
// Other schemes such as javascript: are refused since the value ends up in
// an href.
func IsValidURL(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "mailto":
		return u.Opaque != ""
	}
	return false
}

// IsValidImageRef accepts absolute URLs and paths rooted at the site
// ("/images/a.png"). Protocol-relative references are refused.
func IsValidImageRef(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "" {
		return IsValidURL(s) && !strings.EqualFold(u.Scheme, "mailto")
	}
	return strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") && u.Host == ""
}
