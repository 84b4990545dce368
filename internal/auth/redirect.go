package auth

import (
	"net/url"
	"strings"
)

// RedirectParam carries the original target through the login page.
const RedirectParam = "redirect_to"

// LoginURL builds the login location for an anonymous request to target.
// target is the raw request URI, query string included.
func LoginURL(loginPath, target string) string {
	if target == "" {
		return loginPath
	}
	return loginPath + "?" + RedirectParam + "=" + url.QueryEscape(target)
}

// SafeRedirect returns target when it is a local absolute path and fallback
// otherwise. Scheme-relative ("//host") and backslash forms are rejected.
func SafeRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") {
		return fallback
	}
	if strings.HasPrefix(target, "//") || strings.ContainsAny(target, "\\\r\n") {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return target
}
