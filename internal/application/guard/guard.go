// Package guard decides whether a page request may proceed based only on the
// presence of a session cookie. Token validity is checked later by the
// session resolver.
package guard

import (
	"net/url"
	"strings"
)

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

var (
	protectedPrefixes = []string{"/dashboard", "/tasks", "/projects"}
	authPaths         = []string{"/login", "/register"}
	exemptPrefixes    = []string{"/api", "/health", "/ready", "/metrics", "/swagger"}
)

// Decision is the outcome of Evaluate. An empty Location means pass.
type Decision struct {
	Location string
}

// Redirect reports whether the request must be redirected
func (d Decision) Redirect() bool {
	return d.Location != ""
}

// Pass lets the request through
var Pass = Decision{}

// Evaluate decides what to do with a request for path.
func Evaluate(path string, hasSession bool) Decision {
	if Exempt(path) {
		return Pass
	}

	if !hasSession && isProtected(path) {
		return Decision{Location: LoginPath + "?callbackUrl=" + escapeCallback(path)}
	}

	if hasSession && isAuthPath(path) {
		return Decision{Location: DashboardPath}
	}

	return Pass
}

// Exempt reports paths the guard never applies to: API and operational
// routes plus static assets (any path containing a dot).
func Exempt(path string) bool {
	for _, prefix := range exemptPrefixes {
		if matchesPrefix(path, prefix) {
			return true
		}
	}
	return strings.Contains(path, ".")
}

func isProtected(path string) bool {
	for _, prefix := range protectedPrefixes {
		if matchesPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isAuthPath(path string) bool {
	for _, p := range authPaths {
		if path == p {
			return true
		}
	}
	return false
}

// matchesPrefix matches the path itself or anything below it, so
// "/projects" covers "/projects/1" but not "/projectsX".
func matchesPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// escapeCallback query-escapes the path but keeps slashes readable.
func escapeCallback(path string) string {
	return strings.ReplaceAll(url.QueryEscape(path), "%2F", "/")
}
