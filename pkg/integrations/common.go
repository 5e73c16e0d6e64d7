package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/statisticsnorway/pkgdash/pkg/httputil"
)

const httpTimeout = 30 * time.Second

var (
	// ErrNotFound is returned when a package or resource doesn't exist in the registry.
	// Callers treat it as "no data", never as a failure of the run.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for transport failures (DNS, refused connections, timeouts).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with a standard timeout for registry
// requests and a DNS-caching dialer.
func NewHTTPClient() *http.Client {
	return httputil.NewHTTPClient(httpTimeout)
}

// NormalizePkgName converts a package name to its canonical form.
// Applies lowercase and replaces underscores with hyphens, following PEP 503
// normalization rules used by PyPI.
func NormalizePkgName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

var repoURLReplacer = strings.NewReplacer(
	"git@github.com:", "https://github.com/",
	"git://github.com/", "https://github.com/",
)

// NormalizeRepoURL converts various repository URL formats to canonical HTTPS form.
// Handles git@, git://, and git+ prefixes, and removes .git suffixes and
// trailing slashes. Returns empty string if raw is empty.
func NormalizeRepoURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.TrimPrefix(s, "git+")
	s = repoURLReplacer.Replace(s)
	s = strings.TrimSuffix(s, "/")
	return strings.TrimSuffix(s, ".git")
}

// RepoPath returns the lowercased "host/path" of a repository URL, without
// scheme, credentials, query or trailing slash. It returns "" when raw does
// not contain a host.
//
//	RepoPath("https://GitHub.com/StatisticsNorway/ssb-klass-python.git")
//	// github.com/statisticsnorway/ssb-klass-python
func RepoPath(raw string) string {
	s := NormalizeRepoURL(raw)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	path := strings.Trim(strings.ToLower(u.Path), "/")
	if path == "" {
		return host
	}
	return host + "/" + path
}

// OwnerRepo returns the last two path segments of a repository URL, which
// GitHub uses as owner and repository name. ok is false when the URL has
// fewer than two segments.
func OwnerRepo(raw string) (owner, repo string, ok bool) {
	p := RepoPath(raw)
	if p == "" {
		return "", "", false
	}
	parts := strings.Split(p, "/")[1:]
	if len(parts) < 2 {
		return "", "", false
	}
	return parts[len(parts)-2], parts[len(parts)-1], true
}

// IsGitHubURL reports whether raw points at github.com.
func IsGitHubURL(raw string) bool {
	return strings.HasPrefix(RepoPath(raw), "github.com/")
}

var secretParams = []string{"api_key", "access_token", "token"}

// RedactURL replaces secret query parameter values in raw with "REDACTED".
// Unparsable input is returned unchanged.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	q := u.Query()
	changed := false
	for _, p := range secretParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// URLEncode percent-encodes a string for use in URLs.
// This is a convenience wrapper around [url.QueryEscape].
func URLEncode(s string) string { return url.QueryEscape(s) }

// PathEscape percent-encodes a single URL path segment.
func PathEscape(s string) string { return url.PathEscape(s) }
