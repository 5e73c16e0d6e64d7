package ownership

import (
	"strings"

	"github.com/statisticsnorway/pkgdash/pkg/integrations"
)

// Org identifies the organization whose packages are collected.
type Org struct {
	// Namespace is the code-hosting namespace, e.g. "github.com/statisticsnorway".
	Namespace string

	// EmailDomain is the organization's e-mail domain, e.g. "ssb.no".
	EmailDomain string
}

// Login returns the last segment of the namespace, which is the
// organization's account name on its code host.
func (o Org) Login() string {
	ns := integrations.RepoPath(o.Namespace)
	if i := strings.LastIndexByte(ns, '/'); i >= 0 {
		return ns[i+1:]
	}
	return ""
}

// OwnsRepository reports whether a repository URL lies inside the namespace.
// Comparison is case-insensitive and respects path segment boundaries, so
// "github.com/statisticsnorway-archive/x" is not inside
// "github.com/statisticsnorway".
func (o Org) OwnsRepository(repoURL string) bool {
	ns := integrations.RepoPath(o.Namespace)
	p := integrations.RepoPath(repoURL)
	if ns == "" || p == "" {
		return false
	}
	return p == ns || strings.HasPrefix(p, ns+"/")
}

// OwnsEmail reports whether addr belongs to the organization's domain.
func (o Org) OwnsEmail(addr string) bool {
	d := integrations.EmailDomain(addr)
	return d != "" && d == strings.ToLower(strings.TrimSpace(o.EmailDomain))
}

// OwnsLogin reports whether login is the organization's account.
func (o Org) OwnsLogin(login string) bool {
	l := o.Login()
	return l != "" && strings.EqualFold(strings.TrimSpace(login), l)
}
