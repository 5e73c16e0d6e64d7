package pypi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/statisticsnorway/pkgdash/pkg/cache"
	pkgerrors "github.com/statisticsnorway/pkgdash/pkg/errors"
	"github.com/statisticsnorway/pkgdash/pkg/integrations"
)

// DefaultBaseURL is the PyPI JSON API root.
const DefaultBaseURL = "https://pypi.org/pypi"

// PackageInfo holds metadata for a Python package from PyPI.
//
// Zero values: All string fields are empty, ProjectURLs is nil.
type PackageInfo struct {
	Name        string            // Normalized package name (e.g., "dapla-toolbelt")
	Version     string            // Latest version string (may be empty)
	Summary     string            // Short package description (may be empty)
	Author      string            // info.author (may be empty)
	AuthorEmail string            // info.author_email, often "Name <addr>" (may be empty)
	HomePage    string            // info.home_page (may be empty)
	ProjectURLs map[string]string // Project URLs from metadata (may be nil)
}

// OwnerName returns the author's display name: info.author when set,
// otherwise the display name part of author_email.
func (p *PackageInfo) OwnerName() string {
	if a := strings.TrimSpace(p.Author); a != "" {
		return a
	}
	name, _ := integrations.SplitAddress(p.AuthorEmail)
	return name
}

// OwnerEmail returns the first address in author_email.
func (p *PackageInfo) OwnerEmail() string {
	_, email := integrations.SplitAddress(p.AuthorEmail)
	return email
}

// ProjectURL returns the canonical pypi.org project page for a package.
func ProjectURL(pkg string) string {
	return "https://pypi.org/project/" + integrations.NormalizePkgName(pkg) + "/"
}

// Client provides access to the PyPI package registry API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a PyPI client.
//
// Parameters:
//   - baseURL: API root; empty selects [DefaultBaseURL]
//   - backend: Cache backend for HTTP response caching (nil disables caching)
//   - cacheTTL: How long responses are cached
func NewClient(baseURL string, backend cache.Cache, cacheTTL time.Duration, opts ...integrations.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  integrations.NewClient(backend, "pypi:", cacheTTL, nil, opts...),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// FetchPackage retrieves metadata for a Python package from PyPI.
//
// The pkg parameter is normalized automatically (case-insensitive, underscores→hyphens).
//
// Returns:
//   - PackageInfo populated with metadata on success
//   - [integrations.ErrNotFound] if the package doesn't exist
//   - an INVALID_PACKAGE error for names PyPI cannot hold
//   - a coded error for any other failure, which is fatal for the run
func (c *Client) FetchPackage(ctx context.Context, pkg string) (*PackageInfo, error) {
	pkg = integrations.NormalizePkgName(pkg)
	if err := pkgerrors.ValidatePythonPackageName(pkg); err != nil {
		return nil, err
	}

	var data apiResponse
	url := fmt.Sprintf("%s/%s/json", c.baseURL, integrations.PathEscape(pkg))
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: pypi package %s", integrations.ErrNotFound, pkg)
		}
		return nil, err
	}

	urls := make(map[string]string, len(data.Info.ProjectURLs))
	for k, v := range data.Info.ProjectURLs {
		if s, ok := v.(string); ok {
			urls[k] = s
		}
	}

	return &PackageInfo{
		Name:        pkg,
		Version:     data.Info.Version,
		Summary:     data.Info.Summary,
		Author:      data.Info.Author,
		AuthorEmail: data.Info.AuthorEmail,
		HomePage:    data.Info.HomePage,
		ProjectURLs: urls,
	}, nil
}

type apiResponse struct {
	Info apiInfo `json:"info"`
}

type apiInfo struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Summary     string         `json:"summary"`
	Author      string         `json:"author"`
	AuthorEmail string         `json:"author_email"`
	HomePage    string         `json:"home_page"`
	ProjectURLs map[string]any `json:"project_urls"`
}
