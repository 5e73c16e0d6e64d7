package cran

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

// DefaultBaseURL is the CRAN mirror root.
const DefaultBaseURL = "https://cran.r-project.org"

// PackageURL returns the canonical CRAN landing page for a package. The name
// keeps its case; CRAN names are case-sensitive.
func PackageURL(name string) string {
	return DefaultBaseURL + "/package=" + name
}

// Client fetches DESCRIPTION files from CRAN.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a CRAN client. An empty baseURL selects [DefaultBaseURL].
func NewClient(baseURL string, backend cache.Cache, cacheTTL time.Duration, opts ...integrations.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  integrations.NewClient(backend, "cran:", cacheTTL, nil, opts...),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// FetchDescription downloads and parses the DESCRIPTION file of a package.
// It returns [integrations.ErrNotFound] when CRAN has no such package.
func (c *Client) FetchDescription(ctx context.Context, name string) (*Description, error) {
	if err := pkgerrors.ValidatePackageName(name); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/web/packages/%s/DESCRIPTION", c.baseURL, name)
	text, err := c.GetText(ctx, url)
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: cran package %s", integrations.ErrNotFound, name)
		}
		return nil, err
	}
	return ParseDescription(text), nil
}
