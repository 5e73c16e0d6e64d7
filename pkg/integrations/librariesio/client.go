package librariesio

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/statisticsnorway/pkgdash/pkg/cache"
	pkgerrors "github.com/statisticsnorway/pkgdash/pkg/errors"
	"github.com/statisticsnorway/pkgdash/pkg/integrations"
	"github.com/statisticsnorway/pkgdash/pkg/model"
)

// DefaultBaseURL is the Libraries.io API root.
const DefaultBaseURL = "https://libraries.io/api"

// Client searches Libraries.io and reads project metadata.
type Client struct {
	*integrations.Client
	baseURL   string
	apiKey    string
	paginator integrations.Paginator
}

// NewClient creates a Libraries.io client. An empty baseURL selects
// [DefaultBaseURL]. Search results are paged by page number unless
// [Client.WithPaginator] selects another strategy.
func NewClient(baseURL, apiKey string, backend cache.Cache, cacheTTL time.Duration, opts ...integrations.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:    integrations.NewClient(backend, "librariesio:", cacheTTL, nil, opts...),
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		apiKey:    apiKey,
		paginator: integrations.PageNumber{},
	}
}

// WithPaginator sets the pagination strategy used by [Client.Search].
func (c *Client) WithPaginator(p integrations.Paginator) *Client {
	if p != nil {
		c.paginator = p
	}
	return c
}

// Search queries every term on every platform and returns the concatenated
// results. Order follows terms, then platforms, then pages; duplicates are
// kept. The first fatal fetch error aborts the search.
func (c *Client) Search(ctx context.Context, terms, platforms []string) ([]model.RawSearchRecord, error) {
	if c.apiKey == "" {
		return nil, pkgerrors.New(pkgerrors.ErrCodeConfigMissing, "Libraries.io API key is not set")
	}

	var all []model.RawSearchRecord
	for _, term := range terms {
		for _, platform := range platforms {
			records, err := c.SearchPlatform(ctx, term, platform)
			if err != nil {
				return nil, err
			}
			all = append(all, records...)
		}
	}
	return all, nil
}

// SearchPlatform runs a single paginated query.
func (c *Client) SearchPlatform(ctx context.Context, term, platform string) ([]model.RawSearchRecord, error) {
	q := url.Values{}
	q.Set("q", term)
	q.Set("platforms", platform)
	q.Set("api_key", c.apiKey)
	start := c.baseURL + "/search?" + q.Encode()

	records, err := integrations.Collect[model.RawSearchRecord](c.paginator.Pages(ctx, c.Client, start, nil))
	if err != nil {
		return nil, fmt.Errorf("search %q on %s: %w", term, platform, err)
	}
	return records, nil
}

// Project is the subset of the Libraries.io project endpoint pkgdash reads.
type Project struct {
	Name          string `json:"name"`
	Platform      string `json:"platform"`
	Homepage      string `json:"homepage"`
	RepositoryURL string `json:"repository_url"`
	Owner         *Owner `json:"owner"`
}

// Owner describes who owns a project according to Libraries.io.
type Owner struct {
	Login string `json:"login"`
	Type  string `json:"type"`
	Email string `json:"email"`
}

// FetchProject reads GET {base}/{platform}/{name}. It returns
// [integrations.ErrNotFound] when Libraries.io has no such project.
func (c *Client) FetchProject(ctx context.Context, platform, name string) (*Project, error) {
	if c.apiKey == "" {
		return nil, pkgerrors.New(pkgerrors.ErrCodeConfigMissing, "Libraries.io API key is not set")
	}
	if err := pkgerrors.ValidatePackageName(name); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/%s/%s?api_key=%s", c.baseURL,
		integrations.PathEscape(platform), integrations.PathEscape(name), integrations.URLEncode(c.apiKey))

	var p Project
	if err := c.Get(ctx, u, &p); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: libraries.io project %s/%s", integrations.ErrNotFound, platform, name)
		}
		return nil, err
	}
	return &p, nil
}
