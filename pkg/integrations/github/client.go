package github

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/statisticsnorway/pkgdash/pkg/cache"
	"github.com/statisticsnorway/pkgdash/pkg/integrations"
)

// DefaultBaseURL is the GitHub REST API root.
const DefaultBaseURL = "https://api.github.com"

// Client provides access to the GitHub API for repository owner lookups.
// It handles HTTP requests with optional caching and authentication.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitHub API client with optional authentication.
// Pass an empty string for token to use unauthenticated requests (lower rate
// limits) and an empty baseURL for [DefaultBaseURL].
func NewClient(baseURL, token string, backend cache.Cache, cacheTTL time.Duration, opts ...integrations.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return &Client{
		Client:  integrations.NewClient(backend, "github:", cacheTTL, headers, opts...),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// FetchRepo retrieves repository metadata, including its owner.
// It returns [integrations.ErrNotFound] for unknown or private repositories.
func (c *Client) FetchRepo(ctx context.Context, owner, repo string) (*Repo, error) {
	if err := ValidateRepoRef(owner, repo); err != nil {
		return nil, err
	}

	var data apiRepoResponse
	url := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, repo)
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: github repo %s/%s", integrations.ErrNotFound, owner, repo)
		}
		return nil, err
	}

	return &Repo{
		Name:        data.Name,
		FullName:    data.FullName,
		Description: data.Description,
		HTMLURL:     data.HTMLURL,
		Homepage:    data.Homepage,
		Owner:       data.Owner,
		Stars:       data.Stars,
		Forks:       data.Forks,
		Archived:    data.Archived,
		PushedAt:    data.PushedAt,
	}, nil
}

// ParseRepoURL returns the owner and repository name from a GitHub URL in
// any of the usual forms (https, ssh, git+https, with or without .git).
// The last two path segments are used. ok is false for non-GitHub URLs and
// for segments GitHub would not accept.
func ParseRepoURL(raw string) (owner, repo string, ok bool) {
	if !integrations.IsGitHubURL(raw) {
		return "", "", false
	}
	owner, repo, ok = integrations.OwnerRepo(raw)
	if !ok || ValidateRepoRef(owner, repo) != nil {
		return "", "", false
	}
	return owner, repo, true
}
