package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/statisticsnorway/pkgdash/pkg/cache"
	pkgerrors "github.com/statisticsnorway/pkgdash/pkg/errors"
	"github.com/statisticsnorway/pkgdash/pkg/httputil"
	"github.com/statisticsnorway/pkgdash/pkg/observability"
)

const (
	// DefaultDelay is the pause after every successful upstream request.
	DefaultDelay = time.Second

	maxBodySize      = 32 << 20
	maxErrorBodySize = 512
)

// Fetcher retrieves a single URL. [Client] is the production implementation;
// paginators and registry clients only depend on this interface.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) (*Response, error)
}

// Response is a successful (2xx) upstream response.
type Response struct {
	URL    string
	Status int
	Body   []byte
	Links  map[string]string // Link header relations keyed by rel, e.g. "next"
}

// StatusError reports an upstream response with an unexpected status code.
// It is fatal for the run.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}

// Client provides shared HTTP functionality for all registry API clients.
// It handles rate limiting, the inter-request delay, optional response
// caching and common request headers.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	keyer     cache.Keyer
	namespace string
	ttl       time.Duration
	headers   map[string]string
	delay     time.Duration
	sleep     httputil.Sleeper
	logger    *log.Logger
	now       func() time.Time
}

// Option configures a [Client].
type Option func(*Client)

// WithDelay sets the pause after each successful request.
func WithDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

// WithSleeper replaces the function used for the delay and rate-limit waits.
func WithSleeper(s httputil.Sleeper) Option {
	return func(c *Client) { c.sleep = s }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger used for rate-limit and request messages.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Client with the given cache and default headers.
// Headers are applied to all requests made through this client.
// Pass nil for backend to disable caching and nil for headers if no default
// headers are needed.
func NewClient(backend cache.Cache, namespace string, ttl time.Duration, headers map[string]string, opts ...Option) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	c := &Client{
		http:      NewHTTPClient(),
		cache:     backend,
		keyer:     cache.NewDefaultKeyer(),
		namespace: namespace,
		ttl:       ttl,
		headers:   headers,
		delay:     DefaultDelay,
		sleep:     httputil.Sleep,
		logger:    log.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type cachedResponse struct {
	Status int               `json:"status"`
	Body   []byte            `json:"body"`
	Links  map[string]string `json:"links,omitempty"`
}

// Fetch performs a GET request for rawURL.
//
// A 429 response is retried after the server's Retry-After wait, without
// limit. A 404 response returns [ErrNotFound]. Any other non-2xx status
// returns a [StatusError] and a transport failure returns [ErrNetwork], both
// wrapped in a coded error. After a successful request Fetch sleeps for the
// configured delay; cache hits return immediately.
func (c *Client) Fetch(ctx context.Context, rawURL string, headers map[string]string) (*Response, error) {
	key := c.keyer.HTTPKey(c.namespace, RedactURL(rawURL))
	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		var cached cachedResponse
		if json.Unmarshal(data, &cached) == nil {
			observability.Cache().OnCacheHit(ctx, c.namespace)
			return &Response{URL: rawURL, Status: cached.Status, Body: cached.Body, Links: cached.Links}, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, c.namespace)

	var resp *Response
	onWait := func(wait time.Duration, attempt int) {
		c.logger.Warn("rate limited", "url", RedactURL(rawURL), "wait", wait, "attempt", attempt)
	}
	err := httputil.RetryRateLimited(ctx, c.sleep, onWait, func() error {
		r, err := c.doRequest(ctx, rawURL, headers)
		resp = r
		return err
	})
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(cachedResponse{Status: resp.Status, Body: resp.Body, Links: resp.Links}); err == nil {
		if c.cache.Set(ctx, key, data, c.ttl) == nil {
			observability.Cache().OnCacheSet(ctx, c.namespace, len(data))
		}
	}

	if err := c.sleep(ctx, c.delay); err != nil {
		return nil, err
	}
	return resp, nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// It uses the client's default headers.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	resp, err := c.Fetch(ctx, url, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "decode %s", RedactURL(url))
	}
	return nil
}

// GetText performs an HTTP GET request and returns the response body as a string.
// Useful for non-JSON endpoints like CRAN DESCRIPTION files.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	resp, err := c.Fetch(ctx, url, nil)
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

func (c *Client) doRequest(ctx context.Context, rawURL string, headers map[string]string) (*Response, error) {
	redacted := RedactURL(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidInput, err, "build request for %s", redacted)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	host, path := req.URL.Host, req.URL.Path
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeNetwork, fmt.Errorf("%w: %v", ErrNetwork, scrubError(err)), "GET %s", redacted)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeNetwork, fmt.Errorf("%w: %v", ErrNetwork, scrubError(err)), "read %s", redacted)
	}
	hooks.OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))
	c.logger.Debug("fetched", "url", redacted, "status", resp.StatusCode, "bytes", len(body))

	return checkStatus(resp, body, redacted, c.now())
}

func checkStatus(resp *http.Response, body []byte, redacted string, now time.Time) (*Response, error) {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return &Response{
			URL:    resp.Request.URL.String(),
			Status: code,
			Body:   body,
			Links:  httputil.ParseLinkHeader(resp.Header.Get("Link")),
		}, nil
	case code == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, redacted)
	case code == http.StatusTooManyRequests:
		wait, ok := httputil.ParseRetryAfter(resp.Header.Get("Retry-After"), now)
		return nil, &pkgerrors.RateLimitedError{URL: redacted, RetryAfter: wait, RetryAfterSet: ok}
	default:
		statusErr := &StatusError{URL: redacted, StatusCode: code, Body: truncate(string(body), maxErrorBodySize)}
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeHTTPStatus, statusErr, "unexpected response")
	}
}

// scrubError removes query strings from *url.Error messages, which would
// otherwise leak the API key.
func scrubError(err error) error {
	if ue, ok := err.(*url.Error); ok {
		return &url.Error{Op: ue.Op, URL: RedactURL(ue.URL), Err: ue.Err}
	}
	return err
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
