// Package httputil provides HTTP utilities for upstream API clients.
//
// # Overview
//
// This package provides infrastructure used by the registry and metadata
// clients in [integrations]:
//
//   - [RetryRateLimited]: retry loop for HTTP 429 responses
//   - [ParseRetryAfter]: Retry-After header parsing (seconds or HTTP date)
//   - [ParseLinkHeader]: RFC 8288 Link header parsing for pagination
//   - [NewHTTPClient]: HTTP client with a DNS-caching dialer
//
// # Rate Limits
//
// Upstreams such as Libraries.io enforce a fixed request rate and answer
// HTTP 429 when it is exceeded. [RetryRateLimited] trusts the server: it
// sleeps exactly the Retry-After duration (60 seconds when absent) and
// retries the same request, with no attempt ceiling and no backoff growth.
// Every other failure is returned to the caller unchanged.
//
//	err := httputil.RetryRateLimited(ctx, httputil.Sleep, nil, func() error {
//	    return doRequest(ctx, url)
//	})
//
// [integrations]: github.com/statisticsnorway/pkgdash/pkg/integrations
package httputil
