// Package integrations provides HTTP clients for the upstream APIs pkgdash
// reads from.
//
// # Overview
//
// This package contains the shared fetch and pagination machinery. Each
// upstream has its own subpackage:
//
//   - [librariesio]: Libraries.io search and project owner endpoints
//   - [pypi]: Python Package Index JSON API
//   - [cran]: CRAN package DESCRIPTION files
//   - [github]: GitHub repository API for owner lookups
//
// # Fetching
//
// [Client] implements [Fetcher]. Its error semantics are deliberately strict:
//
//   - HTTP 429 is retried after the server's Retry-After wait (60s when
//     absent), without limit
//   - HTTP 404 returns [ErrNotFound], which callers treat as "no data"
//   - any other non-2xx status returns a [StatusError] and ends the run
//   - transport failures return [ErrNetwork] and end the run
//
// Every successful request is followed by a fixed delay (see [WithDelay]).
// Responses may be cached via [cache.Cache]; caching is off by default.
//
// # Pagination
//
// A [Paginator] walks a paged collection lazily:
//
//	for page, err := range integrations.PageNumber{}.Pages(ctx, client, url, nil) {
//	    if err != nil {
//	        return err
//	    }
//	    // decode page.Body
//	}
//
// [PageNumber] increments a page query parameter; [LinkNext] follows the
// RFC 8288 rel="next" header. Both stop at the first empty or missing page.
// [Collect] flattens pages of JSON arrays into a slice.
//
// [librariesio]: github.com/statisticsnorway/pkgdash/pkg/integrations/librariesio
// [pypi]: github.com/statisticsnorway/pkgdash/pkg/integrations/pypi
// [cran]: github.com/statisticsnorway/pkgdash/pkg/integrations/cran
// [github]: github.com/statisticsnorway/pkgdash/pkg/integrations/github
// [cache.Cache]: github.com/statisticsnorway/pkgdash/pkg/cache.Cache
package integrations
