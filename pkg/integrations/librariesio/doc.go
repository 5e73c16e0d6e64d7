// Package librariesio provides an HTTP client for the Libraries.io API.
//
// # Overview
//
// Libraries.io indexes packages across registries. pkgdash uses it to
// discover which PyPI and CRAN packages mention an organization:
//
//	client := librariesio.NewClient("", apiKey, nil, cache.TTLHTTP)
//	records, err := client.Search(ctx, []string{"statisticsnorway"}, []string{"pypi", "cran"})
//
// [Client.Search] issues one paginated query per term and platform and
// returns the union of all pages. [Client.FetchProject] reads the project
// endpoint, whose owner object is used by the owner enrichment strategy.
//
// Every request carries the API key as the api_key query parameter; the key
// is redacted from errors and cache keys.
package librariesio
