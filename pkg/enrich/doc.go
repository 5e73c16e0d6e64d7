// Package enrich looks up ownership metadata for discovered packages.
//
// An [Enricher] turns a search record into an [Outcome]. Enrichers never
// return errors: a missing package or failed request degrades to a default
// [model.EnrichmentResult] with owner "N/A", and the [Outcome.Status] says
// why. A source that answered but named no owner reports owner "unknown".
//
// Exactly one strategy is active per run and [NewSet] builds it:
//
//   - "registry": [PyPI] for pypi packages, [CRAN] for cran packages
//   - "owner": [Owner], the Libraries.io project owner, for every platform
//   - "github": [GitHub], the repository owner on GitHub, for every platform
package enrich
