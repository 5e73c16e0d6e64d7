// Package pkg holds the pkgdash libraries.
//
// # Overview
//
// pkgdash collects the packages an organization publishes on PyPI and CRAN
// into a CSV snapshot and renders it as a static dashboard. The libraries
// follow the data through one run:
//
//	Libraries.io search
//	         ↓
//	    [enrich] (owner lookups per platform)
//	         ↓
//	    [ownership] (ordered keep/reject rules)
//	         ↓
//	    [normalize] (canonical records, dedupe, sort)
//	         ↓
//	    [snapshot] CSV  →  [render] HTML
//
// [pipeline] runs these stages. [integrations] holds the HTTP clients,
// [cache] the optional response cache, and [config] the run settings.
//
// # Quick Start
//
//	cfg := config.Default()
//	cfg.APIKey = os.Getenv("LIBRARIESIO_API_KEY")
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
//	lio := librariesio.NewClient("", cfg.APIKey, nil, 0)
//	set, _ := enrich.NewSet(enrich.StrategyRegistry, enrich.Sources{
//	    PyPI:        pypi.NewClient("", nil, 0),
//	    CRAN:        cran.NewClient("", nil, 0),
//	    LibrariesIO: lio,
//	    Org:         cfg.Org(),
//	})
//	policy, _ := cfg.Policy()
//
//	runner := &pipeline.Runner{Searcher: lio, Enrichers: set, Policy: policy, Logger: log.Default()}
//	result, err := runner.Run(ctx, pipeline.Options{Terms: cfg.Terms, Platforms: cfg.Platforms})
//	if err != nil {
//	    return err
//	}
//	return snapshot.WriteFile(cfg.Output, result.Records)
//
// [enrich]: github.com/statisticsnorway/pkgdash/pkg/enrich
// [ownership]: github.com/statisticsnorway/pkgdash/pkg/ownership
// [normalize]: github.com/statisticsnorway/pkgdash/pkg/normalize
// [snapshot]: github.com/statisticsnorway/pkgdash/pkg/snapshot
// [render]: github.com/statisticsnorway/pkgdash/pkg/render
// [pipeline]: github.com/statisticsnorway/pkgdash/pkg/pipeline
// [integrations]: github.com/statisticsnorway/pkgdash/pkg/integrations
// [cache]: github.com/statisticsnorway/pkgdash/pkg/cache
// [config]: github.com/statisticsnorway/pkgdash/pkg/config
package pkg
