// Package pipeline runs one package discovery pass for pkgdash.
//
// A run searches the registry index, drops candidates the ownership policy
// can reject on sight, enriches the rest with ownership metadata, makes the
// final ownership decision and normalizes the survivors into canonical
// records:
//
//	search -> platform filter -> prefilter -> enrich -> classify -> normalize
//
// Everything happens sequentially on the caller's goroutine. Upstream
// clients enforce the request delay, so a run over N candidates takes at
// least N request delays.
//
// # Usage
//
//	runner := &pipeline.Runner{
//	    Searcher:  librariesioClient,
//	    Enrichers: enrichers,
//	    Policy:    policy,
//	    Logger:    logger,
//	}
//	result, err := runner.Run(ctx, pipeline.Options{
//	    Terms:     []string{"statisticsnorway"},
//	    Platforms: []string{"pypi", "cran"},
//	})
//	if err != nil {
//	    return err
//	}
//	err = snapshot.WriteFile(path, result.Records)
//
// Fatal search errors abort the run. Enrichment never does: a failed
// lookup degrades to the default enrichment result and is counted in
// [Stats.Enrichment].
package pipeline

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/statisticsnorway/pkgdash/pkg/enrich"
	pkgerrors "github.com/statisticsnorway/pkgdash/pkg/errors"
	"github.com/statisticsnorway/pkgdash/pkg/model"
)

// Searcher discovers candidate packages.
type Searcher interface {
	Search(ctx context.Context, terms, platforms []string) ([]model.RawSearchRecord, error)
}

// Options selects what one run searches for.
type Options struct {
	Terms     []string
	Platforms []string
}

// Validate checks that both lists are non-empty and normalizes platform
// names to lowercase.
func (o *Options) Validate() error {
	if len(o.Terms) == 0 {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "no search terms")
	}
	if len(o.Platforms) == 0 {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidPlatform, "no platforms")
	}
	platforms := make([]string, 0, len(o.Platforms))
	for _, p := range o.Platforms {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" && !slices.Contains(platforms, p) {
			platforms = append(platforms, p)
		}
	}
	if len(platforms) == 0 {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidPlatform, "no platforms")
	}
	o.Platforms = platforms
	return nil
}

// Result is the outcome of a run.
type Result struct {
	RunID        uuid.UUID
	DownloadedAt time.Time
	Records      []model.CanonicalRecord
	Stats        Stats
}

// Stats counts what happened to the discovered records.
type Stats struct {
	Discovered      int
	PlatformSkipped int            // platform not requested
	Unnamed         int            // search entries without a name
	Rejected        map[string]int // by verdict reason
	Enrichment      map[string]int // by enrich.Status
	Duplicates      int
	Final           int
	Duration        time.Duration
}

// RejectedTotal sums Rejected.
func (s Stats) RejectedTotal() int {
	n := 0
	for _, c := range s.Rejected {
		n += c
	}
	return n
}

func newStats() Stats {
	return Stats{
		Rejected:   map[string]int{},
		Enrichment: map[string]int{},
	}
}

func (s *Stats) enriched(st enrich.Status) {
	s.Enrichment[st.String()]++
}
