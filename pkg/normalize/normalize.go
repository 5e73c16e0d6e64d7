// Package normalize projects enriched search records onto the canonical
// snapshot schema, removes duplicates and orders the result.
//
// The output is deterministic for a given input order: the same input
// always yields the same records in the same order.
package normalize

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/statisticsnorway/pkgdash/pkg/model"
)

// Input is one classified package.
type Input struct {
	Raw        model.RawSearchRecord
	Enrichment model.EnrichmentResult
	Internal   bool
}

// Canonical builds the snapshot record for one package. Missing strings
// become "N/A", missing counts 0 and an unparsable timestamp nil. The
// repository stays empty when the package has none.
func Canonical(in Input, downloadedAt time.Time) model.CanonicalRecord {
	raw, enr := in.Raw, in.Enrichment
	return model.CanonicalRecord{
		Name:            strings.TrimSpace(raw.Name),
		Platform:        orNA(strings.ToLower(raw.Platform)),
		LatestVersion:   orNA(raw.LatestReleaseNumber),
		LastUpdated:     ParseTime(raw.LatestReleasePublishedAt),
		Description:     orNA(raw.Description),
		Homepage:        firstNonEmpty(enr.Homepage, raw.Homepage, model.NotAvailable),
		Repository:      strings.TrimSpace(raw.RepositoryURL),
		OwnerName:       orNA(enr.OwnerName),
		Internal:        in.Internal,
		Contributors:    int(raw.ContributorsCount),
		Stars:           int(raw.Stars),
		Forks:           int(raw.Forks),
		ReleaseCount:    len(raw.Versions),
		DependentsCount: int(raw.DependentsCount),
		DownloadedAt:    downloadedAt.UTC(),
	}
}

// Build projects, deduplicates and sorts. Inputs without a name are
// dropped. It returns the records and the number of duplicates collapsed.
func Build(inputs []Input, downloadedAt time.Time) ([]model.CanonicalRecord, int) {
	records := make([]model.CanonicalRecord, 0, len(inputs))
	for _, in := range inputs {
		rec := Canonical(in, downloadedAt)
		if rec.Name == "" {
			continue
		}
		records = append(records, rec)
	}
	deduped, dups := Dedupe(records)
	Sort(deduped)
	return deduped, dups
}

// Dedupe keeps one record per exact name. The last record seen for a name
// wins and takes the position where that name first appeared. It returns
// a new slice and the number of records removed.
func Dedupe(records []model.CanonicalRecord) ([]model.CanonicalRecord, int) {
	index := make(map[string]int, len(records))
	out := make([]model.CanonicalRecord, 0, len(records))
	for _, r := range records {
		if i, ok := index[r.Name]; ok {
			out[i] = r
			continue
		}
		index[r.Name] = len(out)
		out = append(out, r)
	}
	return out, len(records) - len(out)
}

// Sort orders records by LastUpdated, newest first, with missing
// timestamps last. Equal keys keep their relative order.
func Sort(records []model.CanonicalRecord) {
	slices.SortStableFunc(records, func(a, b model.CanonicalRecord) int {
		switch {
		case a.LastUpdated == nil && b.LastUpdated == nil:
			return 0
		case a.LastUpdated == nil:
			return 1
		case b.LastUpdated == nil:
			return -1
		}
		return cmp.Compare(b.LastUpdated.UnixNano(), a.LastUpdated.UnixNano())
	})
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTime parses the timestamp formats registries return. Values without
// a zone are taken as UTC. It returns nil for empty or unparsable input.
func ParseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func orNA(s string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return model.NotAvailable
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
