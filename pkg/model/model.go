// Package model defines the records that flow through the ingestion pipeline.
//
// A [RawSearchRecord] is what a registry search returns, an
// [EnrichmentResult] is what one metadata source says about ownership, and a
// [CanonicalRecord] is the schema-stable row written to the snapshot.
package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Platform identifiers as used by the registry search API.
const (
	PlatformPyPI = "pypi"
	PlatformCRAN = "cran"
)

// Sentinels for missing values.
const (
	// NotAvailable marks a string field that no source could provide.
	NotAvailable = "N/A"

	// UnknownOwner marks an owner that a source answered for but did not name.
	UnknownOwner = "unknown"
)

// RawSearchRecord is one package entry from a registry search response.
// Fields the upstream omits or sends as null decode to their zero values.
type RawSearchRecord struct {
	Name                     string            `json:"name"`
	Platform                 string            `json:"platform"`
	RepositoryURL            string            `json:"repository_url"`
	Description              string            `json:"description"`
	Homepage                 string            `json:"homepage"`
	LatestReleaseNumber      string            `json:"latest_release_number"`
	LatestReleasePublishedAt string            `json:"latest_release_published_at"`
	ContributorsCount        Count             `json:"contributors_count"`
	Stars                    Count             `json:"stars"`
	Forks                    Count             `json:"forks"`
	DependentsCount          Count             `json:"dependents_count"`
	Versions                 []json.RawMessage `json:"versions"`
}

// EnrichmentResult holds the ownership facts one metadata source provides.
type EnrichmentResult struct {
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email,omitempty"`
	Homepage   string `json:"homepage,omitempty"`

	// Internal is the organization-ownership signal from this source alone.
	Internal bool `json:"internal"`
}

// CanonicalRecord is one row of the output snapshot.
// It is constructed once and never mutated afterwards.
type CanonicalRecord struct {
	Name            string     `json:"name"`
	Platform        string     `json:"platform"`
	LatestVersion   string     `json:"latest_version"`
	LastUpdated     *time.Time `json:"last_updated"` // nil when missing or unparsable
	Description     string     `json:"description"`
	Homepage        string     `json:"homepage"`
	Repository      string     `json:"repository"` // empty means no public repository
	OwnerName       string     `json:"owner_name"`
	Internal        bool       `json:"internal"`
	Contributors    int        `json:"contributors"`
	Stars           int        `json:"stars"`
	Forks           int        `json:"forks"`
	ReleaseCount    int        `json:"release_count"`
	DependentsCount int        `json:"dependents_count"`
	DownloadedAt    time.Time  `json:"downloaded_at"`
}

// Count is an integer field that decodes leniently. JSON numbers and numeric
// strings are accepted; null, negative values and anything else decode to 0
// instead of failing the whole page.
type Count int

// UnmarshalJSON implements json.Unmarshaler.
func (c *Count) UnmarshalJSON(b []byte) error {
	*c = 0
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		if f > 0 && f < math.MaxInt32 {
			*c = Count(f)
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 {
			*c = Count(n)
		}
	}
	return nil
}
