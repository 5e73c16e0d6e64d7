// Package config holds the validated settings of a pkgdash run.
//
// A [Config] is a plain value. The CLI fills it from flags, environment and
// config files and passes it down explicitly; nothing in pkgdash reads
// configuration from globals.
package config

import (
	"slices"
	"strings"
	"time"

	"github.com/statisticsnorway/pkgdash/pkg/cache"
	"github.com/statisticsnorway/pkgdash/pkg/enrich"
	pkgerrors "github.com/statisticsnorway/pkgdash/pkg/errors"
	"github.com/statisticsnorway/pkgdash/pkg/integrations"
	"github.com/statisticsnorway/pkgdash/pkg/model"
	"github.com/statisticsnorway/pkgdash/pkg/ownership"
)

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Defaults for an SSB run.
const (
	DefaultTerm        = "statisticsnorway"
	DefaultNamespace   = "github.com/statisticsnorway"
	DefaultEmailDomain = "ssb.no"
	DefaultTestPrefix  = "ssb-libtest"
	DefaultOutput      = "./src/results.csv"
)

// Config is the full set of run settings.
type Config struct {
	APIKey      string // Libraries.io API key (required)
	GitHubToken string // optional, raises GitHub rate limits

	// Upstream roots; empty selects each client's public default.
	LibrariesIOURL string
	PyPIURL        string
	CRANURL        string
	GitHubURL      string

	Terms      []string
	Platforms  []string
	Strategy   string // enrichment strategy: registry, owner or github
	Pagination string // page or link

	Namespace    string
	EmailDomain  string
	TestPrefixes []string
	PolicyFile   string // TOML policy; overrides the three fields above

	Delay   time.Duration // pause after each successful request
	Timeout time.Duration // per-request HTTP timeout
	Output  string

	Cache CacheConfig
}

// CacheConfig selects the optional response cache.
type CacheConfig struct {
	Backend string // none, file or redis
	Dir     string // file backend directory
	TTL     time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Default returns the settings used when nothing is configured. The API key
// is left empty and must be supplied.
func Default() Config {
	return Config{
		Terms:        []string{DefaultTerm},
		Platforms:    []string{model.PlatformPyPI, model.PlatformCRAN},
		Strategy:     enrich.StrategyRegistry,
		Pagination:   integrations.PaginationPage,
		Namespace:    DefaultNamespace,
		EmailDomain:  DefaultEmailDomain,
		TestPrefixes: []string{DefaultTestPrefix},
		Delay:        integrations.DefaultDelay,
		Timeout:      30 * time.Second,
		Output:       DefaultOutput,
		Cache: CacheConfig{
			Backend: CacheNone,
			TTL:     cache.TTLHTTP,
		},
	}
}

var (
	knownPlatforms  = []string{model.PlatformPyPI, model.PlatformCRAN}
	knownStrategies = []string{enrich.StrategyRegistry, enrich.StrategyOwner, enrich.StrategyGitHub}
	knownPagination = []string{integrations.PaginationPage, integrations.PaginationLink}
	knownBackends   = []string{CacheNone, CacheFile, CacheRedis}
)

// Validate checks the configuration before any network call is made.
// List fields are trimmed and lowercased where the values are identifiers.
func (c *Config) Validate() error {
	c.APIKey = strings.TrimSpace(c.APIKey)
	if c.APIKey == "" {
		return pkgerrors.New(pkgerrors.ErrCodeConfigMissing, "LIBRARIESIO_API_KEY is not set")
	}

	c.Terms = cleanList(c.Terms, false)
	if len(c.Terms) == 0 {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "at least one search term is required")
	}

	c.Platforms = cleanList(c.Platforms, true)
	if len(c.Platforms) == 0 {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidPlatform, "at least one platform is required")
	}
	for _, p := range c.Platforms {
		if !slices.Contains(knownPlatforms, p) {
			return pkgerrors.New(pkgerrors.ErrCodeInvalidPlatform, "unsupported platform %q (supported: %s)", p, strings.Join(knownPlatforms, ", "))
		}
	}

	c.Strategy = strings.ToLower(strings.TrimSpace(c.Strategy))
	if !slices.Contains(knownStrategies, c.Strategy) {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "unknown enrichment strategy %q (supported: %s)", c.Strategy, strings.Join(knownStrategies, ", "))
	}
	c.Pagination = strings.ToLower(strings.TrimSpace(c.Pagination))
	if !slices.Contains(knownPagination, c.Pagination) {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "unknown pagination %q (supported: %s)", c.Pagination, strings.Join(knownPagination, ", "))
	}

	c.TestPrefixes = cleanList(c.TestPrefixes, false)
	if c.PolicyFile == "" {
		if strings.TrimSpace(c.Namespace) == "" {
			return pkgerrors.New(pkgerrors.ErrCodeConfigMissing, "organization namespace is not set")
		}
		if strings.TrimSpace(c.EmailDomain) == "" {
			return pkgerrors.New(pkgerrors.ErrCodeConfigMissing, "organization e-mail domain is not set")
		}
	}

	if c.Delay < 0 {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "delay must not be negative")
	}
	if c.Timeout <= 0 {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "timeout must be positive")
	}
	if strings.TrimSpace(c.Output) == "" {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidPath, "output path is empty")
	}

	for _, u := range []struct{ name, value string }{
		{"Libraries.io", c.LibrariesIOURL},
		{"PyPI", c.PyPIURL},
		{"CRAN", c.CRANURL},
		{"GitHub", c.GitHubURL},
	} {
		if u.value == "" {
			continue
		}
		if err := pkgerrors.ValidateURL(u.value); err != nil {
			return pkgerrors.Wrap(pkgerrors.ErrCodeInvalidInput, err, "%s URL %q", u.name, u.value)
		}
	}

	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheNone
	}
	if !slices.Contains(knownBackends, c.Cache.Backend) {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "unknown cache backend %q (supported: %s)", c.Cache.Backend, strings.Join(knownBackends, ", "))
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return pkgerrors.New(pkgerrors.ErrCodeConfigMissing, "redis cache selected but no address set")
	}
	return nil
}

// Org returns the organization identity from the inline settings.
func (c *Config) Org() ownership.Org {
	return ownership.Org{Namespace: c.Namespace, EmailDomain: c.EmailDomain}
}

// Policy returns the ownership policy: the policy file when one is set,
// otherwise the default policy built from the inline settings.
func (c *Config) Policy() (*ownership.Policy, error) {
	if c.PolicyFile != "" {
		return ownership.LoadPolicyFile(c.PolicyFile)
	}
	return ownership.DefaultPolicy(c.Org(), c.TestPrefixes), nil
}

// cleanList trims entries, splits comma-separated values, drops empties
// and duplicates, and optionally lowercases.
func cleanList(values []string, lower bool) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if lower {
				part = strings.ToLower(part)
			}
			if part != "" && !slices.Contains(out, part) {
				out = append(out, part)
			}
		}
	}
	return out
}
