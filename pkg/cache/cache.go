// Package cache provides pluggable storage for upstream HTTP responses.
//
// Registry and metadata responses can be cached between runs to speed up
// development and reduce load on rate-limited APIs. Caching never changes
// what a run produces; it only skips requests whose bodies are already known.
//
// Backends:
//   - [NullCache]: never stores anything (the default)
//   - [FileCache]: JSON entries in a local directory
//   - [RedisCache]: shared Redis instance
//
// Keys are produced by a [Keyer] so that different namespaces (registry
// search, PyPI metadata, CRAN DESCRIPTION files) never collide.
package cache

import (
	"context"
	"time"
)

// TTLHTTP is the default lifetime of a cached upstream response.
const TTLHTTP = 24 * time.Hour

// Cache stores opaque byte payloads under string keys.
//
// Get returns (data, true, nil) on a hit and (nil, false, nil) on a miss.
// Expired entries are reported as misses. A ttl of zero stores the entry
// without expiration.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NullCache stores nothing; every Get is a miss. It backs runs with
// caching turned off.
type NullCache struct{}

// NewNullCache returns a [NullCache].
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error { return nil }
func (NullCache) Close() error { return nil }

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey returns the key for an upstream response identified by key
	// within namespace (e.g. "pypi:", "cran:").
	HTTPKey(namespace, key string) string
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}
