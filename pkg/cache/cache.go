// Package cache stores rendered artifacts and fetched data by key.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: one JSON file per entry, used by the CLI
//   - [RedisCache]: shared cache for several server instances
//   - [NullCache]: caching disabled
//
// Keys are produced by a [Keyer] so that every component derives them the
// same way. [ScopedKeyer] prefixes keys for isolated namespaces.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get returns the stored data and true on a hit. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs per kind of entry.
const (
	TTLArtifact = 7 * 24 * time.Hour
	TTLHTTP     = 24 * time.Hour
)

// ArtifactKeyOpts identifies one rendered form of a graph description.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Styled bool    `json:"styled,omitempty"`
	Scale  float64 `json:"scale,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// HTTPKey generates a key for a fetched remote resource.
	HTTPKey(namespace, key string) string

	// ArtifactKey generates a key for a rendered graph artifact.
	ArtifactKey(dotHash string, opts ArtifactKeyOpts) string

	// TableKey generates a key for a loaded tag table.
	TableKey(source, tagID string) string
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// ArtifactKey hashes the description hash together with the options.
func (DefaultKeyer) ArtifactKey(dotHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", dotHash, opts)
}

// TableKey hashes the source location and tag id.
func (DefaultKeyer) TableKey(source, tagID string) string {
	return hashKey("table", source, tagID)
}

var _ Keyer = DefaultKeyer{}
