// Package cache provides content-addressed caching for the generation
// pipeline. Fragment extraction and constraint building are pure
// functions of the sample image and the options, so their outputs are
// cached under keys derived from a sample content hash plus the
// options that shaped the stage.
//
// Backends: file (CLI default), Redis (shared deployments), null
// (disabled), and a scoped wrapper for namespace isolation.
package cache

import (
	"context"
	"time"
)

// TTLs per stage. Catalog and table content only changes when the
// sample or options change, so they keep long lifetimes; artifacts
// are seed-specific and expire sooner.
const (
	TTLCatalog  = 7 * 24 * time.Hour
	TTLTable    = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache stores opaque byte blobs under string keys.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	// CatalogKey keys an extracted fragment catalog by sample content
	// hash and the extraction options.
	CatalogKey(sampleHash string, opts CatalogKeyOpts) string

	// TableKey keys a constraint table by catalog hash and build options.
	TableKey(catalogHash string, opts TableKeyOpts) string

	// ArtifactKey keys a reconstructed output by graph hash and the
	// assembly and solve parameters.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// CatalogKeyOpts are the extraction options that affect catalog content.
type CatalogKeyOpts struct {
	FragmentWidth   int
	FragmentHeight  int
	AllowReflection bool
	AllowRotation   bool
}

// TableKeyOpts are the build options that affect constraint table content.
type TableKeyOpts struct {
	Intern bool
}

// ArtifactKeyOpts are the assembly and solve parameters that affect
// the output image.
type ArtifactKeyOpts struct {
	OutputWidth    int
	OutputHeight   int
	Periodic       bool
	ContainsGround bool
	Seed           uint64
}

// DefaultKeyer generates prefixed SHA-256 keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// CatalogKey generates a key for catalog caching.
func (k *DefaultKeyer) CatalogKey(sampleHash string, opts CatalogKeyOpts) string {
	return hashKey("catalog", sampleHash, opts)
}

// TableKey generates a key for constraint table caching.
func (k *DefaultKeyer) TableKey(catalogHash string, opts TableKeyOpts) string {
	return hashKey("table", catalogHash, opts)
}

// ArtifactKey generates a key for output artifact caching.
func (k *DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", graphHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
