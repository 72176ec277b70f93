package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// Useful when several projects or server tenants share one cache
// backend and need separate key spaces.
//
// Example usage:
//
//	// Per-project keys on a shared Redis
//	projectKeyer := NewScopedKeyer(NewDefaultKeyer(), "proj:maze:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// CatalogKey generates a prefixed key for catalog caching.
func (k *ScopedKeyer) CatalogKey(sampleHash string, opts CatalogKeyOpts) string {
	return k.prefix + k.inner.CatalogKey(sampleHash, opts)
}

// TableKey generates a prefixed key for constraint table caching.
func (k *ScopedKeyer) TableKey(catalogHash string, opts TableKeyOpts) string {
	return k.prefix + k.inner.TableKey(catalogHash, opts)
}

// ArtifactKey generates a prefixed key for output artifact caching.
func (k *ScopedKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(graphHash, opts)
}
