package fragment

import (
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/tilewright/tilewright/pkg/errors"
)

// Catalog is the deduplicated set of fragments extracted from a sample,
// each with a strictly positive occurrence weight and an optional ground
// marker. Catalogs are built once per generation run by [Extract] and are
// immutable afterwards; no method mutates a catalog after construction
// except Add and MarkGround, which the extractor alone calls.
type Catalog struct {
	fragments map[Key]*Fragment
	weights   map[Key]int
	ground    map[Key]struct{}

	// observed records base fragments seen adjacent in the sample, keyed by
	// direction. It is consulted only for the degenerate offsets where the
	// fragment footprints share no pixels (a 1-wide or 1-tall window), where
	// the overlap test alone carries no information.
	observed map[observation]struct{}
}

// observation is one recorded neighbor sighting in the sample.
type observation struct {
	src    Key
	dx, dy int
	dst    Key
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		fragments: make(map[Key]*Fragment),
		weights:   make(map[Key]int),
		ground:    make(map[Key]struct{}),
		observed:  make(map[observation]struct{}),
	}
}

// Add inserts a fragment, incrementing its weight if a pixel-identical
// fragment is already present. Returns the catalog's canonical instance.
func (c *Catalog) Add(f *Fragment) *Fragment {
	if existing, ok := c.fragments[f.key]; ok {
		c.weights[f.key]++
		return existing
	}
	c.fragments[f.key] = f
	c.weights[f.key] = 1
	return f
}

// MarkGround flags a fragment as sourced from the sample's bottommost valid
// row. The fragment must already be in the catalog.
func (c *Catalog) MarkGround(k Key) error {
	if _, ok := c.fragments[k]; !ok {
		return errors.New(errors.ErrCodeNotFound, "fragment %s not in catalog", shortKey(k))
	}
	c.ground[k] = struct{}{}
	return nil
}

// RecordNeighbor records that dst was extracted at displacement (dx, dy)
// from src in the sample. Both directions are stored so the observed-neighbor
// relation is symmetric under offset inversion.
func (c *Catalog) RecordNeighbor(src Key, dx, dy int, dst Key) {
	c.observed[observation{src: src, dx: dx, dy: dy, dst: dst}] = struct{}{}
	c.observed[observation{src: dst, dx: -dx, dy: -dy, dst: src}] = struct{}{}
}

// ObservedNeighbor reports whether dst was ever seen at displacement (dx, dy)
// from src in the sample.
func (c *Catalog) ObservedNeighbor(src Key, dx, dy int, dst Key) bool {
	_, ok := c.observed[observation{src: src, dx: dx, dy: dy, dst: dst}]
	return ok
}

// Fragment returns the fragment with the given key.
func (c *Catalog) Fragment(k Key) (*Fragment, bool) {
	f, ok := c.fragments[k]
	return f, ok
}

// Weight returns the occurrence count for a fragment, or 0 if absent.
func (c *Catalog) Weight(k Key) int {
	return c.weights[k]
}

// IsGround reports whether the fragment belongs to the ground set.
func (c *Catalog) IsGround(k Key) bool {
	_, ok := c.ground[k]
	return ok
}

// Len returns the number of unique fragments.
func (c *Catalog) Len() int { return len(c.fragments) }

// GroundLen returns the size of the ground set.
func (c *Catalog) GroundLen() int { return len(c.ground) }

// Keys returns all fragment keys in sorted order for deterministic iteration.
func (c *Catalog) Keys() []Key {
	keys := make([]Key, 0, len(c.fragments))
	for k := range c.fragments {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Weights returns a copy of the full weight map.
func (c *Catalog) Weights() map[Key]int {
	out := make(map[Key]int, len(c.weights))
	for k, w := range c.weights {
		out[k] = w
	}
	return out
}

// GroundWeights returns the weight map restricted to ground fragments.
func (c *Catalog) GroundWeights() map[Key]int {
	out := make(map[Key]int, len(c.ground))
	for k := range c.ground {
		out[k] = c.weights[k]
	}
	return out
}

// NonGroundWeights returns the weight map with ground fragments removed.
// Together with [Catalog.GroundWeights] this forms an exhaustive, mutually
// exclusive partition of the catalog.
func (c *Catalog) NonGroundWeights() map[Key]int {
	out := make(map[Key]int, len(c.weights)-len(c.ground))
	for k, w := range c.weights {
		if _, isGround := c.ground[k]; !isGround {
			out[k] = w
		}
	}
	return out
}

// TotalWeight returns the sum of all weights: the total number of extraction
// windows times orientation variants observed.
func (c *Catalog) TotalWeight() int {
	total := 0
	for _, w := range c.weights {
		total += w
	}
	return total
}

// Validate checks catalog invariants: every weight is strictly positive and
// every ground key references a cataloged fragment.
func (c *Catalog) Validate() error {
	for k, w := range c.weights {
		if w <= 0 {
			return errors.New(errors.ErrCodeInvariant, "fragment %s has non-positive weight %d", shortKey(k), w)
		}
		if _, ok := c.fragments[k]; !ok {
			return errors.New(errors.ErrCodeInvariant, "weight entry %s has no fragment", shortKey(k))
		}
	}
	for k := range c.ground {
		if _, ok := c.fragments[k]; !ok {
			return errors.New(errors.ErrCodeInvariant, "ground entry %s has no fragment", shortKey(k))
		}
	}
	return nil
}

// shortKey abbreviates a content key for error messages and labels.
func shortKey(k Key) string {
	if len(k) > 8 {
		return string(k[:8])
	}
	return string(k)
}

// ShortKey abbreviates a content key for display purposes.
func ShortKey(k Key) string { return shortKey(k) }

// =============================================================================
// Serialization
// =============================================================================

// catalogEntry is the JSON wire form of one catalog fragment.
type catalogEntry struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Pixels string `json:"pixels"` // hex-encoded column-major RGBA bytes
	Weight int    `json:"weight"`
	Ground bool   `json:"ground,omitempty"`
}

// observationDoc is the JSON wire form of one neighbor sighting.
type observationDoc struct {
	Src string `json:"src"`
	DX  int    `json:"dx"`
	DY  int    `json:"dy"`
	Dst string `json:"dst"`
}

// catalogDoc is the JSON wire form of a catalog. Entries are sorted by key
// for deterministic output.
type catalogDoc struct {
	Entries  []catalogEntry   `json:"entries"`
	Observed []observationDoc `json:"observed,omitempty"`
}

// MarshalJSON serializes the catalog for caching and artifact export.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	doc := catalogDoc{Entries: make([]catalogEntry, 0, len(c.fragments))}
	for _, k := range c.Keys() {
		f := c.fragments[k]
		raw := make([]byte, 0, len(f.pixels)*4)
		for _, p := range f.pixels {
			raw = append(raw, p[:]...)
		}
		doc.Entries = append(doc.Entries, catalogEntry{
			Width:  f.width,
			Height: f.height,
			Pixels: hex.EncodeToString(raw),
			Weight: c.weights[k],
			Ground: c.IsGround(k),
		})
	}
	for obs := range c.observed {
		doc.Observed = append(doc.Observed, observationDoc{
			Src: string(obs.src), DX: obs.dx, DY: obs.dy, Dst: string(obs.dst),
		})
	}
	sort.Slice(doc.Observed, func(i, j int) bool {
		a, b := doc.Observed[i], doc.Observed[j]
		if a.Src != b.Src {
			return a.Src < b.Src
		}
		if a.DX != b.DX {
			return a.DX < b.DX
		}
		if a.DY != b.DY {
			return a.DY < b.DY
		}
		return a.Dst < b.Dst
	})
	return json.Marshal(doc)
}

// UnmarshalJSON restores a catalog serialized with MarshalJSON.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	var doc catalogDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	c.fragments = make(map[Key]*Fragment, len(doc.Entries))
	c.weights = make(map[Key]int, len(doc.Entries))
	c.ground = make(map[Key]struct{})
	c.observed = make(map[observation]struct{}, len(doc.Observed))
	for _, e := range doc.Entries {
		raw, err := hex.DecodeString(e.Pixels)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFragment, err, "decode pixel buffer")
		}
		if len(raw) != e.Width*e.Height*4 {
			return errors.New(errors.ErrCodeInvalidFragment,
				"pixel buffer has %d bytes, want %d", len(raw), e.Width*e.Height*4)
		}
		pixels := make([]Pixel, e.Width*e.Height)
		for i := range pixels {
			copy(pixels[i][:], raw[i*4:i*4+4])
		}
		f, err := New(e.Width, e.Height, pixels)
		if err != nil {
			return err
		}
		if e.Weight <= 0 {
			return errors.New(errors.ErrCodeInvalidFragment, "fragment %s has invalid weight %d", shortKey(f.key), e.Weight)
		}
		c.fragments[f.key] = f
		c.weights[f.key] = e.Weight
		if e.Ground {
			c.ground[f.key] = struct{}{}
		}
	}
	for _, obs := range doc.Observed {
		c.observed[observation{src: Key(obs.Src), dx: obs.DX, dy: obs.DY, dst: Key(obs.Dst)}] = struct{}{}
	}
	return nil
}
