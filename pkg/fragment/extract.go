package fragment

import (
	"image"

	"github.com/tilewright/tilewright/pkg/errors"
)

// ExtractOptions configures windowed fragment extraction.
type ExtractOptions struct {
	// FragmentWidth and FragmentHeight are the window dimensions in pixels.
	FragmentWidth  int `json:"fragment_width"`
	FragmentHeight int `json:"fragment_height"`

	// AllowReflection adds mirrored orientation variants to the catalog.
	AllowReflection bool `json:"allow_reflection,omitempty"`

	// AllowRotation adds the three successive 90 degree rotations of each
	// fragment (and, combined with AllowReflection, the full dihedral group).
	AllowRotation bool `json:"allow_rotation,omitempty"`
}

// Extract slices the sample image into every fw×fh window, generates the
// orientation variants requested by opts, and deduplicates the results into a
// weighted catalog.
//
// Base fragments (pre-orientation) whose window sits on the sample's
// bottommost valid row are recorded in the catalog's ground set. Orientation
// variants of a ground fragment are not themselves ground; only the base
// placement carries the marker.
func Extract(img image.Image, opts ExtractOptions) (*Catalog, error) {
	b := img.Bounds()
	sampleW, sampleH := b.Dx(), b.Dy()
	if err := errors.ValidateFragmentSize(opts.FragmentWidth, opts.FragmentHeight, sampleW, sampleH); err != nil {
		return nil, err
	}

	fw, fh := opts.FragmentWidth, opts.FragmentHeight
	catalog := NewCatalog()

	// Base fragment keys per window position, kept only on axes where the
	// window is a single pixel wide or tall. There the overlap test between
	// neighboring fragments compares an empty region, so the constraint
	// builder falls back to neighbors actually observed in the sample.
	gridW, gridH := sampleW-fw+1, sampleH-fh+1
	var baseKeys []Key
	recordH, recordV := fw == 1, fh == 1
	if recordH || recordV {
		baseKeys = make([]Key, gridW*gridH)
	}

	lastRow := gridH - 1
	for y := 0; y < gridH; y++ {
		for x := 0; x < gridW; x++ {
			base, err := FromImage(img, x, y, fw, fh)
			if err != nil {
				return nil, err
			}

			for _, variant := range base.Orientations(opts.AllowReflection, opts.AllowRotation) {
				catalog.Add(variant)
			}

			if y == lastRow {
				if err := catalog.MarkGround(base.Key()); err != nil {
					return nil, err
				}
			}

			if baseKeys != nil {
				baseKeys[y*gridW+x] = base.Key()
				if recordH && x > 0 {
					catalog.RecordNeighbor(baseKeys[y*gridW+x-1], 1, 0, base.Key())
				}
				if recordV && y > 0 {
					catalog.RecordNeighbor(baseKeys[(y-1)*gridW+x], 0, 1, base.Key())
				}
			}
		}
	}

	return catalog, nil
}
