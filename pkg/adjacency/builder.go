package adjacency

import (
	"github.com/google/uuid"

	"github.com/tilewright/tilewright/pkg/errors"
	"github.com/tilewright/tilewright/pkg/fragment"
)

// BuildOptions configures constraint set construction.
type BuildOptions struct {
	// Intern shares one Set between all (source, offset) pairs whose
	// compatible lists are identical, bounding memory to the number of
	// distinct lists rather than catalog size × 4. When disabled every
	// (source, offset) pair gets its own uniquely-identified set, matching
	// the simplest construction.
	Intern bool
}

// Build computes, for every catalog fragment and every orthogonal offset, the
// set of fragments compatible at that offset, and returns the assembled
// constraint table.
//
// The pairwise overlap tests have no shared mutable state, so this is a pure
// CPU-bound batch computation; cost is O(n² × fragment area) over the catalog.
func Build(cat *fragment.Catalog, opts BuildOptions) (*Table, error) {
	if cat == nil || cat.Len() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "cannot build constraints from an empty catalog")
	}

	keys := cat.Keys()
	table := &Table{
		sets:     make(map[string]*Set),
		bySource: make(map[fragment.Key]map[Offset]string, len(keys)),
	}
	for _, rootKey := range keys {
		root, _ := cat.Fragment(rootKey)
		byOffset := make(map[Offset]string, len(Orthogonal))

		for _, off := range Orthogonal {
			// A 1-wide window at a horizontal offset (or 1-tall at a
			// vertical one) has an empty overlap region, making the pixel
			// test vacuously true for every pair. Fall back to neighbors
			// actually observed in the sample for that degenerate axis.
			degenerate := (off.DX != 0 && root.Width() == 1) || (off.DY != 0 && root.Height() == 1)

			allowed := make([]fragment.Key, 0, len(keys))
			for _, otherKey := range keys {
				other, _ := cat.Fragment(otherKey)
				if degenerate {
					if cat.ObservedNeighbor(rootKey, off.DX, off.DY, otherKey) {
						allowed = append(allowed, otherKey)
					}
					continue
				}
				if Overlapping(root, other, off) {
					allowed = append(allowed, otherKey)
				}
			}

			var id string
			if opts.Intern {
				// Identical allowed lists collapse to one shared set keyed
				// by content, regardless of source or offset.
				id = contentID(allowed)
				if _, ok := table.sets[id]; !ok {
					table.sets[id] = newSet(id, allowed)
				}
			} else {
				id = uuid.NewString()
				table.sets[id] = newSet(id, allowed)
			}
			byOffset[off] = id
		}

		table.bySource[rootKey] = byOffset
	}

	return table, nil
}
