// Package topology assembles the solvable node grid for a generation run.
//
// A [Graph] bundles the node set with the fragment catalog and adjacency
// table: it is the sole input the constraint solver receives besides an
// optional random seed. Graphs are built once by [Assemble] and are immutable
// afterwards; a new generation run assembles a fresh graph.
//
// The grid has one node per coordinate in [0, gridW) × [0, gridH) where
// gridW = outputWidth - fragmentWidth + 1 and gridH likewise. Neighbor wiring
// respects periodicity: wrapped modulo the grid dimensions when periodic,
// omitted at the boundary otherwise. Candidate states are the catalog weight
// map, partitioned between the last grid row and the rest when ground mode is
// enabled.
package topology

import (
	"fmt"
	"sort"

	"github.com/tilewright/tilewright/pkg/adjacency"
	"github.com/tilewright/tilewright/pkg/errors"
	"github.com/tilewright/tilewright/pkg/fragment"
)

// Coord is an integer grid coordinate. X grows rightward, Y downward.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String returns the coordinate as "(x,y)".
func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }

// Node is one solvable grid position: a weighted candidate-state map and, for
// each live neighbor offset, the neighboring coordinate. The constraint set
// applicable to a neighbor is resolved through the graph's adjacency table
// from whichever fragment the node eventually collapses to.
type Node struct {
	Coord      Coord
	Candidates map[fragment.Key]int
	Neighbors  map[adjacency.Offset]Coord
}

// CandidateKeys returns the node's candidate fragment keys in sorted order
// for deterministic iteration.
func (n *Node) CandidateKeys() []fragment.Key {
	keys := make([]fragment.Key, 0, len(n.Candidates))
	for k := range n.Candidates {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Graph is the immutable bundle of nodes, catalog, and constraint sets handed
// to the solver.
type Graph struct {
	// GridWidth and GridHeight are the node grid dimensions.
	GridWidth  int
	GridHeight int

	// FragmentWidth and FragmentHeight echo the extraction window, needed by
	// reconstruction to size the margin blit.
	FragmentWidth  int
	FragmentHeight int

	Catalog *fragment.Catalog
	Table   *adjacency.Table

	nodes map[Coord]*Node
}

// Node returns the node at the given coordinate.
func (g *Graph) Node(c Coord) (*Node, bool) {
	n, ok := g.nodes[c]
	return n, ok
}

// Nodes returns every node sorted by (Y, X) for deterministic iteration.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Coord.Y != out[j].Coord.Y {
			return out[i].Coord.Y < out[j].Coord.Y
		}
		return out[i].Coord.X < out[j].Coord.X
	})
	return out
}

// NodeCount returns the number of grid nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// AssembleOptions configures node grid assembly.
type AssembleOptions struct {
	// OutputWidth and OutputHeight are the requested output pixel dimensions.
	OutputWidth  int `json:"output_width"`
	OutputHeight int `json:"output_height"`

	// FragmentWidth and FragmentHeight are the extraction window dimensions.
	// They size the grid explicitly rather than being inferred from the
	// catalog, which may hold rotated variants with swapped dimensions.
	FragmentWidth  int `json:"fragment_width"`
	FragmentHeight int `json:"fragment_height"`

	// Periodic wraps out-of-range neighbors modulo the grid dimension.
	// When disabled, boundary nodes simply have no neighbor in that
	// direction (open boundary).
	Periodic bool `json:"periodic,omitempty"`

	// ContainsGround restricts the last grid row to ground fragments and
	// removes ground fragments from every other row.
	ContainsGround bool `json:"contains_ground,omitempty"`
}

// Assemble builds the node grid for the catalog and constraint table.
func Assemble(cat *fragment.Catalog, table *adjacency.Table, opts AssembleOptions) (*Graph, error) {
	if cat == nil || cat.Len() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "cannot assemble a grid from an empty catalog")
	}
	if table == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "cannot assemble a grid without a constraint table")
	}

	fw, fh := opts.FragmentWidth, opts.FragmentHeight
	if fw <= 0 || fh <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidFragment, "fragment size must be positive, got %dx%d", fw, fh)
	}
	if err := errors.ValidateOutputSize(opts.OutputWidth, opts.OutputHeight, fw, fh); err != nil {
		return nil, err
	}

	gridW := opts.OutputWidth - fw + 1
	gridH := opts.OutputHeight - fh + 1

	if opts.ContainsGround && cat.GroundLen() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "ground mode enabled but the catalog has no ground fragments")
	}

	g := &Graph{
		GridWidth:      gridW,
		GridHeight:     gridH,
		FragmentWidth:  fw,
		FragmentHeight: fh,
		Catalog:        cat,
		Table:          table,
		nodes:          make(map[Coord]*Node, gridW*gridH),
	}

	lastRow := gridH - 1
	for y := 0; y < gridH; y++ {
		for x := 0; x < gridW; x++ {
			coord := Coord{X: x, Y: y}

			neighbors := make(map[adjacency.Offset]Coord, len(adjacency.Orthogonal))
			for _, off := range adjacency.Orthogonal {
				nx, ny := x+off.DX, y+off.DY
				if opts.Periodic {
					nx = ((nx % gridW) + gridW) % gridW
					ny = ((ny % gridH) + gridH) % gridH
				}
				if nx < 0 || nx >= gridW || ny < 0 || ny >= gridH {
					continue // open boundary
				}
				neighbors[off] = Coord{X: nx, Y: ny}
			}

			var candidates map[fragment.Key]int
			switch {
			case !opts.ContainsGround:
				candidates = cat.Weights()
			case y == lastRow:
				candidates = cat.GroundWeights()
			default:
				candidates = cat.NonGroundWeights()
			}
			if len(candidates) == 0 {
				return nil, errors.New(errors.ErrCodeInvalidConfig,
					"node %s has no candidate fragments", coord)
			}

			g.nodes[coord] = &Node{Coord: coord, Candidates: candidates, Neighbors: neighbors}
		}
	}

	return g, nil
}

// Validate checks graph invariants: every neighbor reference resolves to a
// live node over a valid orthogonal offset, every candidate weight is
// strictly positive, every candidate references a cataloged fragment, and
// every (candidate, offset) pair has a constraint set in the table.
func (g *Graph) Validate() error {
	for coord, n := range g.nodes {
		if n.Coord != coord {
			return errors.New(errors.ErrCodeInvariant, "node at %s carries coordinate %s", coord, n.Coord)
		}
		for off, nc := range n.Neighbors {
			if !off.Valid() {
				return errors.New(errors.ErrCodeInvariant,
					"node %s has neighbor at invalid offset (%d,%d)", coord, off.DX, off.DY)
			}
			if _, ok := g.nodes[nc]; !ok {
				return errors.New(errors.ErrCodeInvariant,
					"node %s references missing neighbor %s", coord, nc)
			}
		}
		for k, w := range n.Candidates {
			if w <= 0 {
				return errors.New(errors.ErrCodeInvariant,
					"node %s candidate %s has non-positive weight %d", coord, fragment.ShortKey(k), w)
			}
			if _, ok := g.Catalog.Fragment(k); !ok {
				return errors.New(errors.ErrCodeInvariant,
					"node %s candidate %s not in catalog", coord, fragment.ShortKey(k))
			}
			for off := range n.Neighbors {
				if _, ok := g.Table.Lookup(k, off); !ok {
					return errors.New(errors.ErrCodeInvariant,
						"no constraint set for candidate %s at %s", fragment.ShortKey(k), off.Name())
				}
			}
		}
	}
	return nil
}
