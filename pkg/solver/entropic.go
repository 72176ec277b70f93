package solver

import (
	"context"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/tilewright/tilewright/pkg/adjacency"
	"github.com/tilewright/tilewright/pkg/errors"
	"github.com/tilewright/tilewright/pkg/fragment"
	"github.com/tilewright/tilewright/pkg/topology"
)

// Entropic is a minimum-entropy collapse solver: it repeatedly picks the
// uncollapsed node with the lowest Shannon entropy over its remaining
// weighted candidates, fixes it to one weighted-random candidate, and
// propagates the consequences through the constraint sets until every node
// holds exactly one fragment or some node runs out of candidates.
//
// The solver does not backtrack. A propagation wipeout surfaces as a
// contradiction error and the attempt is abandoned; callers retry with a
// fresh seed if they want another roll.
//
// Given identical graphs and seeds, Solve is deterministic.
type Entropic struct{}

// NewEntropic creates the reference entropic solver.
func NewEntropic() *Entropic { return &Entropic{} }

// wave is the solver's working state: the remaining weighted candidates per
// node. It starts as a copy of each node's candidate map and only ever
// shrinks; the graph itself is never mutated.
type wave map[topology.Coord]map[fragment.Key]int

// Solve implements [Solver].
func (e *Entropic) Solve(ctx context.Context, g *topology.Graph, seed uint64) (Assignment, error) {
	if g == nil || g.NodeCount() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "cannot solve an empty graph")
	}

	rng := rand.New(rand.NewSource(seed))
	nodes := g.Nodes()

	w := make(wave, len(nodes))
	for _, n := range nodes {
		states := make(map[fragment.Key]int, len(n.Candidates))
		for k, weight := range n.Candidates {
			states[k] = weight
		}
		w[n.Coord] = states
	}

	collapsed := make(map[topology.Coord]bool, len(nodes))

	for len(collapsed) < len(nodes) {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "solve cancelled")
		}

		coord, err := e.lowestEntropy(nodes, w, collapsed, rng)
		if err != nil {
			return nil, err
		}

		chosen, err := e.choose(w[coord], rng)
		if err != nil {
			return nil, err
		}
		w[coord] = map[fragment.Key]int{chosen: w[coord][chosen]}
		collapsed[coord] = true

		if err := e.propagate(g, w, coord); err != nil {
			return nil, err
		}
	}

	asg := make(Assignment, len(nodes))
	for coord, states := range w {
		for k := range states {
			asg[coord] = k
		}
	}
	return asg, Verify(g, asg)
}

// lowestEntropy returns the uncollapsed node with minimal Shannon entropy.
// A small random jitter breaks ties so identical grids do not always
// collapse in scan order.
func (e *Entropic) lowestEntropy(nodes []*topology.Node, w wave, collapsed map[topology.Coord]bool, rng *rand.Rand) (topology.Coord, error) {
	best := topology.Coord{}
	bestH := math.Inf(1)
	found := false

	for _, n := range nodes {
		if collapsed[n.Coord] {
			continue
		}
		states := w[n.Coord]
		if len(states) == 0 {
			return best, errors.New(errors.ErrCodeContradiction,
				"node %s has no remaining candidates", n.Coord)
		}

		h := entropy(states) + rng.Float64()*1e-6
		if h < bestH {
			best = n.Coord
			bestH = h
			found = true
		}
	}
	if !found {
		return best, errors.New(errors.ErrCodeInternal, "no uncollapsed node found")
	}
	return best, nil
}

// choose picks one candidate weighted by occurrence count.
func (e *Entropic) choose(states map[fragment.Key]int, rng *rand.Rand) (fragment.Key, error) {
	if len(states) == 0 {
		return "", errors.New(errors.ErrCodeContradiction, "no candidates to choose from")
	}

	keys := make([]fragment.Key, 0, len(states))
	for k := range states {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	weights := make([]float64, len(keys))
	for i, k := range keys {
		weights[i] = float64(states[k])
	}

	sampler := sampleuv.NewWeighted(weights, rng)
	idx, ok := sampler.Take()
	if !ok {
		return "", errors.New(errors.ErrCodeInternal, "weighted sampler exhausted")
	}
	return keys[idx], nil
}

// propagate shrinks neighbor candidate sets to those permitted by some
// remaining state of each changed node, breadth-first until a fixed point.
func (e *Entropic) propagate(g *topology.Graph, w wave, start topology.Coord) error {
	queue := []topology.Coord{start}

	for len(queue) > 0 {
		coord := queue[0]
		queue = queue[1:]

		node, ok := g.Node(coord)
		if !ok {
			return errors.New(errors.ErrCodeInvariant, "propagation reached unknown node %s", coord)
		}

		states := sortedKeys(w[coord])
		for _, off := range adjacency.Orthogonal {
			neighbor, ok := node.Neighbors[off]
			if !ok {
				continue
			}

			// Union of fragments permitted at this offset by any remaining
			// state of the source node.
			permitted := make(map[fragment.Key]struct{})
			for _, s := range states {
				set, ok := g.Table.Lookup(s, off)
				if !ok {
					return errors.New(errors.ErrCodeInvariant,
						"no constraint set for %s at %s", fragment.ShortKey(s), off.Name())
				}
				for _, k := range set.Allowed {
					permitted[k] = struct{}{}
				}
			}

			narrowed := false
			neighborStates := w[neighbor]
			for k := range neighborStates {
				if _, ok := permitted[k]; !ok {
					delete(neighborStates, k)
					narrowed = true
				}
			}
			if len(neighborStates) == 0 {
				return errors.New(errors.ErrCodeContradiction,
					"propagation emptied node %s", neighbor)
			}
			if narrowed {
				queue = append(queue, neighbor)
			}
		}
	}
	return nil
}

// entropy computes the Shannon entropy of a weighted candidate set.
func entropy(states map[fragment.Key]int) float64 {
	if len(states) == 1 {
		return 0
	}
	var sum, sumLog float64
	for _, weight := range states {
		fw := float64(weight)
		sum += fw
		sumLog += fw * math.Log(fw)
	}
	return math.Log(sum) - sumLog/sum
}

// sortedKeys returns map keys in sorted order for deterministic iteration.
func sortedKeys(states map[fragment.Key]int) []fragment.Key {
	keys := make([]fragment.Key, 0, len(states))
	for k := range states {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Ensure Entropic implements Solver.
var _ Solver = (*Entropic)(nil)
