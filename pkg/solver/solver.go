// Package solver defines the constraint-solver contract for generation runs
// and provides a reference implementation.
//
// A [Solver] receives the assembled [topology.Graph] plus a random seed and
// must return either a total per-node single-fragment assignment or a
// contradiction error (ErrCodeContradiction) when no globally consistent
// assignment exists. Nothing in the contract constrains the internal search
// strategy; [Entropic] is one conforming implementation.
//
// Solving is treated as an opaque blocking operation by callers. There is no
// built-in retry: a contradiction aborts the attempt and bounded retry with a
// fresh seed is the pipeline's responsibility.
package solver

import (
	"context"

	"github.com/tilewright/tilewright/pkg/errors"
	"github.com/tilewright/tilewright/pkg/fragment"
	"github.com/tilewright/tilewright/pkg/topology"
)

// Assignment maps every node coordinate to exactly one chosen fragment.
type Assignment map[topology.Coord]fragment.Key

// Solver collapses a constraint graph into a single assignment.
type Solver interface {
	Solve(ctx context.Context, g *topology.Graph, seed uint64) (Assignment, error)
}

// IsContradiction reports whether err signals that no consistent assignment
// exists under the given constraints.
func IsContradiction(err error) bool {
	return errors.Is(err, errors.ErrCodeContradiction)
}

// Verify checks that an assignment is total over the graph and that every
// chosen fragment was a candidate of its node. It does not re-verify
// pairwise overlap consistency; that is guaranteed by construction of the
// constraint sets.
func Verify(g *topology.Graph, asg Assignment) error {
	for _, n := range g.Nodes() {
		k, ok := asg[n.Coord]
		if !ok {
			return errors.New(errors.ErrCodeInvariant, "assignment is missing node %s", n.Coord)
		}
		if _, ok := n.Candidates[k]; !ok {
			return errors.New(errors.ErrCodeInvariant,
				"assignment chose %s for node %s, which is not a candidate", fragment.ShortKey(k), n.Coord)
		}
	}
	if len(asg) != g.NodeCount() {
		return errors.New(errors.ErrCodeInvariant,
			"assignment has %d entries for %d nodes", len(asg), g.NodeCount())
	}
	return nil
}
