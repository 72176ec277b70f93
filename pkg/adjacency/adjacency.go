// Package adjacency derives directional compatibility constraints between
// catalog fragments by exact pixel-overlap comparison.
//
// For every ordered fragment pair and every orthogonal offset, two fragments
// are compatible when each pixel in the region where their footprints
// intersect (with the second footprint shifted by the offset) is identical.
// The per-(source, offset) lists of compatible fragments are wrapped in
// identified [Set] values and collected in a [Table], which the topology
// builder wires into the node grid.
//
// Diagonal and center offsets are never used; the overlap relation for an
// orthogonal offset already pins the shared pixel band, so orthogonal
// constraints alone are sufficient.
package adjacency

import (
	"fmt"

	"github.com/tilewright/tilewright/pkg/errors"
	"github.com/tilewright/tilewright/pkg/fragment"
)

// Offset is a directional displacement between two grid positions.
// Only the four orthogonal unit offsets are valid for constraints.
type Offset struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// The four orthogonal offsets. Y grows downward, matching image coordinates.
var (
	Up    = Offset{DX: 0, DY: -1}
	Down  = Offset{DX: 0, DY: 1}
	Left  = Offset{DX: -1, DY: 0}
	Right = Offset{DX: 1, DY: 0}
)

// Orthogonal lists the four valid constraint offsets in a fixed order.
var Orthogonal = []Offset{Up, Down, Left, Right}

// Valid reports whether the offset is one of the four orthogonal unit
// offsets. Center (0,0) and diagonal offsets are invalid for constraints.
func (o Offset) Valid() bool {
	return (o.DX == 0) != (o.DY == 0) && o.DX >= -1 && o.DX <= 1 && o.DY >= -1 && o.DY <= 1
}

// Inverse returns the opposite offset.
func (o Offset) Inverse() Offset {
	return Offset{DX: -o.DX, DY: -o.DY}
}

// Name returns a stable lowercase name for the offset, used in wire formats
// and diagnostics.
func (o Offset) Name() string {
	switch o {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("(%d,%d)", o.DX, o.DY)
}

// ParseOffset resolves an offset name produced by [Offset.Name].
func ParseOffset(name string) (Offset, error) {
	for _, o := range Orthogonal {
		if o.Name() == name {
			return o, nil
		}
	}
	return Offset{}, errors.New(errors.ErrCodeInvalidOffset, "unknown offset %q", name)
}

// Overlapping reports whether other, shifted by off relative to root, matches
// root pixel-for-pixel over the full region where their footprints intersect.
//
// The relation is symmetric under inversion:
// Overlapping(a, b, off) == Overlapping(b, a, off.Inverse()).
func Overlapping(root, other *fragment.Fragment, off Offset) bool {
	yLo := max(0, off.DY)
	yHi := min(root.Height(), off.DY+other.Height())
	xLo := max(0, off.DX)
	xHi := min(root.Width(), off.DX+other.Width())

	for y := yLo; y < yHi; y++ {
		for x := xLo; x < xHi; x++ {
			rp, err := root.At(x, y)
			if err != nil {
				return false
			}
			op, err := other.At(x-off.DX, y-off.DY)
			if err != nil {
				return false
			}
			if rp != op {
				return false
			}
		}
	}
	return true
}
