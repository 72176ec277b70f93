// Package reconstruct converts a solved assignment back into pixels.
//
// The grid nodes overlap: moving one node right or down shifts the
// fragment window by a single pixel. Interior nodes therefore only
// contribute their top-left pixel; the last grid column and row blit
// their full fragment block to cover the margin that no further window
// reaches. This single-pixel stitch is sound because the constraint
// sets guarantee pairwise overlap consistency between neighbors, so
// reconstruction never re-checks pixel agreement.
package reconstruct

import (
	"image"
	"image/color"

	"github.com/tilewright/tilewright/pkg/errors"
	"github.com/tilewright/tilewright/pkg/fragment"
	"github.com/tilewright/tilewright/pkg/solver"
	"github.com/tilewright/tilewright/pkg/topology"
)

// Background is the sentinel color the output buffer starts from.
// Any pixel still carrying it after reconstruction was never written,
// which the world scanner treats as empty space.
var Background = fragment.Pixel{0, 0, 128, 0}

// Grid is a reconstructed output pixel buffer in row-major order.
type Grid struct {
	Width  int
	Height int
	Pixels []fragment.Pixel
}

// NewGrid allocates a width x height buffer filled with the background
// sentinel.
func NewGrid(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidOutput, "output dimensions %dx%d must be positive", width, height)
	}
	pixels := make([]fragment.Pixel, width*height)
	for i := range pixels {
		pixels[i] = Background
	}
	return &Grid{Width: width, Height: height, Pixels: pixels}, nil
}

// At returns the pixel at (x, y).
func (g *Grid) At(x, y int) (fragment.Pixel, error) {
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return fragment.Pixel{}, errors.New(errors.ErrCodeOutOfBounds, "pixel (%d,%d) outside %dx%d output", x, y, g.Width, g.Height)
	}
	return g.Pixels[y*g.Width+x], nil
}

func (g *Grid) set(x, y int, p fragment.Pixel) {
	g.Pixels[y*g.Width+x] = p
}

// GridFromImage converts a decoded image into a pixel grid, for
// scanning maps that were previously written to disk.
func GridFromImage(img image.Image) (*Grid, error) {
	if img == nil {
		return nil, errors.New(errors.ErrCodeInvalidSample, "nil image")
	}
	b := img.Bounds()
	g, err := NewGrid(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			g.set(x, y, fragment.Pixel{c.R, c.G, c.B, c.A})
		}
	}
	return g, nil
}

// Image converts the grid to a standard NRGBA image.
func (g *Grid) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			p := g.Pixels[y*g.Width+x]
			img.SetNRGBA(x, y, color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]})
		}
	}
	return img
}

// Reconstruct stitches a solved assignment into an output pixel grid.
//
// A node missing from the assignment, a fragment key absent from the
// catalog, or a write that would land outside the output buffer is an
// invariant violation: the solver contract promises a total assignment
// over a grid sized to fit, so these fail loud rather than defaulting.
func Reconstruct(g *topology.Graph, asg solver.Assignment, outW, outH int) (*Grid, error) {
	if g == nil {
		return nil, errors.New(errors.ErrCodeInvariant, "nil graph")
	}
	if wantW, wantH := g.GridWidth+g.FragmentWidth-1, g.GridHeight+g.FragmentHeight-1; outW != wantW || outH != wantH {
		return nil, errors.New(errors.ErrCodeInvariant,
			"output %dx%d does not match grid %dx%d with %dx%d fragments",
			outW, outH, g.GridWidth, g.GridHeight, g.FragmentWidth, g.FragmentHeight)
	}

	out, err := NewGrid(outW, outH)
	if err != nil {
		return nil, err
	}

	lastCol := g.GridWidth - 1
	lastRow := g.GridHeight - 1
	for _, node := range g.Nodes() {
		key, ok := asg[node.Coord]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvariant, "node %s has no assigned fragment", node.Coord)
		}
		frag, ok := g.Catalog.Fragment(key)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvariant, "node %s assigned unknown fragment %s", node.Coord, fragment.ShortKey(key))
		}

		if node.Coord.X == lastCol || node.Coord.Y == lastRow {
			if err := blit(out, frag, node.Coord.X, node.Coord.Y); err != nil {
				return nil, err
			}
			continue
		}
		p, err := frag.At(0, 0)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvariant, err, "node %s fragment has no pixels", node.Coord)
		}
		out.set(node.Coord.X, node.Coord.Y, p)
	}
	return out, nil
}

// blit writes the full fragment block with its top-left corner at (ox, oy).
func blit(out *Grid, frag *fragment.Fragment, ox, oy int) error {
	if ox+frag.Width() > out.Width || oy+frag.Height() > out.Height {
		return errors.New(errors.ErrCodeInvariant, "fragment block at (%d,%d) overruns %dx%d output", ox, oy, out.Width, out.Height)
	}
	for fy := 0; fy < frag.Height(); fy++ {
		for fx := 0; fx < frag.Width(); fx++ {
			p, err := frag.At(fx, fy)
			if err != nil {
				return err
			}
			out.set(ox+fx, oy+fy, p)
		}
	}
	return nil
}
