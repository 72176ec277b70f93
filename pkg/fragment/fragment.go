// Package fragment provides the atomic tile unit for constrained map
// generation: fixed-size rectangular blocks of RGBA pixels extracted from a
// sample image.
//
// A [Fragment] is an immutable value. Equality is structural - two fragments
// with identical pixel content compare equal regardless of where in the sample
// (or in which orientation) they were extracted. Each fragment carries a
// precomputed content [Key] so that catalog lookups never re-compare full
// pixel buffers.
//
// Fragments support the dihedral symmetry operations [Fragment.Rotate] and
// [Fragment.Flip]. Applying Rotate four times, or Flip twice, reproduces the
// original fragment exactly.
package fragment

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"

	"github.com/tilewright/tilewright/pkg/errors"
)

// Pixel is a single RGBA color value.
type Pixel [4]uint8

// RGBA returns the pixel as a color.NRGBA for use with the image packages.
func (p Pixel) RGBA() color.NRGBA {
	return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// Hex returns the pixel as a "#rrggbb" string (alpha is dropped).
func (p Pixel) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", p[0], p[1], p[2])
}

// ParseHex parses a "#rgb", "#rrggbb", or "#rrggbbaa" color literal into a
// Pixel. A missing alpha component defaults to fully opaque.
func ParseHex(s string) (Pixel, error) {
	if err := errors.ValidateHexColor(s); err != nil {
		return Pixel{}, err
	}
	raw := s[1:]
	if len(raw) == 3 {
		raw = string([]byte{raw[0], raw[0], raw[1], raw[1], raw[2], raw[2]})
	}
	buf, err := hex.DecodeString(raw)
	if err != nil {
		return Pixel{}, errors.Wrap(errors.ErrCodeInvalidColor, err, "invalid hex color %q", s)
	}
	p := Pixel{0, 0, 0, 255}
	copy(p[:], buf)
	return p, nil
}

// Key is a content-derived fragment identifier: the hex-encoded SHA-256 of the
// fragment dimensions and pixel buffer. Pixel-identical fragments always share
// a key, so keys are safe to use as map keys and cache keys.
type Key string

// Fragment is an immutable width×height grid of RGBA pixels.
// The zero value is not usable; construct fragments with [New] or
// [FromImage].
type Fragment struct {
	width  int
	height int
	// pixels is stored column-major: pixels[x*height+y] is the pixel at (x, y).
	pixels []Pixel
	key    Key
}

// New creates a fragment from a column-major pixel buffer.
// The buffer must contain exactly width*height pixels.
func New(width, height int, pixels []Pixel) (*Fragment, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidFragment, "fragment dimensions must be positive, got %dx%d", width, height)
	}
	if len(pixels) != width*height {
		return nil, errors.New(errors.ErrCodeInvalidFragment, "pixel buffer has %d pixels, want %d", len(pixels), width*height)
	}
	buf := make([]Pixel, len(pixels))
	copy(buf, pixels)
	f := &Fragment{width: width, height: height, pixels: buf}
	f.key = f.computeKey()
	return f, nil
}

// FromImage extracts the width×height window of img whose top-left corner is
// at (x, y). The window must lie entirely within the image bounds.
func FromImage(img image.Image, x, y, width, height int) (*Fragment, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidFragment, "fragment dimensions must be positive, got %dx%d", width, height)
	}
	b := img.Bounds()
	if x < 0 || y < 0 || x+width > b.Dx() || y+height > b.Dy() {
		return nil, errors.New(errors.ErrCodeOutOfBounds,
			"window %dx%d at (%d,%d) exceeds image bounds %dx%d", width, height, x, y, b.Dx(), b.Dy())
	}
	pixels := make([]Pixel, width*height)
	for px := 0; px < width; px++ {
		for py := 0; py < height; py++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x+px, b.Min.Y+y+py)).(color.NRGBA)
			pixels[px*height+py] = Pixel{c.R, c.G, c.B, c.A}
		}
	}
	f := &Fragment{width: width, height: height, pixels: pixels}
	f.key = f.computeKey()
	return f, nil
}

// Width returns the fragment width in pixels.
func (f *Fragment) Width() int { return f.width }

// Height returns the fragment height in pixels.
func (f *Fragment) Height() int { return f.height }

// Key returns the precomputed content key.
func (f *Fragment) Key() Key { return f.key }

// At returns the pixel at (x, y). Coordinates outside the fragment produce an
// ErrCodeOutOfBounds error rather than unchecked access.
func (f *Fragment) At(x, y int) (Pixel, error) {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return Pixel{}, errors.New(errors.ErrCodeOutOfBounds, "pixel (%d,%d) outside fragment %dx%d", x, y, f.width, f.height)
	}
	return f.pixels[x*f.height+y], nil
}

// at is the unchecked accessor for internal loops whose bounds are already
// established.
func (f *Fragment) at(x, y int) Pixel {
	return f.pixels[x*f.height+y]
}

// Pixels returns a copy of the column-major pixel buffer.
func (f *Fragment) Pixels() []Pixel {
	buf := make([]Pixel, len(f.pixels))
	copy(buf, f.pixels)
	return buf
}

// Equal reports whether two fragments have identical dimensions and pixel
// content. Keys are compared first so the full buffer comparison only runs on
// the vanishingly rare hash collision.
func (f *Fragment) Equal(other *Fragment) bool {
	if f == other {
		return true
	}
	if other == nil || f.width != other.width || f.height != other.height || f.key != other.key {
		return false
	}
	for i := range f.pixels {
		if f.pixels[i] != other.pixels[i] {
			return false
		}
	}
	return true
}

// Rotate returns the fragment rotated 90 degrees, with width and height
// swapped. The destination pixel at (x, y) in the new fragment comes from
// source pixel (y, height-1-x). Rotating four times yields the original.
func (f *Fragment) Rotate() *Fragment {
	pixels := make([]Pixel, len(f.pixels))
	// New dims: width' = height, height' = width.
	nw, nh := f.height, f.width
	for x := 0; x < f.width; x++ {
		for y := 0; y < f.height; y++ {
			dx := (f.height - 1) - y
			dy := x
			pixels[dx*nh+dy] = f.at(x, y)
		}
	}
	r := &Fragment{width: nw, height: nh, pixels: pixels}
	r.key = r.computeKey()
	return r
}

// Flip returns the fragment mirrored along the width axis, dimensions
// unchanged. Flipping twice yields the original.
func (f *Fragment) Flip() *Fragment {
	pixels := make([]Pixel, len(f.pixels))
	for x := 0; x < f.width; x++ {
		for y := 0; y < f.height; y++ {
			dx := (f.width - 1) - x
			pixels[dx*f.height+y] = f.at(x, y)
		}
	}
	r := &Fragment{width: f.width, height: f.height, pixels: pixels}
	r.key = r.computeKey()
	return r
}

// Orientations returns the symmetry variants of f according to the flags,
// always starting with f itself:
//
//   - neither flag: {base}
//   - rotation only: {base, rot90, rot180, rot270}
//   - reflection only: {base, flip}
//   - both: the full 8-element dihedral group
func (f *Fragment) Orientations(allowReflection, allowRotation bool) []*Fragment {
	variants := []*Fragment{f}
	switch {
	case allowReflection && allowRotation:
		cur := f
		for i := 0; i < 3; i++ {
			cur = cur.Rotate()
			variants = append(variants, cur)
		}
		cur = cur.Flip()
		variants = append(variants, cur)
		for i := 0; i < 3; i++ {
			cur = cur.Rotate()
			variants = append(variants, cur)
		}
	case allowReflection:
		variants = append(variants, f.Flip())
	case allowRotation:
		cur := f
		for i := 0; i < 3; i++ {
			cur = cur.Rotate()
			variants = append(variants, cur)
		}
	}
	return variants
}

// TopLeft returns the pixel at (0, 0). Every valid fragment has at least one
// pixel, so this cannot fail.
func (f *Fragment) TopLeft() Pixel {
	return f.pixels[0]
}

// AverageColor returns the mean of all pixels, useful for diagnostics
// rendering.
func (f *Fragment) AverageColor() Pixel {
	var r, g, b, a int
	for _, p := range f.pixels {
		r += int(p[0])
		g += int(p[1])
		b += int(p[2])
		a += int(p[3])
	}
	n := len(f.pixels)
	return Pixel{uint8(r / n), uint8(g / n), uint8(b / n), uint8(a / n)}
}

func (f *Fragment) computeKey() Key {
	h := sha256.New()
	var dims [8]byte
	binary.BigEndian.PutUint32(dims[0:4], uint32(f.width))
	binary.BigEndian.PutUint32(dims[4:8], uint32(f.height))
	h.Write(dims[:])
	for _, p := range f.pixels {
		h.Write(p[:])
	}
	return Key(hex.EncodeToString(h.Sum(nil)))
}
