// Package world turns a reconstructed pixel grid into discrete
// obstacles. Cells whose pixel exactly matches the wall sentinel
// become one obstacle each at a fixed world-space scale; every other
// cell is open space. The scanner owns a monotonic id counter, so two
// scanners never share naming state.
package world

import (
	"fmt"

	"github.com/tilewright/tilewright/pkg/errors"
	"github.com/tilewright/tilewright/pkg/fragment"
	"github.com/tilewright/tilewright/pkg/reconstruct"
)

// Wall is the sentinel color marking an obstacle cell.
var Wall = fragment.Pixel{0, 0, 0, 255}

// DefaultScale is the world-space edge length of one grid cell.
const DefaultScale = 200.0

// Obstacle is one solid cell placed in world space.
type Obstacle struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	CellX int     `json:"cell_x"`
	CellY int     `json:"cell_y"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size"`
}

// Scanner converts grids to obstacles. The zero value is not usable;
// construct with NewScanner.
type Scanner struct {
	wall   fragment.Pixel
	scale  float64
	nextID int
}

// Option adjusts a Scanner.
type Option func(*Scanner)

// WithWall overrides the wall sentinel color.
func WithWall(p fragment.Pixel) Option {
	return func(s *Scanner) { s.wall = p }
}

// WithScale overrides the world-space cell size.
func WithScale(scale float64) Option {
	return func(s *Scanner) { s.scale = scale }
}

// NewScanner returns a scanner with the default sentinel and scale.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{wall: Wall, scale: DefaultScale}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan walks the grid in column-then-row order and returns one
// obstacle per wall cell. IDs continue across calls on the same
// scanner.
func (s *Scanner) Scan(grid *reconstruct.Grid) ([]Obstacle, error) {
	if grid == nil {
		return nil, errors.New(errors.ErrCodeInvariant, "nil grid")
	}
	if s.scale <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "scale %v must be positive", s.scale)
	}

	var obstacles []Obstacle
	for x := 0; x < grid.Width; x++ {
		for y := 0; y < grid.Height; y++ {
			p, err := grid.At(x, y)
			if err != nil {
				return nil, err
			}
			if p != s.wall {
				continue
			}
			obstacles = append(obstacles, s.place(x, y))
		}
	}
	return obstacles, nil
}

// ScanAsync runs Scan on a goroutine and delivers obstacles on the
// returned channel, closing it when the walk finishes. The channel is
// buffered so the producer can run ahead of a consumer that drains it
// once per frame.
func (s *Scanner) ScanAsync(grid *reconstruct.Grid) (<-chan Obstacle, <-chan error) {
	out := make(chan Obstacle, 64)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		obstacles, err := s.Scan(grid)
		if err != nil {
			errc <- err
			return
		}
		for _, o := range obstacles {
			out <- o
		}
	}()
	return out, errc
}

func (s *Scanner) place(x, y int) Obstacle {
	o := Obstacle{
		ID:    s.nextID,
		Name:  fmt.Sprintf("obstacle-%d-%d-%d", x, y, s.nextID),
		CellX: x,
		CellY: y,
		X:     float64(x) * s.scale,
		Y:     float64(y) * s.scale,
		Size:  s.scale,
	}
	s.nextID++
	return o
}

// Drain receives whatever is immediately available on ch without
// blocking and reports whether the channel is still open. Callers
// loop this from a frame or poll loop.
func Drain(ch <-chan Obstacle) (drained []Obstacle, open bool) {
	open = true
	for {
		select {
		case o, ok := <-ch:
			if !ok {
				return drained, false
			}
			drained = append(drained, o)
		default:
			return drained, true
		}
	}
}
