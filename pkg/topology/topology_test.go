package topology

import (
	"image"
	"image/color"
	"testing"

	"github.com/tilewright/tilewright/pkg/adjacency"
	"github.com/tilewright/tilewright/pkg/fragment"
)

// stripeFixture extracts a catalog and table from a 4x4 image with a
// distinct bottom row, using 2x2 windows.
func stripeFixture(t *testing.T) (*fragment.Catalog, *adjacency.Table) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			c := color.NRGBA{40, 40, 40, 255}
			if y == 3 {
				c = color.NRGBA{200, 160, 40, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	cat, err := fragment.Extract(img, fragment.ExtractOptions{FragmentWidth: 2, FragmentHeight: 2})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	table, err := adjacency.Build(cat, adjacency.BuildOptions{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return cat, table
}

func baseOptions() AssembleOptions {
	return AssembleOptions{
		OutputWidth:    6,
		OutputHeight:   6,
		FragmentWidth:  2,
		FragmentHeight: 2,
	}
}

func TestAssembleGridDimensions(t *testing.T) {
	cat, table := stripeFixture(t)

	g, err := Assemble(cat, table, baseOptions())
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	// gridW = outW - fw + 1 = 5, same for height.
	if g.GridWidth != 5 || g.GridHeight != 5 {
		t.Errorf("grid = %dx%d, want 5x5", g.GridWidth, g.GridHeight)
	}
	if g.NodeCount() != 25 {
		t.Errorf("node count = %d, want 25", g.NodeCount())
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestAssembleOpenBoundary(t *testing.T) {
	cat, table := stripeFixture(t)

	g, err := Assemble(cat, table, baseOptions())
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	corner, ok := g.Node(Coord{X: 0, Y: 0})
	if !ok {
		t.Fatal("missing corner node")
	}
	if _, has := corner.Neighbors[adjacency.Left]; has {
		t.Error("non-periodic corner node has a left neighbor")
	}
	if _, has := corner.Neighbors[adjacency.Up]; has {
		t.Error("non-periodic corner node has an up neighbor")
	}
	if len(corner.Neighbors) != 2 {
		t.Errorf("corner has %d neighbors, want 2", len(corner.Neighbors))
	}

	center, _ := g.Node(Coord{X: 2, Y: 2})
	if len(center.Neighbors) != 4 {
		t.Errorf("center has %d neighbors, want 4", len(center.Neighbors))
	}
}

func TestAssemblePeriodicWrap(t *testing.T) {
	cat, table := stripeFixture(t)

	opts := baseOptions()
	opts.Periodic = true
	g, err := Assemble(cat, table, opts)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	// A node at column 0 wraps its left neighbor to column gridWidth-1.
	edge, _ := g.Node(Coord{X: 0, Y: 2})
	left, ok := edge.Neighbors[adjacency.Left]
	if !ok {
		t.Fatal("periodic edge node has no left neighbor")
	}
	if left != (Coord{X: g.GridWidth - 1, Y: 2}) {
		t.Errorf("wrapped left neighbor = %s, want (%d,2)", left, g.GridWidth-1)
	}

	for _, n := range g.Nodes() {
		if len(n.Neighbors) != 4 {
			t.Fatalf("periodic node %s has %d neighbors, want 4", n.Coord, len(n.Neighbors))
		}
	}
}

func TestAssembleGroundPartition(t *testing.T) {
	cat, table := stripeFixture(t)
	if cat.GroundLen() == 0 {
		t.Fatal("fixture catalog has no ground fragments")
	}

	opts := baseOptions()
	opts.ContainsGround = true
	g, err := Assemble(cat, table, opts)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	lastRow := g.GridHeight - 1
	for _, n := range g.Nodes() {
		for k := range n.Candidates {
			isGround := cat.IsGround(k)
			if n.Coord.Y == lastRow && !isGround {
				t.Errorf("non-ground fragment %s is a candidate on the last row", fragment.ShortKey(k))
			}
			if n.Coord.Y != lastRow && isGround {
				t.Errorf("ground fragment %s is a candidate on row %d", fragment.ShortKey(k), n.Coord.Y)
			}
		}
	}

	// The partition is exhaustive: last-row candidates plus other-row
	// candidates cover the whole catalog.
	last, _ := g.Node(Coord{X: 0, Y: lastRow})
	other, _ := g.Node(Coord{X: 0, Y: 0})
	if len(last.Candidates)+len(other.Candidates) != cat.Len() {
		t.Errorf("partition sizes %d + %d != catalog size %d",
			len(last.Candidates), len(other.Candidates), cat.Len())
	}
}

func TestAssembleWithoutGroundUsesFullCatalog(t *testing.T) {
	cat, table := stripeFixture(t)

	g, err := Assemble(cat, table, baseOptions())
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	for _, n := range g.Nodes() {
		if len(n.Candidates) != cat.Len() {
			t.Fatalf("node %s has %d candidates, want full catalog %d", n.Coord, len(n.Candidates), cat.Len())
		}
	}
}

func TestAssembleValidation(t *testing.T) {
	cat, table := stripeFixture(t)

	tests := []struct {
		name   string
		mutate func(*AssembleOptions)
	}{
		{"zero output", func(o *AssembleOptions) { o.OutputWidth = 0 }},
		{"output smaller than fragment", func(o *AssembleOptions) { o.OutputHeight = 1 }},
		{"zero fragment", func(o *AssembleOptions) { o.FragmentWidth = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := baseOptions()
			tt.mutate(&opts)
			if _, err := Assemble(cat, table, opts); err == nil {
				t.Error("Assemble() = nil error, want validation error")
			}
		})
	}

	t.Run("empty catalog", func(t *testing.T) {
		if _, err := Assemble(fragment.NewCatalog(), table, baseOptions()); err == nil {
			t.Error("Assemble() with empty catalog = nil error")
		}
	})
	t.Run("nil table", func(t *testing.T) {
		if _, err := Assemble(cat, nil, baseOptions()); err == nil {
			t.Error("Assemble() with nil table = nil error")
		}
	})
}
