package world

import (
	"testing"

	"github.com/tilewright/tilewright/pkg/fragment"
	"github.com/tilewright/tilewright/pkg/reconstruct"
)

// wallGrid builds a grid with wall pixels at the given cells.
func wallGrid(t *testing.T, w, h int, walls ...[2]int) *reconstruct.Grid {
	t.Helper()
	grid, err := reconstruct.NewGrid(w, h)
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}
	for _, c := range walls {
		grid.Pixels[c[1]*w+c[0]] = Wall
	}
	return grid
}

func TestScan(t *testing.T) {
	grid := wallGrid(t, 3, 3, [2]int{0, 0}, [2]int{2, 1}, [2]int{1, 2})

	obstacles, err := NewScanner().Scan(grid)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(obstacles) != 3 {
		t.Fatalf("Scan() returned %d obstacles, want 3", len(obstacles))
	}

	// IDs are dense and start at zero.
	for i, o := range obstacles {
		if o.ID != i {
			t.Errorf("obstacle %d has id %d", i, o.ID)
		}
		if o.Size != DefaultScale {
			t.Errorf("obstacle %d size = %v, want %v", i, o.Size, DefaultScale)
		}
		if o.X != float64(o.CellX)*DefaultScale || o.Y != float64(o.CellY)*DefaultScale {
			t.Errorf("obstacle %d position (%v,%v) does not match cell (%d,%d)",
				i, o.X, o.Y, o.CellX, o.CellY)
		}
	}
}

func TestScanIgnoresNonWallPixels(t *testing.T) {
	grid := wallGrid(t, 2, 2)
	grid.Pixels[0] = fragment.Pixel{0, 0, 0, 254} // alpha off by one

	obstacles, err := NewScanner().Scan(grid)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(obstacles) != 0 {
		t.Errorf("Scan() returned %d obstacles, want 0", len(obstacles))
	}
}

func TestScannerCounterPersistsAcrossScans(t *testing.T) {
	s := NewScanner()
	grid := wallGrid(t, 2, 1, [2]int{0, 0})

	first, err := s.Scan(grid)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	second, err := s.Scan(grid)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if first[0].ID != 0 || second[0].ID != 1 {
		t.Errorf("ids = %d, %d; want 0, 1", first[0].ID, second[0].ID)
	}
	if first[0].Name == second[0].Name {
		t.Errorf("names collide: %s", first[0].Name)
	}

	// A fresh scanner starts over; counters are per-scanner, not global.
	fresh, err := NewScanner().Scan(grid)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if fresh[0].ID != 0 {
		t.Errorf("fresh scanner first id = %d, want 0", fresh[0].ID)
	}
}

func TestScannerOptions(t *testing.T) {
	custom := fragment.Pixel{7, 7, 7, 255}
	grid := wallGrid(t, 2, 1)
	grid.Pixels[1] = custom

	obstacles, err := NewScanner(WithWall(custom), WithScale(1)).Scan(grid)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(obstacles) != 1 {
		t.Fatalf("Scan() returned %d obstacles, want 1", len(obstacles))
	}
	if obstacles[0].X != 1 || obstacles[0].Size != 1 {
		t.Errorf("obstacle = %+v, want unit scale at x=1", obstacles[0])
	}

	if _, err := NewScanner(WithScale(0)).Scan(grid); err == nil {
		t.Error("Scan() with zero scale = nil error")
	}
}

func TestScanAsyncAndDrain(t *testing.T) {
	grid := wallGrid(t, 4, 1, [2]int{0, 0}, [2]int{2, 0}, [2]int{3, 0})

	ch, errc := NewScanner().ScanAsync(grid)

	var got []Obstacle
	for {
		drained, open := Drain(ch)
		got = append(got, drained...)
		if !open {
			break
		}
	}
	if err := <-errc; err != nil {
		t.Fatalf("ScanAsync() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("drained %d obstacles, want 3", len(got))
	}
}
