package adjacency

import (
	"image"
	"image/color"
	"testing"

	"github.com/tilewright/tilewright/pkg/fragment"
)

func mustFragment(t *testing.T, w, h int, pixels []fragment.Pixel) *fragment.Fragment {
	t.Helper()
	f, err := fragment.New(w, h, pixels)
	if err != nil {
		t.Fatalf("fragment.New() error = %v", err)
	}
	return f
}

// solid returns a w×h fragment of a single color.
func solid(t *testing.T, w, h int, p fragment.Pixel) *fragment.Fragment {
	t.Helper()
	pixels := make([]fragment.Pixel, w*h)
	for i := range pixels {
		pixels[i] = p
	}
	return mustFragment(t, w, h, pixels)
}

// checkerCatalog extracts the 1x1 catalog of a 2x2 checkerboard.
func checkerCatalog(t *testing.T) (*fragment.Catalog, fragment.Key, fragment.Key) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	a := color.NRGBA{255, 0, 0, 255}
	b := color.NRGBA{0, 0, 255, 255}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if (x+y)%2 == 0 {
				img.SetNRGBA(x, y, a)
			} else {
				img.SetNRGBA(x, y, b)
			}
		}
	}
	cat, err := fragment.Extract(img, fragment.ExtractOptions{FragmentWidth: 1, FragmentHeight: 1})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	keys := cat.Keys()
	if len(keys) != 2 {
		t.Fatalf("checkerboard catalog has %d fragments, want 2", len(keys))
	}
	// Identify which key is the red fragment.
	f0, _ := cat.Fragment(keys[0])
	if f0.TopLeft() == (fragment.Pixel{255, 0, 0, 255}) {
		return cat, keys[0], keys[1]
	}
	return cat, keys[1], keys[0]
}

func TestOffsetValid(t *testing.T) {
	tests := []struct {
		off  Offset
		want bool
	}{
		{Up, true},
		{Down, true},
		{Left, true},
		{Right, true},
		{Offset{0, 0}, false},
		{Offset{1, 1}, false},
		{Offset{-1, -1}, false},
		{Offset{2, 0}, false},
		{Offset{0, -2}, false},
	}
	for _, tt := range tests {
		if got := tt.off.Valid(); got != tt.want {
			t.Errorf("Offset(%d,%d).Valid() = %v, want %v", tt.off.DX, tt.off.DY, got, tt.want)
		}
	}
}

func TestOffsetNameRoundTrip(t *testing.T) {
	for _, off := range Orthogonal {
		parsed, err := ParseOffset(off.Name())
		if err != nil {
			t.Fatalf("ParseOffset(%q) error = %v", off.Name(), err)
		}
		if parsed != off {
			t.Errorf("ParseOffset(%q) = %v, want %v", off.Name(), parsed, off)
		}
	}
	if _, err := ParseOffset("diagonal"); err == nil {
		t.Error("ParseOffset(diagonal) = nil error, want invalid offset error")
	}
}

func TestOverlappingSymmetry(t *testing.T) {
	// Build a small varied catalog and check Overlapping(a, b, off) always
	// equals Overlapping(b, a, off.Inverse()).
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 50), uint8(y * 50), uint8((x ^ y) * 40), 255})
		}
	}
	cat, err := fragment.Extract(img, fragment.ExtractOptions{FragmentWidth: 2, FragmentHeight: 2, AllowRotation: true})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	keys := cat.Keys()
	for _, ka := range keys {
		for _, kb := range keys {
			a, _ := cat.Fragment(ka)
			b, _ := cat.Fragment(kb)
			for _, off := range Orthogonal {
				fwd := Overlapping(a, b, off)
				rev := Overlapping(b, a, off.Inverse())
				if fwd != rev {
					t.Fatalf("Overlapping(%s, %s, %s) = %v but inverse = %v",
						fragment.ShortKey(ka), fragment.ShortKey(kb), off.Name(), fwd, rev)
				}
			}
		}
	}
}

func TestOverlappingSolid(t *testing.T) {
	white := solid(t, 3, 3, fragment.Pixel{255, 255, 255, 255})
	black := solid(t, 3, 3, fragment.Pixel{0, 0, 0, 255})

	for _, off := range Orthogonal {
		if !Overlapping(white, white, off) {
			t.Errorf("identical solid fragments do not overlap at %s", off.Name())
		}
		if Overlapping(white, black, off) {
			t.Errorf("different solid fragments overlap at %s", off.Name())
		}
	}
}

func TestOverlappingStripes(t *testing.T) {
	// Fragment columns: A = [r, r, b], B = [r, b, b] (each column uniform).
	// Shifting B one column right of A overlaps columns (1,2) of A with
	// columns (0,1) of B: [r, b] vs [r, b] - compatible.
	r := fragment.Pixel{255, 0, 0, 255}
	b := fragment.Pixel{0, 0, 255, 255}
	col := func(cols ...fragment.Pixel) []fragment.Pixel {
		var pixels []fragment.Pixel
		for _, c := range cols {
			pixels = append(pixels, c, c, c) // height 3
		}
		return pixels
	}
	fa := mustFragment(t, 3, 3, col(r, r, b))
	fb := mustFragment(t, 3, 3, col(r, b, b))

	if !Overlapping(fa, fb, Right) {
		t.Error("striped fragments should overlap at offset right")
	}
	if Overlapping(fa, fb, Left) {
		t.Error("striped fragments should not overlap at offset left")
	}
}

func TestBuildCheckerboard(t *testing.T) {
	cat, red, blue := checkerCatalog(t)

	table, err := Build(cat, BuildOptions{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	// On the checkerboard every neighbor of red is blue and vice versa, in
	// all four directions.
	pairs := []struct{ src, want fragment.Key }{{red, blue}, {blue, red}}
	for _, p := range pairs {
		for _, off := range Orthogonal {
			set, ok := table.Lookup(p.src, off)
			if !ok {
				t.Fatalf("no set for %s at %s", fragment.ShortKey(p.src), off.Name())
			}
			if set.Len() != 1 || !set.Contains(p.want) {
				t.Errorf("neighbors of %s at %s: %d entries, want exactly the opposite color",
					fragment.ShortKey(p.src), off.Name(), set.Len())
			}
		}
	}
}

func TestBuildCheckerboard2x2(t *testing.T) {
	// With 2x2 fragments on a 4x4 checkerboard the two phases alternate:
	// the fragment starting with red at top-left is only compatible with the
	// blue-phase fragment to its right, and vice versa.
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	a := color.NRGBA{255, 0, 0, 255}
	b := color.NRGBA{0, 0, 255, 255}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if (x+y)%2 == 0 {
				img.SetNRGBA(x, y, a)
			} else {
				img.SetNRGBA(x, y, b)
			}
		}
	}
	cat, err := fragment.Extract(img, fragment.ExtractOptions{FragmentWidth: 2, FragmentHeight: 2})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if cat.Len() != 2 {
		t.Fatalf("catalog has %d fragments, want 2", cat.Len())
	}

	table, err := Build(cat, BuildOptions{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	keys := cat.Keys()
	for i, src := range keys {
		other := keys[1-i]
		set, ok := table.Lookup(src, Right)
		if !ok {
			t.Fatalf("no set for %s at right", fragment.ShortKey(src))
		}
		if set.Len() != 1 || !set.Contains(other) {
			t.Errorf("right-neighbors of %s = %d entries, want exactly the opposite phase",
				fragment.ShortKey(src), set.Len())
		}
	}
}

func TestBuildNoDiagonalOrCenterSets(t *testing.T) {
	cat, _, _ := checkerCatalog(t)
	table, err := Build(cat, BuildOptions{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for _, src := range table.Sources() {
		for _, off := range []Offset{{0, 0}, {1, 1}, {-1, 1}, {1, -1}, {-1, -1}} {
			if _, ok := table.Lookup(src, off); ok {
				t.Errorf("constraint set exists for invalid offset (%d,%d)", off.DX, off.DY)
			}
		}
	}
}

func TestBuildInterning(t *testing.T) {
	// A monochrome catalog has one fragment whose four offset lists are all
	// identical, so interning collapses the table to a single shared set.
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{7, 7, 7, 255})
		}
	}
	cat, err := fragment.Extract(img, fragment.ExtractOptions{FragmentWidth: 2, FragmentHeight: 2})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	plain, err := Build(cat, BuildOptions{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	interned, err := Build(cat, BuildOptions{Intern: true})
	if err != nil {
		t.Fatalf("Build(intern) error = %v", err)
	}

	if plain.Len() != 4 {
		t.Errorf("plain table has %d sets, want 4", plain.Len())
	}
	if interned.Len() != 1 {
		t.Errorf("interned table has %d sets, want 1", interned.Len())
	}
}

func TestBuildEmptyCatalog(t *testing.T) {
	if _, err := Build(fragment.NewCatalog(), BuildOptions{}); err == nil {
		t.Error("Build() on empty catalog returned nil error")
	}
}

func TestTableJSONRoundTrip(t *testing.T) {
	cat, _, _ := checkerCatalog(t)
	table, err := Build(cat, BuildOptions{Intern: true})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	data, err := table.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}

	restored := &Table{}
	if err := restored.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}

	if restored.Len() != table.Len() {
		t.Fatalf("restored table has %d sets, want %d", restored.Len(), table.Len())
	}
	for _, src := range table.Sources() {
		for _, off := range Orthogonal {
			want, _ := table.Lookup(src, off)
			got, ok := restored.Lookup(src, off)
			if !ok {
				t.Fatalf("restored table missing set for %s at %s", fragment.ShortKey(src), off.Name())
			}
			if got.ID != want.ID || got.Len() != want.Len() {
				t.Errorf("restored set for %s at %s differs", fragment.ShortKey(src), off.Name())
			}
		}
	}
	if err := restored.Validate(); err != nil {
		t.Errorf("restored table Validate() error = %v", err)
	}
}
