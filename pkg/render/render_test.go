package render

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/tilewright/tilewright/pkg/adjacency"
	"github.com/tilewright/tilewright/pkg/fragment"
)

func buildFixture(t *testing.T) (*fragment.Catalog, *adjacency.Table) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			c := color.NRGBA{200, 200, 200, 255}
			if (x+y)%2 == 0 {
				c = color.NRGBA{20, 20, 20, 255}
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

func TestToDOT(t *testing.T) {
	cat, table := buildFixture(t)

	dot := ToDOT(cat, table, Options{})
	if !strings.HasPrefix(dot, "digraph compatibility {") {
		t.Errorf("missing digraph header:\n%s", dot)
	}
	for _, k := range cat.Keys() {
		if !strings.Contains(dot, fragment.ShortKey(k)) {
			t.Errorf("missing node for %s", fragment.ShortKey(k))
		}
	}
	if !strings.Contains(dot, `label="right"`) || !strings.Contains(dot, `label="down"`) {
		t.Error("missing right/down edges")
	}
	if strings.Contains(dot, `label="left"`) || strings.Contains(dot, `label="up"`) {
		t.Error("left/up edges should not be emitted")
	}
}

func TestToDOTDetailed(t *testing.T) {
	cat, table := buildFixture(t)

	dot := ToDOT(cat, table, Options{Detailed: true})
	if !strings.Contains(dot, "weight:") {
		t.Error("detailed labels should include weights")
	}
}

func TestSVG(t *testing.T) {
	cat, table := buildFixture(t)

	svg, err := SVG(ToDOT(cat, table, Options{}))
	if err != nil {
		t.Fatalf("SVG() error = %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("output is not SVG")
	}
}

func TestSVGRejectsBadDOT(t *testing.T) {
	if _, err := SVG("digraph {"); err == nil {
		t.Error("SVG() on malformed DOT: want error")
	}
}
