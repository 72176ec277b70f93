// Package render visualizes a constraint table as a fragment
// compatibility graph.
//
// Each catalog fragment becomes a node colored by its average pixel
// color; a directed edge connects two fragments when the table permits
// the second to sit immediately right of or below the first. The DOT
// output can be rendered to SVG or PNG with Graphviz.
//
//	dot := render.ToDOT(catalog, table, render.Options{})
//	svg, err := render.SVG(dot)
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/tilewright/tilewright/pkg/adjacency"
	"github.com/tilewright/tilewright/pkg/errors"
	"github.com/tilewright/tilewright/pkg/fragment"
)

// Options configures compatibility graph rendering.
type Options struct {
	// Detailed includes fragment weights and set sizes in labels.
	// When false, only the short fragment key is shown.
	Detailed bool
}

// ToDOT converts a catalog and its constraint table to Graphviz DOT.
// Ground fragments are drawn with dashed outlines. Only right and down
// edges are emitted; the left and up constraints mirror them.
func ToDOT(cat *fragment.Catalog, table *adjacency.Table, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph compatibility {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, k := range cat.Keys() {
		label := fmtLabel(cat, k, opts.Detailed)
		attrs := fmtAttrs(cat, k, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", fragment.ShortKey(k), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, off := range []adjacency.Offset{adjacency.Right, adjacency.Down} {
		for _, src := range cat.Keys() {
			set, ok := table.Lookup(src, off)
			if !ok {
				continue
			}
			for _, dst := range set.Allowed {
				fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n",
					fragment.ShortKey(src), fragment.ShortKey(dst), off.Name())
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(cat *fragment.Catalog, k fragment.Key, detailed bool) string {
	if !detailed {
		return fragment.ShortKey(k)
	}
	parts := []string{fmt.Sprintf("weight: %d", cat.Weight(k))}
	if cat.IsGround(k) {
		parts = append(parts, "ground")
	}
	return fragment.ShortKey(k) + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(cat *fragment.Catalog, k fragment.Key, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if f, ok := cat.Fragment(k); ok {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", f.AverageColor().Hex()))
	}
	if cat.IsGround(k) {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

// SVG renders a DOT graph to SVG using Graphviz.
func SVG(dot string) ([]byte, error) {
	var buf bytes.Buffer
	if err := renderFormat(dot, graphviz.SVG, &buf); err != nil {
		return nil, err
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// PNG renders a DOT graph to PNG using Graphviz.
func PNG(dot string) ([]byte, error) {
	var buf bytes.Buffer
	if err := renderFormat(dot, graphviz.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderFormat(dot string, format graphviz.Format, buf *bytes.Buffer) error {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	if err := gv.Render(ctx, g, format, buf); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "render graph")
	}
	return nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the SVG root element so the viewBox starts
// at the origin and the width/height match it in pixels.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
