package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tilewright/tilewright/pkg/adjacency"
	"github.com/tilewright/tilewright/pkg/fragment"
	"github.com/tilewright/tilewright/pkg/imageio"
	"github.com/tilewright/tilewright/pkg/pipeline"
	"github.com/tilewright/tilewright/pkg/render"
)

// inspectOpts holds the command-line flags for the inspect command.
type inspectOpts struct {
	dotPath  string // DOT output file ("-" for stdout)
	svgPath  string // SVG output file
	pngPath  string // PNG output file
	detailed bool   // include weights in graph labels
	noCache  bool
}

// inspectCommand creates the inspect command for examining catalogs
// and constraint tables without solving.
func (c *CLI) inspectCommand() *cobra.Command {
	var iOpts inspectOpts
	opts := pipeline.Options{
		FragmentWidth:  pipeline.DefaultFragmentWidth,
		FragmentHeight: pipeline.DefaultFragmentHeight,
	}

	cmd := &cobra.Command{
		Use:   "inspect <sample.png>",
		Short: "Show fragment catalog and constraint statistics",
		Long: `Inspect the fragment catalog and constraint table derived from a sample.

The inspect command runs extraction and constraint building only, then
prints catalog and table statistics. The compatibility graph can be
exported as Graphviz DOT, SVG, or PNG for closer study.

Examples:
  tilewright inspect rooms.png
  tilewright inspect rooms.png --fragment-width 2 --fragment-height 2
  tilewright inspect rooms.png --dot - | dot -Tsvg > graph.svg
  tilewright inspect rooms.png --svg graph.svg --detailed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SamplePath = args[0]
			return c.runInspect(cmd.Context(), opts, iOpts)
		},
	}

	cmd.Flags().IntVar(&opts.FragmentWidth, "fragment-width", opts.FragmentWidth, "fragment window width")
	cmd.Flags().IntVar(&opts.FragmentHeight, "fragment-height", opts.FragmentHeight, "fragment window height")
	cmd.Flags().BoolVar(&opts.NoReflection, "no-reflection", opts.NoReflection, "skip mirrored fragment variants")
	cmd.Flags().BoolVar(&opts.NoRotation, "no-rotation", opts.NoRotation, "skip rotated fragment variants")
	cmd.Flags().BoolVar(&opts.NoIntern, "no-intern", opts.NoIntern, "give every (fragment, offset) pair its own constraint set")
	cmd.Flags().BoolVar(&opts.ContainsGround, "ground", opts.ContainsGround, "mark bottom-row fragments as ground")
	cmd.Flags().StringVar(&iOpts.dotPath, "dot", "", "write compatibility graph DOT to file (- for stdout)")
	cmd.Flags().StringVar(&iOpts.svgPath, "svg", "", "render compatibility graph to an SVG file")
	cmd.Flags().StringVar(&iOpts.pngPath, "png", "", "render compatibility graph to a PNG file")
	cmd.Flags().BoolVar(&iOpts.detailed, "detailed", false, "include fragment weights in graph labels")
	cmd.Flags().BoolVar(&iOpts.noCache, "no-cache", false, "disable caching")

	return cmd
}

// runInspect extracts the catalog, builds the table, and reports.
func (c *CLI) runInspect(ctx context.Context, opts pipeline.Options, iOpts inspectOpts) error {
	if err := opts.ValidateForExtract(); err != nil {
		return err
	}

	sample, err := imageio.DecodeFile(opts.SamplePath)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(iOpts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	prog := newProgress(c.Logger)
	cat, err := runner.Extract(ctx, sample, opts)
	if err != nil {
		return err
	}
	table, err := runner.Constrain(ctx, cat, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Analyzed %s", opts.SamplePath))

	printCatalogStats(cat, table)

	if iOpts.dotPath == "" && iOpts.svgPath == "" && iOpts.pngPath == "" {
		return nil
	}
	dot := render.ToDOT(cat, table, render.Options{Detailed: iOpts.detailed})

	if iOpts.dotPath == "-" {
		fmt.Print(dot)
	} else if iOpts.dotPath != "" {
		if err := os.WriteFile(iOpts.dotPath, []byte(dot), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", iOpts.dotPath, err)
		}
		printFile(iOpts.dotPath)
	}
	if iOpts.svgPath != "" {
		svg, err := render.SVG(dot)
		if err != nil {
			return err
		}
		if err := os.WriteFile(iOpts.svgPath, svg, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", iOpts.svgPath, err)
		}
		printFile(iOpts.svgPath)
	}
	if iOpts.pngPath != "" {
		png, err := render.PNG(dot)
		if err != nil {
			return err
		}
		if err := os.WriteFile(iOpts.pngPath, png, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", iOpts.pngPath, err)
		}
		printFile(iOpts.pngPath)
	}
	return nil
}

// printCatalogStats reports catalog and table sizes plus the tightest
// and loosest constraint sets.
func printCatalogStats(cat *fragment.Catalog, table *adjacency.Table) {
	printKeyValue("fragments", fmt.Sprintf("%d (%d ground)", cat.Len(), cat.GroundLen()))
	printKeyValue("weight", fmt.Sprintf("%d", cat.TotalWeight()))
	printKeyValue("sets", fmt.Sprintf("%d", table.Len()))

	minLen, maxLen, total := -1, 0, 0
	for _, s := range table.Sets() {
		n := s.Len()
		if minLen < 0 || n < minLen {
			minLen = n
		}
		if n > maxLen {
			maxLen = n
		}
		total += n
	}
	if table.Len() > 0 {
		printKeyValue("set sizes", fmt.Sprintf("min %d, max %d, avg %.1f",
			minLen, maxLen, float64(total)/float64(table.Len())))
	}
}
