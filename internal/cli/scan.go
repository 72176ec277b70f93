package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tilewright/tilewright/pkg/fragment"
	"github.com/tilewright/tilewright/pkg/imageio"
	pkgio "github.com/tilewright/tilewright/pkg/io"
	"github.com/tilewright/tilewright/pkg/reconstruct"
	"github.com/tilewright/tilewright/pkg/world"
)

// scanCommand creates the scan command for locating wall obstacles in
// a generated map image.
func (c *CLI) scanCommand() *cobra.Command {
	var (
		wallHex string
		scale   float64
		output  string
	)

	cmd := &cobra.Command{
		Use:   "scan <map.png>",
		Short: "Locate wall obstacles in a generated map",
		Long: `Scan a generated map for wall cells and emit one obstacle per cell.

Each cell whose pixel exactly matches the wall color becomes an obstacle
placed in world space at the configured scale. The obstacle list is
written as JSON to stdout or to the file given with --output.

Examples:
  tilewright scan map.png
  tilewright scan map.png --scale 100 -o obstacles.json
  tilewright scan map.png --wall "#ff0000"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScan(args[0], wallHex, scale, output)
		},
	}

	cmd.Flags().StringVar(&wallHex, "wall", world.Wall.Hex(), "wall color as a hex literal")
	cmd.Flags().Float64Var(&scale, "scale", world.DefaultScale, "world-space size of one cell")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output JSON file (stdout if empty)")

	return cmd
}

// runScan loads the map, scans it, and writes the obstacle list.
func (c *CLI) runScan(input, wallHex string, scale float64, output string) error {
	wall, err := fragment.ParseHex(wallHex)
	if err != nil {
		return err
	}

	img, err := imageio.DecodeFile(input)
	if err != nil {
		return err
	}
	grid, err := reconstruct.GridFromImage(img)
	if err != nil {
		return err
	}

	scanner := world.NewScanner(world.WithWall(wall), world.WithScale(scale))
	obstacles, err := scanner.Scan(grid)
	if err != nil {
		return err
	}

	if output == "" {
		return pkgio.WriteJSON(obstacles, os.Stdout)
	}
	if err := pkgio.ExportJSON(obstacles, output); err != nil {
		return err
	}
	printSuccess("Found %d obstacles in %dx%d map", len(obstacles), grid.Width, grid.Height)
	printFile(output)
	return nil
}
