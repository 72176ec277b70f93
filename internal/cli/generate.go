package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tilewright/tilewright/pkg/imageio"
	"github.com/tilewright/tilewright/pkg/pipeline"
)

// generateCommand creates the generate command for synthesizing maps.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		configPath string
		output     string
		noCache    bool
		noPreview  bool
		plain      bool
	)
	opts := pipeline.Options{
		FragmentWidth:  pipeline.DefaultFragmentWidth,
		FragmentHeight: pipeline.DefaultFragmentHeight,
		OutputWidth:    pipeline.DefaultOutputWidth,
		OutputHeight:   pipeline.DefaultOutputHeight,
		Seed:           pipeline.DefaultSeed,
		MaxAttempts:    pipeline.DefaultMaxAttempts,
	}

	cmd := &cobra.Command{
		Use:   "generate [sample.png]",
		Short: "Generate a tile map from a sample image",
		Long: `Generate a tile map that locally resembles a sample image.

The sample is cut into overlapping fragments, pairwise overlap constraints
are derived, and an entropy-guided search assigns one fragment per output
cell. Intermediate catalogs and constraint tables are cached locally for
faster subsequent runs.

A TOML profile can supply any option; explicitly set flags win over the
profile, and the positional sample argument wins over its "sample" key.

Examples:
  tilewright generate rooms.png
  tilewright generate rooms.png -o map.png --width 40 --height 30
  tilewright generate --config dungeon.toml --seed 7`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			merged, err := mergeProfile(cmd, configPath, opts)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				merged.SamplePath = args[0]
			}
			return c.runGenerate(cmd.Context(), merged, output, noCache, !noPreview, plain)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "TOML generation profile")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output PNG file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute cached stages")
	cmd.Flags().BoolVar(&noPreview, "no-preview", false, "skip the terminal preview")
	cmd.Flags().BoolVar(&plain, "plain", false, "plain progress output instead of the TUI")

	cmd.Flags().IntVar(&opts.FragmentWidth, "fragment-width", opts.FragmentWidth, "fragment window width")
	cmd.Flags().IntVar(&opts.FragmentHeight, "fragment-height", opts.FragmentHeight, "fragment window height")
	cmd.Flags().BoolVar(&opts.NoReflection, "no-reflection", opts.NoReflection, "skip mirrored fragment variants")
	cmd.Flags().BoolVar(&opts.NoRotation, "no-rotation", opts.NoRotation, "skip rotated fragment variants")
	cmd.Flags().BoolVar(&opts.NoIntern, "no-intern", opts.NoIntern, "give every (fragment, offset) pair its own constraint set")
	cmd.Flags().IntVar(&opts.OutputWidth, "width", opts.OutputWidth, "output width in pixels")
	cmd.Flags().IntVar(&opts.OutputHeight, "height", opts.OutputHeight, "output height in pixels")
	cmd.Flags().BoolVar(&opts.Periodic, "periodic", opts.Periodic, "wrap constraints around the output edges")
	cmd.Flags().BoolVar(&opts.ContainsGround, "ground", opts.ContainsGround, "pin ground fragments to the bottom row")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", opts.Seed, "random seed")
	cmd.Flags().IntVar(&opts.MaxAttempts, "max-attempts", opts.MaxAttempts, "solve attempts before giving up")

	return cmd
}

// mergeProfile loads the TOML profile at configPath, if any, and fills
// in every option whose flag the user did not set explicitly. Flags
// win over the profile; the profile wins over built-in defaults.
func mergeProfile(cmd *cobra.Command, configPath string, flagOpts pipeline.Options) (pipeline.Options, error) {
	if configPath == "" {
		return flagOpts, nil
	}
	profile, err := pipeline.LoadProfile(configPath)
	if err != nil {
		return flagOpts, err
	}

	merged := flagOpts
	unset := func(name string) bool { return !cmd.Flags().Changed(name) }

	if profile.Sample != nil {
		merged.SamplePath = *profile.Sample
	}
	if profile.FragmentWidth != nil && unset("fragment-width") {
		merged.FragmentWidth = *profile.FragmentWidth
	}
	if profile.FragmentHeight != nil && unset("fragment-height") {
		merged.FragmentHeight = *profile.FragmentHeight
	}
	if profile.NoReflection != nil && unset("no-reflection") {
		merged.NoReflection = *profile.NoReflection
	}
	if profile.NoRotation != nil && unset("no-rotation") {
		merged.NoRotation = *profile.NoRotation
	}
	if profile.NoIntern != nil && unset("no-intern") {
		merged.NoIntern = *profile.NoIntern
	}
	if profile.OutputWidth != nil && unset("width") {
		merged.OutputWidth = *profile.OutputWidth
	}
	if profile.OutputHeight != nil && unset("height") {
		merged.OutputHeight = *profile.OutputHeight
	}
	if profile.Periodic != nil && unset("periodic") {
		merged.Periodic = *profile.Periodic
	}
	if profile.ContainsGround != nil && unset("ground") {
		merged.ContainsGround = *profile.ContainsGround
	}
	if profile.Seed != nil && unset("seed") {
		merged.Seed = *profile.Seed
	}
	if profile.MaxAttempts != nil && unset("max-attempts") {
		merged.MaxAttempts = *profile.MaxAttempts
	}
	return merged, nil
}

// runGenerate executes the pipeline and writes the results.
func (c *CLI) runGenerate(ctx context.Context, opts pipeline.Options, output string, noCache, preview, plain bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	var result *pipeline.Result
	if plain {
		spinner := newSpinnerWithContext(ctx, "Generating map...")
		spinner.Start()
		result, err = runner.Execute(ctx, opts)
		if err != nil {
			spinner.StopWithError("Generation failed")
			return err
		}
		spinner.Stop()
	} else {
		result, err = runGenerateTUI(ctx, runner, opts)
		if err != nil {
			return err
		}
	}

	printSuccess("Generated %dx%d map (seed %d, attempt %d)",
		result.Output.Width, result.Output.Height, result.Seed, result.Attempts)
	printStats(result.Stats.FragmentCount, result.Stats.ConstraintSets, result.Stats.NodeCount,
		result.CacheInfo.ExtractHit && result.CacheInfo.ConstrainHit)

	if preview {
		if err := imageio.Preview(os.Stdout, result.Output.Image()); err != nil {
			return err
		}
	}

	if output != "" {
		if err := imageio.EncodePNGFile(output, result.Output.Image()); err != nil {
			return err
		}
		printFile(output)
		printNextStep("Scan for obstacles", fmt.Sprintf("tilewright scan %s", output))
	}
	return nil
}
