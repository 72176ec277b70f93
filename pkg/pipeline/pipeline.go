// Package pipeline provides the core generation pipeline for Tilewright.
//
// This package implements the complete extract → constrain → solve →
// reconstruct pipeline that can be used by CLI and API components. By
// centralizing this logic, we ensure consistent behavior across all entry
// points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Extract: Cut the sample image into weighted fragments with
//     orientation variants and a ground set
//  2. Constrain: Build pixel-overlap adjacency constraint sets
//  3. Solve: Assemble the node grid and collapse it with the solver,
//     retrying with derived seeds on contradiction
//  4. Reconstruct: Stitch the assignment back into an output image
//
// The extract and constrain stages are pure functions of the sample and
// the options, so their outputs are cached.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    SamplePath:   "rooms.bmp",
//	    OutputWidth:  12,
//	    OutputHeight: 12,
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	img := result.Output.Image()
package pipeline

import (
	"image"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tilewright/tilewright/pkg/adjacency"
	"github.com/tilewright/tilewright/pkg/cache"
	"github.com/tilewright/tilewright/pkg/errors"
	"github.com/tilewright/tilewright/pkg/fragment"
	"github.com/tilewright/tilewright/pkg/reconstruct"
	"github.com/tilewright/tilewright/pkg/solver"
	"github.com/tilewright/tilewright/pkg/topology"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultFragmentWidth is the default fragment window width.
	DefaultFragmentWidth = 3

	// DefaultFragmentHeight is the default fragment window height.
	DefaultFragmentHeight = 3

	// DefaultOutputWidth is the default output width in pixels.
	DefaultOutputWidth = 12

	// DefaultOutputHeight is the default output height in pixels.
	DefaultOutputHeight = 12

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)

	// DefaultMaxAttempts bounds solver retries on contradiction. Each
	// attempt derives a fresh seed from the previous one.
	DefaultMaxAttempts = 3
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the generation pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Sample options. SamplePath is loaded from disk; a non-nil
	// SampleImage takes precedence and skips the load.
	SamplePath  string      `json:"sample_path,omitempty" bson:"sample_path,omitempty"`
	SampleImage image.Image `json:"-" bson:"-"`

	// Extraction options
	FragmentWidth   int  `json:"fragment_width,omitempty"`
	FragmentHeight  int  `json:"fragment_height,omitempty"`
	NoReflection    bool `json:"no_reflection,omitempty"`
	NoRotation      bool `json:"no_rotation,omitempty"`

	// Constraint options
	NoIntern bool `json:"no_intern,omitempty"` // Disable content-interning of constraint sets

	// Assembly and solve options
	OutputWidth    int    `json:"output_width,omitempty"`
	OutputHeight   int    `json:"output_height,omitempty"`
	Periodic       bool   `json:"periodic,omitempty"`
	ContainsGround bool   `json:"contains_ground,omitempty"`
	Seed           uint64 `json:"seed,omitempty"`
	MaxAttempts    int    `json:"max_attempts,omitempty"`

	// Refresh bypasses the cache for the extract and constrain stages.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger   `json:"-" bson:"-"`
	Solver solver.Solver `json:"-" bson:"-"`

	// events receives progress notifications during ExecuteAsync runs.
	events chan<- Event `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Catalog is the extracted fragment catalog.
	Catalog *fragment.Catalog

	// CatalogHash is the content hash of the serialized catalog.
	CatalogHash string

	// Table is the adjacency constraint table.
	Table *adjacency.Table

	// Graph is the assembled node grid.
	Graph *topology.Graph

	// Assignment is the solver's chosen fragment per node.
	Assignment solver.Assignment

	// Output is the reconstructed pixel grid.
	Output *reconstruct.Grid

	// Seed is the seed of the attempt that succeeded.
	Seed uint64

	// Attempts is how many solve attempts ran, including the winner.
	Attempts int

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	FragmentCount   int
	ConstraintSets  int
	NodeCount       int
	ExtractTime     time.Duration
	ConstrainTime   time.Duration
	SolveTime       time.Duration
	ReconstructTime time.Duration
}

// CacheInfo tracks cache hits for each cached pipeline stage.
type CacheInfo struct {
	ExtractHit   bool // Whether the catalog came from cache
	ConstrainHit bool // Whether the constraint table came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. This method is idempotent - calling it multiple times has
// the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForExtract(); err != nil {
		return err
	}
	o.SetSolveDefaults()
	if err := errors.ValidateOutputSize(o.OutputWidth, o.OutputHeight, o.FragmentWidth, o.FragmentHeight); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForExtract checks required fields for fragment extraction.
func (o *Options) ValidateForExtract() error {
	if o.SamplePath == "" && o.SampleImage == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "sample_path or sample image is required")
	}
	if o.SamplePath != "" {
		if err := errors.ValidateSamplePath(o.SamplePath); err != nil {
			return err
		}
	}

	// Extraction defaults
	if o.FragmentWidth == 0 {
		o.FragmentWidth = DefaultFragmentWidth
	}
	if o.FragmentHeight == 0 {
		o.FragmentHeight = DefaultFragmentHeight
	}
	if o.FragmentWidth < 1 || o.FragmentHeight < 1 {
		return errors.New(errors.ErrCodeInvalidFragment, "fragment dimensions must be at least 1")
	}

	// Logger default
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return nil
}

// SetSolveDefaults sets default values for assembly and solving.
func (o *Options) SetSolveDefaults() {
	if o.OutputWidth == 0 {
		o.OutputWidth = DefaultOutputWidth
	}
	if o.OutputHeight == 0 {
		o.OutputHeight = DefaultOutputHeight
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Solver == nil {
		o.Solver = solver.NewEntropic()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ExtractOptions returns the fragment extraction options.
func (o *Options) ExtractOptions() fragment.ExtractOptions {
	return fragment.ExtractOptions{
		FragmentWidth:   o.FragmentWidth,
		FragmentHeight:  o.FragmentHeight,
		AllowReflection: !o.NoReflection,
		AllowRotation:   !o.NoRotation,
	}
}

// AssembleOptions returns the grid assembly options.
func (o *Options) AssembleOptions() topology.AssembleOptions {
	return topology.AssembleOptions{
		OutputWidth:    o.OutputWidth,
		OutputHeight:   o.OutputHeight,
		FragmentWidth:  o.FragmentWidth,
		FragmentHeight: o.FragmentHeight,
		Periodic:       o.Periodic,
		ContainsGround: o.ContainsGround,
	}
}

// CatalogKeyOpts returns cache key options for the extract stage.
func (o *Options) CatalogKeyOpts() cache.CatalogKeyOpts {
	return cache.CatalogKeyOpts{
		FragmentWidth:   o.FragmentWidth,
		FragmentHeight:  o.FragmentHeight,
		AllowReflection: !o.NoReflection,
		AllowRotation:   !o.NoRotation,
	}
}

// TableKeyOpts returns cache key options for the constrain stage.
func (o *Options) TableKeyOpts() cache.TableKeyOpts {
	return cache.TableKeyOpts{Intern: !o.NoIntern}
}

// ArtifactKeyOpts returns cache key options for the reconstructed output.
func (o *Options) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		OutputWidth:    o.OutputWidth,
		OutputHeight:   o.OutputHeight,
		Periodic:       o.Periodic,
		ContainsGround: o.ContainsGround,
		Seed:           o.Seed,
	}
}
