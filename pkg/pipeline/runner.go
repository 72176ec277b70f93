package pipeline

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/rand"

	"github.com/tilewright/tilewright/pkg/adjacency"
	"github.com/tilewright/tilewright/pkg/cache"
	"github.com/tilewright/tilewright/pkg/errors"
	"github.com/tilewright/tilewright/pkg/fragment"
	"github.com/tilewright/tilewright/pkg/imageio"
	"github.com/tilewright/tilewright/pkg/observability"
	"github.com/tilewright/tilewright/pkg/reconstruct"
	"github.com/tilewright/tilewright/pkg/solver"
	"github.com/tilewright/tilewright/pkg/topology"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete extract → constrain → solve → reconstruct
// pipeline with caching and bounded contradiction retries.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{}

	sample, err := r.loadSample(opts)
	if err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}
	sampleHash := hashImage(sample)

	// Stage 1: Extract
	extractStart := time.Now()
	cat, extractHit, err := r.ExtractWithCacheInfo(ctx, sample, sampleHash, opts)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	result.Catalog = cat
	result.Stats.ExtractTime = time.Since(extractStart)
	result.Stats.FragmentCount = cat.Len()
	result.CacheInfo.ExtractHit = extractHit

	// Compute catalog hash for cache keys and API responses
	if catData, err := json.Marshal(cat); err == nil {
		result.CatalogHash = cache.Hash(catData)
	}

	r.Logger.Info("extracted fragments",
		"fragments", cat.Len(),
		"ground", cat.GroundLen(),
		"cached", extractHit,
		"duration", result.Stats.ExtractTime)
	r.emit(&opts, Event{Kind: EventStage, Stage: StageExtract,
		Message: fmt.Sprintf("%d fragments", cat.Len())})

	// Stage 2: Constrain
	constrainStart := time.Now()
	table, constrainHit, err := r.ConstrainWithCacheInfo(ctx, cat, result.CatalogHash, opts)
	if err != nil {
		return nil, fmt.Errorf("constrain: %w", err)
	}
	result.Table = table
	result.Stats.ConstrainTime = time.Since(constrainStart)
	result.Stats.ConstraintSets = table.Len()
	result.CacheInfo.ConstrainHit = constrainHit

	r.Logger.Info("built constraints",
		"sets", table.Len(),
		"cached", constrainHit,
		"duration", result.Stats.ConstrainTime)
	r.emit(&opts, Event{Kind: EventStage, Stage: StageConstrain,
		Message: fmt.Sprintf("%d constraint sets", table.Len())})

	// Stage 3: Assemble and solve with bounded retries
	graph, err := topology.Assemble(cat, table, opts.AssembleOptions())
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	result.Graph = graph
	result.Stats.NodeCount = graph.NodeCount()

	solveStart := time.Now()
	asg, seed, attempts, err := r.solveWithRetry(ctx, graph, opts)
	result.Stats.SolveTime = time.Since(solveStart)
	result.Attempts = attempts
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	result.Assignment = asg
	result.Seed = seed

	r.Logger.Info("collapsed grid",
		"nodes", graph.NodeCount(),
		"seed", seed,
		"attempts", attempts,
		"duration", result.Stats.SolveTime)
	r.emit(&opts, Event{Kind: EventStage, Stage: StageSolve,
		Message: fmt.Sprintf("%d nodes in %d attempt(s)", graph.NodeCount(), attempts)})

	// Stage 4: Reconstruct
	reconstructStart := time.Now()
	hooks := observability.Generation()
	hooks.OnReconstructStart(ctx, opts.OutputWidth, opts.OutputHeight)
	out, err := reconstruct.Reconstruct(graph, asg, opts.OutputWidth, opts.OutputHeight)
	result.Stats.ReconstructTime = time.Since(reconstructStart)
	hooks.OnReconstructComplete(ctx, opts.OutputWidth, opts.OutputHeight, result.Stats.ReconstructTime, err)
	if err != nil {
		return nil, fmt.Errorf("reconstruct: %w", err)
	}
	result.Output = out

	r.Logger.Info("reconstructed output",
		"width", out.Width,
		"height", out.Height,
		"duration", result.Stats.ReconstructTime)
	r.emit(&opts, Event{Kind: EventStage, Stage: StageReconstruct,
		Message: fmt.Sprintf("%dx%d output", out.Width, out.Height)})

	return result, nil
}

// ExtractWithCacheInfo extracts the fragment catalog with caching and
// returns cache hit info.
func (r *Runner) ExtractWithCacheInfo(ctx context.Context, sample image.Image, sampleHash string, opts Options) (*fragment.Catalog, bool, error) {
	if err := opts.ValidateForExtract(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	hooks := observability.Generation()
	cacheKey := r.Keyer.CatalogKey(sampleHash, opts.CatalogKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			cat := fragment.NewCatalog()
			if err := json.Unmarshal(data, cat); err == nil {
				observability.Cache().OnCacheHit(ctx, "catalog")
				return cat, true, nil // Cache hit
			}
		}
		observability.Cache().OnCacheMiss(ctx, "catalog")
	}

	// Extract
	start := time.Now()
	hooks.OnExtractStart(ctx, opts.SamplePath)
	cat, err := fragment.Extract(sample, opts.ExtractOptions())
	hooks.OnExtractComplete(ctx, opts.SamplePath, catLen(cat), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if !opts.Refresh {
		if data, err := json.Marshal(cat); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLCatalog)
			observability.Cache().OnCacheSet(ctx, "catalog", len(data))
		}
	}

	return cat, false, nil // Cache miss
}

// Extract is a convenience wrapper that calls ExtractWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Extract(ctx context.Context, sample image.Image, opts Options) (*fragment.Catalog, error) {
	cat, _, err := r.ExtractWithCacheInfo(ctx, sample, hashImage(sample), opts)
	return cat, err
}

// ConstrainWithCacheInfo builds the constraint table with caching and
// returns cache hit info.
func (r *Runner) ConstrainWithCacheInfo(ctx context.Context, cat *fragment.Catalog, catalogHash string, opts Options) (*adjacency.Table, bool, error) {
	r.applyLogger(&opts)

	hooks := observability.Generation()
	cacheKey := r.Keyer.TableKey(catalogHash, opts.TableKeyOpts())

	// Try cache first
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var table adjacency.Table
			if err := json.Unmarshal(data, &table); err == nil {
				observability.Cache().OnCacheHit(ctx, "table")
				return &table, true, nil // Cache hit
			}
			// If deserialization fails, fall through to rebuild
		}
		observability.Cache().OnCacheMiss(ctx, "table")
	}

	// Build
	start := time.Now()
	hooks.OnConstrainStart(ctx, catLen(cat))
	table, err := adjacency.Build(cat, adjacency.BuildOptions{Intern: !opts.NoIntern})
	hooks.OnConstrainComplete(ctx, tableLen(table), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if !opts.Refresh {
		if data, err := json.Marshal(table); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLTable)
			observability.Cache().OnCacheSet(ctx, "table", len(data))
		}
	}

	return table, false, nil // Cache miss
}

// Constrain is a convenience wrapper that calls ConstrainWithCacheInfo
// and discards the cache hit info.
func (r *Runner) Constrain(ctx context.Context, cat *fragment.Catalog, opts Options) (*adjacency.Table, error) {
	catData, err := json.Marshal(cat)
	if err != nil {
		return nil, err
	}
	table, _, err := r.ConstrainWithCacheInfo(ctx, cat, cache.Hash(catData), opts)
	return table, err
}

// solveWithRetry collapses the graph, retrying with derived seeds while
// attempts land on contradictions. Non-contradiction errors abort
// immediately.
func (r *Runner) solveWithRetry(ctx context.Context, graph *topology.Graph, opts Options) (solver.Assignment, uint64, int, error) {
	hooks := observability.Generation()
	derive := rand.New(rand.NewSource(opts.Seed))

	seed := opts.Seed
	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			seed = derive.Uint64()
			r.Logger.Debug("retrying solve", "attempt", attempt, "seed", seed)
			r.emit(&opts, Event{Kind: EventRetry, Stage: StageSolve,
				Message: fmt.Sprintf("attempt %d of %d", attempt, opts.MaxAttempts)})
		}

		start := time.Now()
		hooks.OnSolveStart(ctx, graph.NodeCount(), seed)
		asg, err := opts.Solver.Solve(ctx, graph, seed)
		hooks.OnSolveComplete(ctx, seed, time.Since(start), err)
		if err == nil {
			return asg, seed, attempt, nil
		}
		if !solver.IsContradiction(err) {
			return nil, seed, attempt, err
		}
		lastErr = err
	}
	return nil, seed, opts.MaxAttempts, errors.Wrap(errors.ErrCodeContradiction, lastErr, "no consistent assignment after %d attempts", opts.MaxAttempts)
}

// loadSample returns the configured sample image.
func (r *Runner) loadSample(opts Options) (image.Image, error) {
	if opts.SampleImage != nil {
		return opts.SampleImage, nil
	}
	return imageio.DecodeFile(opts.SamplePath)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// hashImage computes a content hash over an image's dimensions and
// NRGBA pixel data, independent of its source encoding.
func hashImage(img image.Image) string {
	bounds := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)

	header := make([]byte, 8)
	binary.BigEndian.PutUint32(header[0:4], uint32(bounds.Dx()))
	binary.BigEndian.PutUint32(header[4:8], uint32(bounds.Dy()))
	return cache.Hash(append(header, nrgba.Pix...))
}

func catLen(cat *fragment.Catalog) int {
	if cat == nil {
		return 0
	}
	return cat.Len()
}

func tableLen(table *adjacency.Table) int {
	if table == nil {
		return 0
	}
	return table.Len()
}
