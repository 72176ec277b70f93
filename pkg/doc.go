// Package pkg provides the core libraries for Tilewright map generation.
//
// # Overview
//
// Tilewright synthesizes tile maps that locally resemble a sample image.
// The sample is cut into overlapping fixed-size fragments, pairwise
// overlap constraints are derived between them, and an entropy-guided
// search assigns one fragment per output cell. The pkg directory is
// organized around that flow:
//
//  1. [fragment] - Fragment extraction, symmetry variants, catalogs
//  2. [adjacency] - Pixel-overlap constraint tables
//  3. [topology] - The solvable node grid
//  4. [solver] - Entropy-guided constraint search
//  5. [reconstruct] - Assignment to pixels
//  6. [world] - Wall obstacle scanning
//  7. [pipeline] - Orchestration (extract → constrain → solve → reconstruct)
//
// # Architecture
//
// The typical data flow through Tilewright:
//
//	Sample image (PNG/BMP)
//	         ↓
//	    [fragment] package (extract catalog + symmetry variants)
//	         ↓
//	    [adjacency] package (pixel-overlap constraint sets)
//	         ↓
//	    [topology] package (node grid with wired constraints)
//	         ↓
//	    [solver] package (entropy-guided assignment)
//	         ↓
//	    [reconstruct] package (stitched pixel grid)
//	         ↓
//	    PNG output / [world] obstacle scan
//
// # Quick Start
//
// Generate a map from a sample image:
//
//	import (
//	    "context"
//	    "github.com/tilewright/tilewright/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(context.Background(), pipeline.Options{
//	    SamplePath:   "rooms.png",
//	    OutputWidth:  40,
//	    OutputHeight: 30,
//	})
//	if err != nil {
//	    // handle contradiction or validation failure
//	}
//	img := result.Output.Image()
//
// # Main Packages
//
// ## Generation
//
// [fragment] - The atomic tile unit: immutable RGBA pixel blocks with
// content-derived keys, dihedral symmetry operations, and weighted
// catalogs that track sample occurrence counts and ground fragments.
//
// [adjacency] - Directional compatibility constraints computed by exact
// pixel-overlap comparison, collected into identified sets with
// optional interning of identical allowed-lists.
//
// [topology] - The output node grid. Each node carries one constraint
// set per orthogonal neighbor; periodic topologies wrap at the edges,
// open topologies drop edge constraints.
//
// [solver] - The solver contract and the entropic reference
// implementation: repeatedly observe the lowest-entropy node with
// weighted random selection and propagate the consequences.
//
// [reconstruct] - Stitches a total assignment back into pixels:
// interior nodes contribute their top-left pixel, the last grid column
// and row blit full fragment blocks.
//
// [world] - Scans reconstructed grids for wall-colored cells and emits
// world-space obstacles.
//
// ## Infrastructure
//
// [pipeline] - Complete generation pipeline used by CLI and server.
// Handles caching, retry with derived seeds, stage timing, and async
// progress events.
//
// [cache] - Cache interface with file, Redis, null, and keyed variants
// for catalogs, constraint tables, and finished artifacts.
//
// [store] - Run archive (memory or MongoDB) for the HTTP API.
//
// [server] - The chi HTTP API for generation and run retrieval.
//
// [imageio] - Sample decoding (PNG/BMP), PNG encoding, and truecolor
// terminal previews.
//
// [io] - JSON import and export for scanned obstacle sets.
//
// [render] - Compatibility graph visualization via Graphviz.
//
// [errors] - Coded errors shared across every package.
//
// [observability] - Pluggable hooks for generation and cache events.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/solver/...    # Specific package
//	go test -run Example        # Examples only
//
// [fragment]: https://pkg.go.dev/github.com/tilewright/tilewright/pkg/fragment
// [adjacency]: https://pkg.go.dev/github.com/tilewright/tilewright/pkg/adjacency
// [topology]: https://pkg.go.dev/github.com/tilewright/tilewright/pkg/topology
// [solver]: https://pkg.go.dev/github.com/tilewright/tilewright/pkg/solver
// [reconstruct]: https://pkg.go.dev/github.com/tilewright/tilewright/pkg/reconstruct
// [world]: https://pkg.go.dev/github.com/tilewright/tilewright/pkg/world
// [pipeline]: https://pkg.go.dev/github.com/tilewright/tilewright/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/tilewright/tilewright/pkg/cache
// [store]: https://pkg.go.dev/github.com/tilewright/tilewright/pkg/store
// [server]: https://pkg.go.dev/github.com/tilewright/tilewright/pkg/server
// [imageio]: https://pkg.go.dev/github.com/tilewright/tilewright/pkg/imageio
// [io]: https://pkg.go.dev/github.com/tilewright/tilewright/pkg/io
// [render]: https://pkg.go.dev/github.com/tilewright/tilewright/pkg/render
// [errors]: https://pkg.go.dev/github.com/tilewright/tilewright/pkg/errors
// [observability]: https://pkg.go.dev/github.com/tilewright/tilewright/pkg/observability
package pkg
