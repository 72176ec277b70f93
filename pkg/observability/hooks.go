// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about generation runs, cache operations, and the solver.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetGenerationHooks(&myGenerationHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Generation().OnExtractStart(ctx, samplePath)
//	// ... do extraction ...
//	observability.Generation().OnExtractComplete(ctx, samplePath, fragments, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Generation Hooks
// =============================================================================

// GenerationHooks receives events from the generation pipeline.
type GenerationHooks interface {
	// Extraction events
	OnExtractStart(ctx context.Context, sample string)
	OnExtractComplete(ctx context.Context, sample string, fragments int, duration time.Duration, err error)

	// Constraint building events
	OnConstrainStart(ctx context.Context, fragments int)
	OnConstrainComplete(ctx context.Context, sets int, duration time.Duration, err error)

	// Solve events. One solve runs per attempt; a contradiction error
	// here does not mean the run failed, only the attempt.
	OnSolveStart(ctx context.Context, nodes int, seed uint64)
	OnSolveComplete(ctx context.Context, seed uint64, duration time.Duration, err error)

	// Reconstruction events
	OnReconstructStart(ctx context.Context, width, height int)
	OnReconstructComplete(ctx context.Context, width, height int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGenerationHooks is a no-op implementation of GenerationHooks.
type NoopGenerationHooks struct{}

func (NoopGenerationHooks) OnExtractStart(context.Context, string) {}
func (NoopGenerationHooks) OnExtractComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopGenerationHooks) OnConstrainStart(context.Context, int)                          {}
func (NoopGenerationHooks) OnConstrainComplete(context.Context, int, time.Duration, error) {}
func (NoopGenerationHooks) OnSolveStart(context.Context, int, uint64)                      {}
func (NoopGenerationHooks) OnSolveComplete(context.Context, uint64, time.Duration, error)  {}
func (NoopGenerationHooks) OnReconstructStart(context.Context, int, int)                   {}
func (NoopGenerationHooks) OnReconstructComplete(context.Context, int, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	generationHooks GenerationHooks = NoopGenerationHooks{}
	cacheHooks      CacheHooks      = NoopCacheHooks{}
	hooksMu         sync.RWMutex
)

// SetGenerationHooks registers custom generation hooks.
// This should be called once at application startup before any runs.
func SetGenerationHooks(h GenerationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		generationHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Generation returns the registered generation hooks.
func Generation() GenerationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return generationHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	generationHooks = NoopGenerationHooks{}
	cacheHooks = NoopCacheHooks{}
}
