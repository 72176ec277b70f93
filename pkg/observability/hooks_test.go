package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Generation hooks
	g := NoopGenerationHooks{}
	g.OnExtractStart(ctx, "rooms.bmp")
	g.OnExtractComplete(ctx, "rooms.bmp", 12, time.Second, nil)
	g.OnConstrainStart(ctx, 12)
	g.OnConstrainComplete(ctx, 48, time.Second, nil)
	g.OnSolveStart(ctx, 121, 42)
	g.OnSolveComplete(ctx, 42, time.Second, nil)
	g.OnReconstructStart(ctx, 12, 12)
	g.OnReconstructComplete(ctx, 12, 12, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "catalog")
	c.OnCacheMiss(ctx, "table")
	c.OnCacheSet(ctx, "artifact", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Generation().(NoopGenerationHooks); !ok {
		t.Error("Generation() should return NoopGenerationHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	// Set custom hooks
	customGeneration := &testGenerationHooks{}
	SetGenerationHooks(customGeneration)
	if Generation() != customGeneration {
		t.Error("SetGenerationHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Generation().(NoopGenerationHooks); !ok {
		t.Error("Reset() should restore NoopGenerationHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testGenerationHooks{}
	SetGenerationHooks(custom)

	// Setting nil should be ignored
	SetGenerationHooks(nil)

	if Generation() != custom {
		t.Error("SetGenerationHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testGenerationHooks struct{ NoopGenerationHooks }
type testCacheHooks struct{ NoopCacheHooks }
