package store

import (
	"context"
	"testing"
	"time"

	"github.com/tilewright/tilewright/pkg/pipeline"
)

func sampleRun(t *testing.T, createdAt time.Time) *Run {
	t.Helper()
	run := NewRun(
		pipeline.Options{SamplePath: "rooms.bmp", OutputWidth: 12, OutputHeight: 12},
		&pipeline.Result{Seed: 42, Attempts: 1, CatalogHash: "abc"},
		[]byte("png-bytes"),
	)
	run.CreatedAt = createdAt
	return run
}

func TestNewRunAssignsID(t *testing.T) {
	a := sampleRun(t, time.Now())
	b := sampleRun(t, time.Now())
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("run ids %q, %q should be distinct and non-empty", a.ID, b.ID)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	run := sampleRun(t, time.Now())
	if err := s.Put(ctx, run); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Seed != 42 || string(got.PNG) != "png-bytes" {
		t.Errorf("Get() = %+v, want stored run", got)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "no-such-run"); err == nil {
		t.Error("Get() on missing run = nil error")
	}
}

func TestMemoryStorePutValidation(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Put(context.Background(), &Run{}); err == nil {
		t.Error("Put() without id = nil error")
	}
	if err := s.Put(context.Background(), nil); err == nil {
		t.Error("Put(nil) = nil error")
	}
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	base := time.Now()
	var newest *Run
	for i := 0; i < 3; i++ {
		run := sampleRun(t, base.Add(time.Duration(i)*time.Minute))
		if err := s.Put(ctx, run); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		newest = run
	}

	runs, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("List() returned %d runs, want 2", len(runs))
	}
	if runs[0].ID != newest.ID {
		t.Error("List() should order newest first")
	}
	if runs[0].PNG != nil {
		t.Error("List() should omit the PNG artifact")
	}

	// Listed records are copies; mutating them must not corrupt the store.
	runs[0].Seed = 0
	got, err := s.Get(ctx, newest.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Seed != 42 || got.PNG == nil {
		t.Error("stored run mutated through listed copy")
	}
}
