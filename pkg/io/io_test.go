package io

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tilewright/tilewright/pkg/world"
)

var sample = []world.Obstacle{
	{ID: 0, Name: "obstacle-0-1-2", CellX: 1, CellY: 2, X: 200, Y: 400, Size: 200},
	{ID: 1, Name: "obstacle-1-3-0", CellX: 3, CellY: 0, X: 600, Y: 0, Size: 200},
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(sample, &buf); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if len(got) != len(sample) {
		t.Fatalf("round trip produced %d obstacles, want %d", len(got), len(sample))
	}
	for i := range got {
		if got[i] != sample[i] {
			t.Errorf("obstacle %d = %+v, want %+v", i, got[i], sample[i])
		}
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(nil, &buf); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"obstacles": []`) {
		t.Errorf("nil slice should encode as empty array, got:\n%s", buf.String())
	}
}

func TestReadJSONMalformed(t *testing.T) {
	if _, err := ReadJSON(strings.NewReader("{")); err == nil {
		t.Error("ReadJSON() on malformed input: want error")
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obstacles.json")
	if err := ExportJSON(sample, path); err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}
	got, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON() error = %v", err)
	}
	if len(got) != 2 || got[1].Name != "obstacle-1-3-0" {
		t.Errorf("ImportJSON() = %+v", got)
	}
}

func TestImportJSONMissing(t *testing.T) {
	if _, err := ImportJSON(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("ImportJSON() on missing file: want error")
	}
}
