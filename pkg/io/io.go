// Package io provides JSON import and export for obstacle sets.
//
// # Overview
//
// This package serializes scanned obstacle lists to and from a simple
// JSON format. The format is designed for:
//
//   - Feeding obstacle placements into engines and level editors
//   - Diffing scans of regenerated maps
//   - Round-trip preservation: export, edit, and re-import identically
//
// # JSON Format
//
// The format has one required top-level array:
//
//	{
//	  "obstacles": [
//	    {"id": 0, "name": "obstacle-0-1-2", "cell_x": 1, "cell_y": 2,
//	     "x": 200, "y": 400, "size": 200}
//	  ]
//	}
package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tilewright/tilewright/pkg/world"
)

type document struct {
	Obstacles []world.Obstacle `json:"obstacles"`
}

// WriteJSON encodes an obstacle list as JSON and writes it to w.
// The output can be re-imported with [ReadJSON] for round-trip processing.
func WriteJSON(obstacles []world.Obstacle, w io.Writer) error {
	out := document{Obstacles: obstacles}
	if out.Obstacles == nil {
		out.Obstacles = []world.Obstacle{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes an obstacle list to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(obstacles []world.Obstacle, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(obstacles, f)
}

// ReadJSON decodes a JSON obstacle document from r.
//
// The input must be a JSON object with an "obstacles" array. ReadJSON
// returns an error if the JSON is malformed. The returned slice is
// independent of r; ReadJSON does not close r.
func ReadJSON(r io.Reader) ([]world.Obstacle, error) {
	var data document
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return data.Obstacles, nil
}

// ImportJSON reads a JSON file at path and returns the decoded obstacles.
//
// ImportJSON opens the file, decodes it using [ReadJSON], and closes the
// file. Errors wrap the underlying cause with the file path for context.
func ImportJSON(path string) ([]world.Obstacle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
