// Package store persists completed generation runs. A run record
// carries the request options, timing stats, and the PNG artifact so
// the HTTP API can serve past results by id.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tilewright/tilewright/pkg/pipeline"
)

// Run is one archived generation run.
type Run struct {
	ID          string             `json:"id" bson:"_id"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	Options     pipeline.Options   `json:"options" bson:"options"`
	Seed        uint64             `json:"seed" bson:"seed"`
	Attempts    int                `json:"attempts" bson:"attempts"`
	Stats       pipeline.Stats     `json:"stats" bson:"stats"`
	CacheInfo   pipeline.CacheInfo `json:"cache_info" bson:"cache_info"`
	CatalogHash string             `json:"catalog_hash" bson:"catalog_hash"`
	PNG         []byte             `json:"-" bson:"png"`
}

// NewRun builds a run record from a pipeline result, assigning a
// fresh id and timestamp.
func NewRun(opts pipeline.Options, result *pipeline.Result, png []byte) *Run {
	return &Run{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		Options:     opts,
		Seed:        result.Seed,
		Attempts:    result.Attempts,
		Stats:       result.Stats,
		CacheInfo:   result.CacheInfo,
		CatalogHash: result.CatalogHash,
		PNG:         png,
	}
}

// Store archives runs.
type Store interface {
	// Put saves a run.
	Put(ctx context.Context, run *Run) error

	// Get retrieves a run by id.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns run metadata, newest first, up to limit records.
	// The PNG artifact is omitted from listed records.
	List(ctx context.Context, limit int) ([]*Run, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
