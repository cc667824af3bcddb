// Package history persists build and publish records to a local SQLite
// database so past outcomes survive across runs and can be listed.
package history

import (
	"context"
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/debforge/internal/artifact"
)

// Record is one persisted build outcome.
type Record struct {
	ID           int64     `json:"id"`
	BuildID      string    `json:"build_id"`
	Package      string    `json:"package"`
	Version      string    `json:"version"`
	Architecture string    `json:"architecture"`
	Distribution string    `json:"distribution"`
	Status       string    `json:"status"`
	Published    bool      `json:"published"`
	DurationMS   int64     `json:"duration_ms"`
	Timestamp    time.Time `json:"timestamp"`
	Manifest     []byte    `json:"-"` // raw manifest JSON
}

// DecodeManifest unmarshals the stored manifest payload, if any.
func (r Record) DecodeManifest() (*artifact.BuildManifest, error) {
	if len(r.Manifest) == 0 {
		return nil, nil
	}
	var m artifact.BuildManifest
	if err := json.Unmarshal(r.Manifest, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Store defines the interface for persisting build records.
type Store interface {
	// RecordBuild inserts a record for a finished build.
	RecordBuild(ctx context.Context, m *artifact.BuildManifest) error

	// MarkPublished flags a build's record after a successful upload.
	MarkPublished(ctx context.Context, buildID string) error

	// Recent returns the most recent records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)

	// GetByBuildID returns the record for one build, or nil if absent.
	GetByBuildID(ctx context.Context, buildID string) (*Record, error)

	// Close releases the store's resources.
	Close() error
}
