// Package storage caches compiled preview artifacts and build history in SQLite.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no artifact exists for the key.
var ErrNotFound = errors.New("artifact not found")

// Artifact is a compiled preview document keyed by its configuration hash.
type Artifact struct {
	Hash      string
	Preview   string
	HTML      string
	BuildID   string
	CreatedAt time.Time
}

// BuildRecord summarizes one production build.
type BuildRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Pages      int
	Previews   int
	Failures   int
	CacheHits  int
}

// ArtifactStore persists artifacts and build records.
type ArtifactStore interface {
	// Get returns the artifact for hash or ErrNotFound.
	Get(ctx context.Context, hash string) (*Artifact, error)
	// Put stores or replaces an artifact.
	Put(ctx context.Context, a *Artifact) error
	// Prune removes artifacts created before cutoff and returns how many.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
	// RecordBuild stores a build summary.
	RecordBuild(ctx context.Context, b BuildRecord) error
	// LastBuild returns the most recent build summary or ErrNotFound.
	LastBuild(ctx context.Context) (*BuildRecord, error)
	Close() error
}
