package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements ArtifactStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens the artifact database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS artifacts (
		hash TEXT PRIMARY KEY,
		preview TEXT NOT NULL,
		html TEXT NOT NULL,
		build_id TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_artifacts_created ON artifacts(created_at);
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		pages INTEGER NOT NULL,
		previews INTEGER NOT NULL,
		failures INTEGER NOT NULL,
		cache_hits INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, hash string) (*Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		a       Artifact
		buildID sql.NullString
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT hash, preview, html, build_id, created_at FROM artifacts WHERE hash = ?", hash,
	).Scan(&a.Hash, &a.Preview, &a.HTML, &buildID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, hash)
	}
	if err != nil {
		return nil, fmt.Errorf("query artifact: %w", err)
	}
	a.BuildID = buildID.String
	a.CreatedAt = time.Unix(created, 0)
	return &a, nil
}

func (s *SQLiteStore) Put(ctx context.Context, a *Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (hash, preview, html, build_id, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(hash) DO UPDATE SET preview = excluded.preview, html = excluded.html,
		 build_id = excluded.build_id, created_at = excluded.created_at`,
		a.Hash, a.Preview, a.HTML, a.BuildID, created.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM artifacts WHERE created_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune artifacts: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) RecordBuild(ctx context.Context, b BuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (id, started_at, finished_at, pages, previews, failures, cache_hits) VALUES (?, ?, ?, ?, ?, ?, ?)",
		b.ID, b.StartedAt.UnixMilli(), b.FinishedAt.UnixMilli(), b.Pages, b.Previews, b.Failures, b.CacheHits,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LastBuild(ctx context.Context) (*BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		b                 BuildRecord
		started, finished int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, started_at, finished_at, pages, previews, failures, cache_hits FROM builds ORDER BY finished_at DESC, rowid DESC LIMIT 1",
	).Scan(&b.ID, &started, &finished, &b.Pages, &b.Previews, &b.Failures, &b.CacheHits)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query build: %w", err)
	}
	b.StartedAt = time.UnixMilli(started)
	b.FinishedAt = time.UnixMilli(finished)
	return &b, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
