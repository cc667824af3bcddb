package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/debforge/internal/artifact"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and initializes) a SQLite-backed store.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL UNIQUE,
		package TEXT,
		version TEXT,
		architecture TEXT NOT NULL,
		distribution TEXT NOT NULL,
		status TEXT NOT NULL,
		published INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		manifest BLOB
	);
	CREATE INDEX IF NOT EXISTS idx_builds_timestamp ON builds(timestamp);
	CREATE INDEX IF NOT EXISTS idx_builds_package ON builds(package);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordBuild inserts a record for a finished build.
func (s *SQLiteStore) RecordBuild(ctx context.Context, m *artifact.BuildManifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	manifestJSON, err := m.ToJSON()
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, package, version, architecture, distribution, status, duration_ms, timestamp, manifest)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Inputs.Package, m.Inputs.Version, m.Inputs.Architecture, m.Inputs.Distribution,
		m.Status, m.Duration, m.Timestamp.Unix(), manifestJSON,
	)
	if err != nil {
		return fmt.Errorf("insert build record: %w", err)
	}
	return nil
}

// MarkPublished flags a build's record after a successful upload.
func (s *SQLiteStore) MarkPublished(ctx context.Context, buildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE builds SET published = 1 WHERE build_id = ?", buildID)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no record for build %s", buildID)
	}
	return nil
}

// Recent returns the most recent records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, package, version, architecture, distribution, status, published, duration_ms, timestamp, manifest
		 FROM builds ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetByBuildID returns the record for one build, or nil if absent.
func (s *SQLiteStore) GetByBuildID(ctx context.Context, buildID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, package, version, architecture, distribution, status, published, duration_ms, timestamp, manifest
		 FROM builds WHERE build_id = ?`, buildID)
	if err != nil {
		return nil, fmt.Errorf("query build: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var r Record
		var published int
		var timestampUnix int64

		err := rows.Scan(&r.ID, &r.BuildID, &r.Package, &r.Version, &r.Architecture,
			&r.Distribution, &r.Status, &published, &r.DurationMS, &timestampUnix, &r.Manifest)
		if err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}

		r.Published = published != 0
		r.Timestamp = time.Unix(timestampUnix, 0)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return records, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
