// Package history keeps a local ledger of exported release archives in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Latest when a target was never exported.
var ErrNotFound = errors.New("no recorded export")

// Record is one exported archive.
type Record struct {
	ID        string
	Target    string
	Version   string
	Archive   string
	Format    string
	SHA256    string
	Size      int64
	Entries   int
	Commit    string
	Branch    string
	Duration  time.Duration
	CreatedAt time.Time
}

// Store implements the ledger using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// Open opens or creates the ledger at dbPath. Use ":memory:" for an
// in-memory database.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// every :memory: connection is a separate database
	db.SetMaxOpenConns(1)

	store := &Store{db: db, now: time.Now}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exports (
		id TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		version TEXT NOT NULL,
		archive TEXT NOT NULL,
		format TEXT NOT NULL,
		sha256 TEXT NOT NULL,
		size INTEGER NOT NULL,
		entries INTEGER NOT NULL,
		git_commit TEXT,
		git_branch TEXT,
		duration_ms INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_exports_target ON exports(target);
	CREATE INDEX IF NOT EXISTS idx_exports_created ON exports(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append stores rec, filling in ID and CreatedAt when unset.
func (s *Store) Append(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exports (id, target, version, archive, format, sha256, size, entries, git_commit, git_branch, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Target, rec.Version, rec.Archive, rec.Format, rec.SHA256, rec.Size, rec.Entries,
		rec.Commit, rec.Branch, rec.Duration.Milliseconds(), rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert export: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, target, version, archive, format, sha256, size, entries, git_commit, git_branch, duration_ms, created_at FROM exports`

// List returns the most recent records first. A limit of zero or less returns all.
// A non-empty target restricts the result to that target.
func (s *Store) List(ctx context.Context, target string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectColumns
	var args []any
	if target != "" {
		query += ` WHERE target = ?`
		args = append(args, target)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	return scanRecords(rows)
}

// Latest returns the most recent record for target.
func (s *Store) Latest(ctx context.Context, target string) (*Record, error) {
	recs, err := s.List(ctx, target, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w for target %s", ErrNotFound, target)
	}
	return &recs[0], nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var recs []Record
	for rows.Next() {
		var r Record
		var commit, branch sql.NullString
		var durationMS, created int64
		err := rows.Scan(&r.ID, &r.Target, &r.Version, &r.Archive, &r.Format, &r.SHA256, &r.Size, &r.Entries,
			&commit, &branch, &durationMS, &created)
		if err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		r.Commit = commit.String
		r.Branch = branch.String
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.CreatedAt = time.Unix(0, created)
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return recs, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
