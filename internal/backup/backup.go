// Package backup persists hot-exit copies of open documents.
//
// Dirty documents are written to a sqlite database after every change and
// removed once the client saves or cleanly closes them. Records that
// survive a crash are reported at the next startup.
package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by Get when no record exists for a URI.
var ErrNotFound = errors.New("backup: record not found")

// Record is one backed-up document.
type Record struct {
	URI      string
	Language string
	Version  int32
	Content  string
	SavedAt  time.Time
}

// Store is a sqlite-backed backup database.
type Store struct {
	db *sql.DB
}

const schemaVersion = 1

// Open opens or creates the backup database at path. The path ":memory:"
// keeps the database in memory.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create backup directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps :memory: databases on a single schema and is
	// plenty for the write rate of a backup store.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set PRAGMA: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if version == schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
        CREATE TABLE IF NOT EXISTS backups (
            uri TEXT PRIMARY KEY,
            language TEXT NOT NULL DEFAULT '',
            version INTEGER NOT NULL,
            content TEXT NOT NULL,
            saved_at INTEGER NOT NULL
        )`); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	return tx.Commit()
}

// Put inserts or replaces the record for its URI. A zero SavedAt is
// stamped with the current time.
func (s *Store) Put(ctx context.Context, rec Record) error {
	savedAt := rec.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO backups (uri, language, version, content, saved_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(uri) DO UPDATE SET
            language = excluded.language,
            version = excluded.version,
            content = excluded.content,
            saved_at = excluded.saved_at
    `, rec.URI, rec.Language, rec.Version, rec.Content, savedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to upsert backup: %w", err)
	}
	return nil
}

// Get returns the record for a URI.
func (s *Store) Get(ctx context.Context, uri string) (Record, error) {
	var rec Record
	var savedAt int64
	err := s.db.QueryRowContext(ctx, `
        SELECT uri, language, version, content, saved_at
        FROM backups WHERE uri = ?
    `, uri).Scan(&rec.URI, &rec.Language, &rec.Version, &rec.Content, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to query backup: %w", err)
	}
	rec.SavedAt = time.Unix(0, savedAt)
	return rec, nil
}

// Delete removes the record for a URI. Deleting an absent record is not
// an error.
func (s *Store) Delete(ctx context.Context, uri string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM backups WHERE uri = ?", uri); err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}
	return nil
}

// List returns all records ordered by URI.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT uri, language, version, content, saved_at
        FROM backups ORDER BY uri
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to query backups: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var savedAt int64
		if err := rows.Scan(&rec.URI, &rec.Language, &rec.Version, &rec.Content, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan backup record: %w", err)
		}
		rec.SavedAt = time.Unix(0, savedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating backup records: %w", err)
	}
	return records, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
