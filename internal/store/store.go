// Package store wraps the SQLite-backed persistent state of the recovery
// pipeline: one table per entity, stage completion tracking, and batched
// transactional helpers shared by every stage.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// schema creates every table the pipeline stages read and write. Tables are
// created with IF NOT EXISTS so opening an existing database is a no-op;
// new columns are added via idempotent migrations below.
const schema = `
CREATE TABLE IF NOT EXISTS photos (
	id TEXT PRIMARY KEY,
	mime_type TEXT NOT NULL,
	file_size INTEGER NOT NULL,
	width INTEGER,
	height INTEGER,
	date_taken TEXT,
	date_source TEXT,
	has_exif BOOLEAN NOT NULL DEFAULT 0,
	perceptual_hash TEXT,
	dhash TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS photo_paths (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	photo_id TEXT NOT NULL REFERENCES photos(id),
	source_path TEXT NOT NULL,
	filename TEXT NOT NULL,
	UNIQUE (photo_id, source_path)
);

CREATE TABLE IF NOT EXISTS individual_decisions (
	photo_id TEXT PRIMARY KEY REFERENCES photos(id),
	decision TEXT NOT NULL,
	rule_name TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS duplicate_groups (
	photo_id TEXT PRIMARY KEY REFERENCES photos(id),
	group_id INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS group_rejections (
	photo_id TEXT PRIMARY KEY REFERENCES photos(id),
	group_id INTEGER NOT NULL,
	rule_name TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS aggregated_paths (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kept_photo_id TEXT NOT NULL REFERENCES photos(id),
	source_path TEXT NOT NULL,
	from_photo_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS extended_hashes (
	photo_id TEXT PRIMARY KEY REFERENCES photos(id),
	phash_16 TEXT,
	colorhash TEXT
);

CREATE TABLE IF NOT EXISTS photo_pairs (
	photo_id_1 TEXT NOT NULL,
	photo_id_2 TEXT NOT NULL,
	same_primary_group INTEGER NOT NULL,
	phash_dist INTEGER NOT NULL,
	dhash_dist INTEGER NOT NULL,
	phash16_dist INTEGER,
	colorhash_dist INTEGER,
	PRIMARY KEY (photo_id_1, photo_id_2)
);

CREATE TABLE IF NOT EXISTS p2_groups (
	photo_id TEXT PRIMARY KEY REFERENCES photos(id),
	group_id INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS composite_groups (
	photo_id TEXT PRIMARY KEY REFERENCES photos(id),
	group_id INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS pipeline_state (
	stage TEXT PRIMARY KEY,
	completed_at DATETIME,
	photo_count INTEGER,
	notes TEXT
);

CREATE INDEX IF NOT EXISTS idx_photos_phash ON photos(perceptual_hash);
CREATE INDEX IF NOT EXISTS idx_photo_paths_photo_id ON photo_paths(photo_id);
CREATE INDEX IF NOT EXISTS idx_individual_decisions_decision ON individual_decisions(decision);
CREATE INDEX IF NOT EXISTS idx_duplicate_groups_group_id ON duplicate_groups(group_id);
CREATE INDEX IF NOT EXISTS idx_group_rejections_group_id ON group_rejections(group_id);
CREATE INDEX IF NOT EXISTS idx_aggregated_paths_kept_photo_id ON aggregated_paths(kept_photo_id);
CREATE INDEX IF NOT EXISTS idx_p2_groups_group_id ON p2_groups(group_id);
CREATE INDEX IF NOT EXISTS idx_composite_groups_group_id ON composite_groups(group_id);
`

// Store owns the single writer connection to the pipeline's SQLite database.
type Store struct {
	db   *sql.DB
	root string // output root directory (parent of the database file)
}

// Open creates the database file under root if needed and ensures the schema
// (and any pending migrations) are applied. There is exactly one writer per
// process; callers must not share a *Store across processes.
func Open(root, dbFileName string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating output root %s: %w", root, err)
	}
	dbPath := filepath.Join(root, dbFileName)
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", dbPath, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1) // single-writer model (§5): one connection, no concurrent writers

	s := &Store{db: db, root: root}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	for _, m := range migrations {
		// Migrations are idempotent: ALTER TABLE ADD COLUMN errors when the
		// column already exists, which we treat as success.
		if _, err := s.db.Exec(m); err != nil && !isDuplicateColumnErr(err) {
			return fmt.Errorf("applying migration %q: %w", m, err)
		}
	}
	return nil
}

// migrations lists schema deltas applied after the base schema. New columns
// are added this way so an existing database from an earlier pipeline
// revision can be opened in place.
var migrations = []string{
	`ALTER TABLE photos ADD COLUMN dhash TEXT`,
	`ALTER TABLE photos ADD COLUMN orientation INTEGER NOT NULL DEFAULT 0`,
}

func isDuplicateColumnErr(err error) bool {
	// mattn/go-sqlite3 surfaces this as a plain string error; there is no
	// typed sentinel, so match on the message SQLite itself produces.
	return err != nil && strings.Contains(err.Error(), "duplicate column name")
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Root returns the output root directory this store was opened under.
func (s *Store) Root() string {
	return s.root
}

// DB exposes the underlying connection for packages that need ad-hoc queries
// not otherwise covered by a typed helper.
func (s *Store) DB() *sql.DB {
	return s.db
}
