// Package sqlite stores the tracker's entities and archive in SQLite via
// the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Open opens (creating if needed) the database at path and applies the
// schema. ":memory:" yields a private in-memory database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// Every pooled connection to ":memory:" would see its own empty
	// database, and SQLite serialises writers anyway.
	db.SetMaxOpenConns(1)

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS topics (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	color_index INTEGER NOT NULL DEFAULT 0,
	icon TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	completed_tasks INTEGER NOT NULL DEFAULT 0,
	bio TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tasks (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	topic_id TEXT NOT NULL,
	milestone_id TEXT,
	completed INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	completed_at INTEGER,
	completion_month INTEGER,
	completion_week INTEGER,
	completion_day INTEGER
);
CREATE INDEX IF NOT EXISTS idx_tasks_topic_id ON tasks (topic_id);

CREATE TABLE IF NOT EXISTS milestones (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	topic_id TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	sort_order INTEGER NOT NULL DEFAULT 0,
	kind TEXT NOT NULL,
	month INTEGER NOT NULL,
	week INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_milestones_topic_id ON milestones (topic_id);

CREATE TABLE IF NOT EXISTS archive_records (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	topic_id TEXT NOT NULL,
	archived_at INTEGER NOT NULL,
	data BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_archive_records_kind ON archive_records (kind, archived_at);
CREATE INDEX IF NOT EXISTS idx_archive_records_topic_id ON archive_records (topic_id);
`

// Migrate creates the tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Timestamps are stored as Unix nanoseconds and read back in time.Local,
// the location the tracker's clock stamps them in. Topic calendars are
// reckoned in the anchor's location, which must survive a restart.
func toUnix(t time.Time) int64 { return t.UnixNano() }

func fromUnix(n int64) time.Time { return time.Unix(0, n) }
