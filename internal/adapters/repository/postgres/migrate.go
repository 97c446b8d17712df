// Package postgres stores the tracker's entities and archive in
// PostgreSQL. Runtime access goes through a pgx pool; schema migration
// runs once over database/sql with the lib/pq driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS topics (
	seq BIGSERIAL,
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	color_index INTEGER NOT NULL DEFAULT 0,
	icon TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	completed_tasks INTEGER NOT NULL DEFAULT 0 CHECK (completed_tasks >= 0),
	bio TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tasks (
	seq BIGSERIAL,
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	topic_id TEXT NOT NULL REFERENCES topics (id) ON DELETE CASCADE,
	milestone_id TEXT,
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ,
	completion_month INTEGER,
	completion_week INTEGER,
	completion_day INTEGER
);
CREATE INDEX IF NOT EXISTS idx_tasks_topic_id ON tasks (topic_id);

CREATE TABLE IF NOT EXISTS milestones (
	seq BIGSERIAL,
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	topic_id TEXT NOT NULL REFERENCES topics (id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL,
	sort_order INTEGER NOT NULL DEFAULT 0,
	kind TEXT NOT NULL CHECK (kind IN ('monthly', 'weekly')),
	month INTEGER NOT NULL,
	week INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_milestones_topic_id ON milestones (topic_id);

CREATE TABLE IF NOT EXISTS archive_records (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL CHECK (kind IN ('stale', 'done')),
	topic_id TEXT NOT NULL,
	archived_at TIMESTAMPTZ NOT NULL,
	data BYTEA NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_archive_records_kind ON archive_records (kind, archived_at DESC);
CREATE INDEX IF NOT EXISTS idx_archive_records_topic_id ON archive_records (topic_id);
`

// Migrate connects with lib/pq and creates the tables if needed.
func Migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}
