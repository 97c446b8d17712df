package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taskflow/taskflow/internal/core/archive"
	"github.com/taskflow/taskflow/pkg/serialization"
)

// ArchiveSaver implements archive.Saver for SQLite. The filterable fields
// live in columns; the full record is a serialized blob.
type ArchiveSaver struct {
	db         *sql.DB
	serializer *serialization.Serializer
}

// NewArchiveSaver creates a saver over a migrated database. A nil
// serializer means msgpack+zstd.
func NewArchiveSaver(db *sql.DB, serializer *serialization.Serializer) *ArchiveSaver {
	if serializer == nil {
		serializer = serialization.Default()
	}
	return &ArchiveSaver{db: db, serializer: serializer}
}

// Save upserts a record.
func (s *ArchiveSaver) Save(ctx context.Context, r *archive.Record) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("archive record validation failed: %w", err)
	}
	data, err := s.serializer.Marshal(r)
	if err != nil {
		return fmt.Errorf("%w: %v", archive.ErrSaveFailed, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO archive_records (id, kind, topic_id, archived_at, data)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID, string(r.Kind), r.TopicID, toUnix(r.ArchivedAt), data)
	if err != nil {
		return fmt.Errorf("%w: %v", archive.ErrSaveFailed, err)
	}
	return nil
}

// Load retrieves a record by ID.
func (s *ArchiveSaver) Load(ctx context.Context, id string) (*archive.Record, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM archive_records WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, archive.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", archive.ErrLoadFailed, err)
	}
	return s.decode(data)
}

// List returns matching records, newest first.
func (s *ArchiveSaver) List(ctx context.Context, filter archive.Filter) ([]*archive.Record, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter validation failed: %w", err)
	}
	query, args := buildListQuery(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list archive records: %w", err)
	}
	defer rows.Close()

	var out []*archive.Record
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan archive row: %w", err)
		}
		r, err := s.decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Delete removes a record by ID.
func (s *ArchiveSaver) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM archive_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: %v", archive.ErrDeleteFailed, err)
	}
	return expectOne(res, archive.ErrRecordNotFound)
}

func (s *ArchiveSaver) decode(data []byte) (*archive.Record, error) {
	r, err := serialization.Decode[archive.Record](s.serializer, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", archive.ErrLoadFailed, err)
	}
	return &r, nil
}

func buildListQuery(filter archive.Filter) (string, []any) {
	query := "SELECT data FROM archive_records WHERE 1=1"
	var args []any

	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}
	if filter.TopicID != "" {
		query += " AND topic_id = ?"
		args = append(args, filter.TopicID)
	}
	if filter.Since != nil {
		query += " AND archived_at >= ?"
		args = append(args, toUnix(*filter.Since))
	}
	if filter.Before != nil {
		query += " AND archived_at < ?"
		args = append(args, toUnix(*filter.Before))
	}

	query += " ORDER BY archived_at DESC, id ASC"

	// SQLite only accepts OFFSET after a LIMIT; -1 means unbounded.
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := -1
		if filter.Limit > 0 {
			limit = filter.Limit
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, filter.Offset)
	}
	return query, args
}
