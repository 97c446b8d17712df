package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskflow/taskflow/internal/core/archive"
	"github.com/taskflow/taskflow/pkg/serialization"
)

// ArchiveSaver implements archive.Saver for PostgreSQL.
type ArchiveSaver struct {
	pool       *pgxpool.Pool
	serializer *serialization.Serializer
}

// NewArchiveSaver creates a saver. A nil serializer means msgpack+zstd.
func NewArchiveSaver(pool *pgxpool.Pool, serializer *serialization.Serializer) *ArchiveSaver {
	if serializer == nil {
		serializer = serialization.Default()
	}
	return &ArchiveSaver{pool: pool, serializer: serializer}
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
	_, err = s.pool.Exec(ctx, `
		INSERT INTO archive_records (id, kind, topic_id, archived_at, data)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			topic_id = EXCLUDED.topic_id,
			archived_at = EXCLUDED.archived_at,
			data = EXCLUDED.data`,
		r.ID, string(r.Kind), r.TopicID, r.ArchivedAt, data)
	if err != nil {
		return fmt.Errorf("%w: %v", archive.ErrSaveFailed, err)
	}
	return nil
}

// Load retrieves a record by ID.
func (s *ArchiveSaver) Load(ctx context.Context, id string) (*archive.Record, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM archive_records WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
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
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list archive records: %w", err)
	}
	blobs, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("failed to scan archive rows: %w", err)
	}

	out := make([]*archive.Record, 0, len(blobs))
	for _, data := range blobs {
		r, err := s.decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Delete removes a record by ID.
func (s *ArchiveSaver) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM archive_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: %v", archive.ErrDeleteFailed, err)
	}
	return expectOne(tag, archive.ErrRecordNotFound)
}

func (s *ArchiveSaver) decode(data []byte) (*archive.Record, error) {
	r, err := serialization.Decode[archive.Record](s.serializer, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", archive.ErrLoadFailed, err)
	}
	return &r, nil
}

func buildListQuery(filter archive.Filter) (string, []any) {
	query := "SELECT data FROM archive_records WHERE TRUE"
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Kind != "" {
		query += " AND kind = " + next(string(filter.Kind))
	}
	if filter.TopicID != "" {
		query += " AND topic_id = " + next(filter.TopicID)
	}
	if filter.Since != nil {
		query += " AND archived_at >= " + next(*filter.Since)
	}
	if filter.Before != nil {
		query += " AND archived_at < " + next(*filter.Before)
	}

	query += " ORDER BY archived_at DESC, id ASC"

	if filter.Limit > 0 {
		query += " LIMIT " + next(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + next(filter.Offset)
	}
	return query, args
}
