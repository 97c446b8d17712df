package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskflow/taskflow/internal/core/board"
	"github.com/taskflow/taskflow/internal/core/timeposition"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// EntityRepository implements usecases.Repository on PostgreSQL. Topic
// deletion cascades through foreign keys.
type EntityRepository struct {
	pool *pgxpool.Pool
}

// NewEntityRepository wraps a pool over a migrated database.
func NewEntityRepository(pool *pgxpool.Pool) *EntityRepository {
	return &EntityRepository{pool: pool}
}

func (r *EntityRepository) CreateTopic(ctx context.Context, t board.Topic) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid topic: %w", err)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO topics (id, name, color_index, icon, created_at, completed_tasks, bio)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Name, t.ColorIndex, t.Icon, t.CreatedAt, t.CompletedTasks, t.Bio)
	return mapWriteErr(err, "create topic", board.ErrDuplicateTopic)
}

func (r *EntityRepository) UpdateTopic(ctx context.Context, t board.Topic) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE topics SET name = $2, color_index = $3, icon = $4, created_at = $5, completed_tasks = $6, bio = $7
		WHERE id = $1`,
		t.ID, t.Name, t.ColorIndex, t.Icon, t.CreatedAt, t.CompletedTasks, t.Bio)
	if err != nil {
		return fmt.Errorf("failed to update topic: %w", err)
	}
	return expectOne(tag, board.ErrTopicNotFound)
}

func (r *EntityRepository) DeleteTopic(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM topics WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete topic: %w", err)
	}
	return expectOne(tag, board.ErrTopicNotFound)
}

func (r *EntityRepository) ListTopics(ctx context.Context) ([]board.Topic, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, color_index, icon, created_at, completed_tasks, bio
		FROM topics ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (board.Topic, error) {
		var t board.Topic
		err := row.Scan(&t.ID, &t.Name, &t.ColorIndex, &t.Icon, &t.CreatedAt, &t.CompletedTasks, &t.Bio)
		return t, err
	})
}

func (r *EntityRepository) CreateTask(ctx context.Context, t board.Task) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	month, week, day := completionColumns(t.Completion)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tasks (id, title, description, topic_id, milestone_id, completed, created_at,
			completed_at, completion_month, completion_week, completion_day)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11)`,
		t.ID, t.Title, t.Description, t.TopicID, t.MilestoneID, t.Completed, t.CreatedAt,
		t.CompletedAt, month, week, day)
	return mapWriteErr(err, "create task", board.ErrDuplicateTask)
}

func (r *EntityRepository) UpdateTask(ctx context.Context, t board.Task) error {
	month, week, day := completionColumns(t.Completion)
	tag, err := r.pool.Exec(ctx, `
		UPDATE tasks SET title = $2, description = $3, topic_id = $4, milestone_id = NULLIF($5, ''),
			completed = $6, created_at = $7, completed_at = $8,
			completion_month = $9, completion_week = $10, completion_day = $11
		WHERE id = $1`,
		t.ID, t.Title, t.Description, t.TopicID, t.MilestoneID, t.Completed, t.CreatedAt,
		t.CompletedAt, month, week, day)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return expectOne(tag, board.ErrTaskNotFound)
}

func (r *EntityRepository) DeleteTask(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return expectOne(tag, board.ErrTaskNotFound)
}

func (r *EntityRepository) ListTasks(ctx context.Context) ([]board.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, description, topic_id, COALESCE(milestone_id, ''), completed, created_at,
			completed_at, completion_month, completion_week, completion_day
		FROM tasks ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (board.Task, error) {
		var (
			t                board.Task
			completedAt      *time.Time
			month, week, day *int
		)
		err := row.Scan(&t.ID, &t.Title, &t.Description, &t.TopicID, &t.MilestoneID, &t.Completed, &t.CreatedAt,
			&completedAt, &month, &week, &day)
		t.CompletedAt = completedAt
		if month != nil && week != nil && day != nil {
			t.Completion = &timeposition.Position{Month: *month, Week: *week, Day: *day}
		}
		return t, err
	})
}

func (r *EntityRepository) CreateMilestone(ctx context.Context, m board.Milestone) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid milestone: %w", err)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO milestones (id, title, topic_id, created_at, sort_order, kind, month, week)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.Title, m.TopicID, m.CreatedAt, m.Order, string(m.Kind), m.Month, m.Week)
	return mapWriteErr(err, "create milestone", board.ErrDuplicateMilestone)
}

func (r *EntityRepository) UpdateMilestone(ctx context.Context, m board.Milestone) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE milestones SET title = $2, topic_id = $3, created_at = $4, sort_order = $5, kind = $6, month = $7, week = $8
		WHERE id = $1`,
		m.ID, m.Title, m.TopicID, m.CreatedAt, m.Order, string(m.Kind), m.Month, m.Week)
	if err != nil {
		return fmt.Errorf("failed to update milestone: %w", err)
	}
	return expectOne(tag, board.ErrMilestoneNotFound)
}

func (r *EntityRepository) DeleteMilestone(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM milestones WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete milestone: %w", err)
	}
	return expectOne(tag, board.ErrMilestoneNotFound)
}

func (r *EntityRepository) ListMilestones(ctx context.Context) ([]board.Milestone, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, topic_id, created_at, sort_order, kind, month, week
		FROM milestones ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (board.Milestone, error) {
		var m board.Milestone
		var kind string
		err := row.Scan(&m.ID, &m.Title, &m.TopicID, &m.CreatedAt, &m.Order, &kind, &m.Month, &m.Week)
		m.Kind = board.MilestoneKind(kind)
		return m, err
	})
}

func completionColumns(p *timeposition.Position) (month, week, day *int) {
	if p == nil {
		return nil, nil, nil
	}
	return &p.Month, &p.Week, &p.Day
}

func expectOne(tag pgconn.CommandTag, notFound error) error {
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

// mapWriteErr turns constraint violations into domain errors.
func mapWriteErr(err error, op string, duplicate error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return duplicate
		case foreignKeyViolation:
			return board.ErrTopicNotFound
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
